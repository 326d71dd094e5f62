package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hejny/gitlabinfo/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:     "browse",
	Aliases: []string{"ui"},
	Short:   "Browse projects interactively",
	Long: `Open the interactive project table. Changes to filters, sorting, paging
and columns are saved as you go. Press ? for key bindings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return browseRun()
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func browseRun() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := getStore()
	if err != nil {
		return err
	}
	ctrl := newController(ctx, s)

	load := func(ctx context.Context) (tui.Loaded, error) {
		res, err := loadProjects(ctx)
		if err != nil {
			return tui.Loaded{}, err
		}
		return tui.Loaded{Projects: res.Projects, Notice: staleNotice(res)}, nil
	}

	p := tea.NewProgram(tui.New(ctx, ctrl, load), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}
