package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hejny/gitlabinfo/internal/output"
)

var prefsCmd = &cobra.Command{
	Use:     "prefs",
	Aliases: []string{"preferences"},
	Short:   "Show or reset the saved view preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show saved preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		return prefsShowRun()
	},
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all saved filters, sorting, paging and columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return prefsResetRun()
	},
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsResetCmd)
	rootCmd.AddCommand(prefsCmd)
}

func prefsShowRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	prefs, err := s.ListPreferences(context.Background())
	if err != nil {
		return err
	}
	if len(prefs) == 0 {
		ui.Info("No saved preferences.")
		return nil
	}

	table := ui.Table([]string{"Key", "Value", "Updated"})
	for _, p := range prefs {
		value := p.Value
		if value == "" {
			value = output.Yellow("(empty)")
		}
		table.Append([]string{
			output.Cyan(p.Key),
			value,
			p.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return table.Render()
}

func prefsResetRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if dryRun {
		prefs, err := s.ListPreferences(ctx)
		if err != nil {
			return err
		}
		ui.DryRunMsg("Would delete %d preference(s)", len(prefs))
		return nil
	}

	n, err := s.DeletePreferences(ctx)
	if err != nil {
		return err
	}
	ui.Success("Deleted %d preference(s)", n)
	return nil
}
