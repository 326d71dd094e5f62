package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hejny/gitlabinfo/internal/output"
	"github.com/hejny/gitlabinfo/internal/refresh"
	"github.com/hejny/gitlabinfo/internal/source"
	"github.com/hejny/gitlabinfo/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	logger    *slog.Logger
	dataStore store.Store

	verbose bool
	dryRun  bool
	offline bool
)

var rootCmd = &cobra.Command{
	Use:   "glinfo",
	Short: "Browse GitLab projects with filters, sorting and paging",
	Long: `glinfo lists GitLab projects fetched from a project-info backend or
straight from a GitLab instance. Filters, sort order, page size and visible
columns are remembered between runs.

Running bare 'glinfo' is the same as 'glinfo projects list'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return projectsListRun(listOpts, func(string) bool { return false })
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output and debug logging")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Use the last snapshot instead of fetching")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/glinfo/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "glinfo")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GLINFO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	home, _ := os.UserHomeDir()
	setDefaults(filepath.Join(home, ".config", "glinfo"))

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key with its default value.
func setDefaults(stateDir string) {
	viper.SetDefault("state_dir", stateDir)
	viper.SetDefault("db_path", filepath.Join(stateDir, "glinfo.db"))
	viper.SetDefault("source", source.KindBackend)
	viper.SetDefault("backend.url", "http://localhost:8080")
	viper.SetDefault("backend.token", "")
	viper.SetDefault("backend.timeout", "30s")
	viper.SetDefault("gitlab.url", "https://gitlab.com")
	viper.SetDefault("gitlab.token", "")
	viper.SetDefault("gitlab.groups", []string{})
	viper.SetDefault("gitlab.concurrency", 8)
	viper.SetDefault("snapshots.keep", refresh.DefaultKeep)
	viper.SetDefault("log.level", "warn")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun
	logger = newLogger(viper.GetString("log.level"), verbose)

	// Initialize store lazily, only when commands actually need it.
	// This allows config/version commands to run without a db.
}

// newLogger builds the stderr text logger. --verbose forces debug level.
func newLogger(level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// getSource builds the configured inbound data source.
func getSource() (source.Source, error) {
	switch kind := viper.GetString("source"); kind {
	case source.KindBackend:
		url := viper.GetString("backend.url")
		if url == "" {
			return nil, fmt.Errorf("backend.url is not set (run 'glinfo config init')")
		}
		return source.NewHTTPSource(url, viper.GetString("backend.token"), viper.GetDuration("backend.timeout")), nil
	case source.KindGitLab:
		return source.NewGitLabSource(source.GitLabOptions{
			BaseURL:     viper.GetString("gitlab.url"),
			Token:       viper.GetString("gitlab.token"),
			Groups:      viper.GetStringSlice("gitlab.groups"),
			Concurrency: viper.GetInt("gitlab.concurrency"),
			Logger:      logger,
		})
	default:
		return nil, fmt.Errorf("unknown source %q (want %s or %s)", kind, source.KindBackend, source.KindGitLab)
	}
}

// loadProjects runs the one-shot fetch, falling back to the last snapshot.
func loadProjects(ctx context.Context) (*refresh.Result, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	var src source.Source
	if !offline {
		if src, err = getSource(); err != nil {
			return nil, err
		}
	}
	return refresh.Projects(ctx, src, s, refresh.Options{
		Keep:    viper.GetInt("snapshots.keep"),
		Offline: offline,
		Logger:  logger,
	})
}

// reportStale warns when the result did not come from a fresh fetch.
func reportStale(r *refresh.Result) {
	if msg := staleNotice(r); msg != "" {
		ui.Warning("%s", msg)
	}
}

// staleNotice describes a result that did not come from a fresh fetch, or
// returns "".
func staleNotice(r *refresh.Result) string {
	if !r.Stale {
		return ""
	}
	if r.Error != "" && r.SnapshotID == "" {
		return "No projects available: " + r.Error
	}
	msg := fmt.Sprintf("Showing snapshot from %s", r.FetchedAt.Local().Format("2006-01-02 15:04"))
	if r.Error != "" {
		msg += ": " + r.Error
	}
	return msg
}
