package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/flowboard/internal/output"
	"github.com/joescharf/flowboard/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	dryRun  bool

	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "flowboard",
	Short: "Kanban board over GitHub issue labels",
	Long: `flowboard shows the open issues of a GitHub repository as a kanban board,
one column per workflow stage (inception, discussion, build, review, done).

Moving an issue rewrites its status:* label and dispatches the automation
workflow. Each issue can be opened to see its generated artifacts, the diff of
its branch, its pull request and the CI runs on that pull request.`,
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

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/flowboard/config.yaml)")
	rootCmd.PersistentFlags().String("owner", "", "Repository owner (default: config, then the origin remote)")
	rootCmd.PersistentFlags().String("repo", "", "Repository name (default: config, then the origin remote)")
	_ = viper.BindPFlag("github.default_owner", rootCmd.PersistentFlags().Lookup("owner"))
	_ = viper.BindPFlag("github.default_repo", rootCmd.PersistentFlags().Lookup("repo"))
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDirFunc()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FLOWBOARD")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	dir, _ := configDirFunc()
	setDefaults(dir)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key with its default, rooted at dir.
func setDefaults(dir string) {
	viper.SetDefault("state_dir", dir)
	viper.SetDefault("db_path", filepath.Join(dir, "flowboard.db"))
	viper.SetDefault("port", 8080)
	viper.SetDefault("github.token", "")
	viper.SetDefault("github.base_url", "https://api.github.com")
	viper.SetDefault("github.default_owner", "")
	viper.SetDefault("github.default_repo", "")
	viper.SetDefault("github.requests_per_second", 10)
	viper.SetDefault("orchestrator.workflow", ".github/workflows/devflow.yml")
	viper.SetDefault("orchestrator.ref", "main")
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-sonnet-4-5")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	if verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	// The store is opened lazily so config/version commands run without a db.
}

// getStore returns the shared activity store, initializing it on first call.
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
