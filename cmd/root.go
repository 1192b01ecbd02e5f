package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentic-research/tagtree/internal/collection"
	"github.com/agentic-research/tagtree/internal/config"
	"github.com/agentic-research/tagtree/internal/logging"
)

var (
	configPath     string
	logMode        string
	collectionPath string
	outDir         string

	cfg    *config.Config
	logger = logging.Nop()
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default ~/.config/tagtree/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "Log mode: development or production")
	rootCmd.PersistentFlags().StringVar(&collectionPath, "collection", "", "Path to the collection database")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "Directory receiving export artifacts")
}

var rootCmd = &cobra.Command{
	Use:          "tagtree",
	Short:        "tagtree: hierarchical tag statistics for study-card collections",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		c, err := config.Load(path)
		if err != nil {
			return err
		}

		// Flags win over file and environment.
		if collectionPath != "" {
			c.Collection = collectionPath
		}
		if outDir != "" {
			c.ExportsDir = outDir
		}
		if logMode != "" {
			c.LogMode = logMode
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		l, err := logging.New(c.LogMode)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// source returns the configured collection reader.
func source() (collection.Source, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("no collection configured: pass --collection or set TAGTREE_COLLECTION")
	}
	return collection.SQLiteSource{Path: cfg.Collection}, nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
