package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"parentguide-backend/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose bool
	asJSON  bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "guidectl",
	Short: "Operator tool for the parent guidance backend",
	Long: `guidectl runs the guidance pipeline and catalog checks from a terminal.

It reads the same .env, config.yaml and GUIDE_* environment as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logCfg := cfg.Log
		logCfg.Format = "console"
		if verbose {
			logCfg.Level = "debug"
		} else {
			logCfg.Level = "warn"
		}
		return config.InitLogger(logCfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(askCmd, resourcesCmd, checkLinksCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
