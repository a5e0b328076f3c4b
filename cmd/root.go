package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/logger"
)

// Version info set via ldflags at build time
var (
	version = "dev"
	commit  = "unknown"
)

var (
	verbose    bool
	gameDir    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:     "gw2ctl",
	Short:   "Guild Wars 2 addon manager",
	Version: version + " (" + commit + ")",
	Long: `A Go CLI tool to install, remove, enable and disable Guild Wars 2 addons.
Addons come from one or more addon repositories; the game directory is the
only record of what is installed.

Quick start:
  gw2ctl config set-game-dir ~/Games/guild-wars-2
  gw2ctl list                List every addon and its state
  gw2ctl install arcdps      Install an addon and its dependencies
  gw2ctl tui                 Interactive addon browser`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringVar(&gameDir, "game-dir", "", "Game directory (overrides the config file)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/gw2ctl/config.yaml)")
}
