package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/logger"
	"github.com/bnema/gw2ctl/internal/ui/progress"
	"github.com/bnema/gw2ctl/internal/ui/styles"
	"github.com/bnema/gw2ctl/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print addon state changes as they happen",
	Long: `Watch the game directory and print the new state of every addon whose
files change, whether the change comes from gw2ctl or from anything else.
Stop with Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.requireGameDir(); err != nil {
			return err
		}

		w := watcher.New(a.catalog, a.fs, logger.For("watcher"))
		defer func() { _ = w.Close() }()

		changes, cancel := w.Subscribe(64)
		defer cancel()

		if err := w.SetRoot(a.cfg.GamePath); err != nil {
			return fmt.Errorf("failed to watch %s: %w", a.cfg.GamePath, err)
		}

		progress.PrintTitle("Watching " + a.cfg.GamePath)

		ctx := cmd.Context()
		for {
			select {
			case <-ctx.Done():
				progress.PrintNewline()
				return nil
			case change, ok := <-changes:
				if !ok {
					return nil
				}
				fmt.Printf("%s%s\n",
					styles.MutedText.Render(time.Now().Format("15:04:05")),
					progress.FormatAddonLine(change.Addon.Name(), change.State, change.Addon.InstallMode),
				)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
