package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/logger"
	addonsui "github.com/bnema/gw2ctl/internal/ui/addons"
	"github.com/bnema/gw2ctl/internal/watcher"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive addon browser",
	Long: `Browse the addon catalog in an interactive TUI.

Install, remove, enable and disable addons from the list. States refresh live
when files in the game directory change.`,
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
			logger.Warn("Live updates disabled", "error", err)
		}

		manager := a.manager
		if a.cfg.BackupOnDelete {
			manager = a.withBackups()
		}

		model := addonsui.NewModel(cmd.Context(), manager, changes)
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
