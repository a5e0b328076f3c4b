package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/addons"
	"github.com/bnema/gw2ctl/internal/ui/progress"
	"github.com/bnema/gw2ctl/internal/ui/prompt"
)

var installCmd = &cobra.Command{
	Use:     "install <addon...>",
	Aliases: []string{"i", "add"},
	Short:   "Install addons and their dependencies",
	Long: `Install one or more addons by nickname or name.

Dependencies are installed first. The addon loader is a dependency of every
addon, so the first install also sets it up. Addons already present are
skipped without a version check.

Examples:
  gw2ctl install arcdps
  gw2ctl install arcdps d912pxy`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.requireGameDir(); err != nil {
			return err
		}

		selected, err := a.resolveAddons(args)
		if err != nil {
			return err
		}

		return runBatch(cmd.Context(), "Installing addons", a.manager, selected, (*addons.Manager).Install)
	},
}

// batchFunc is one of the manager's batch operations
type batchFunc func(m *addons.Manager, ctx context.Context, selected []addons.Addon) error

// runBatch runs a batch operation behind the progress display
func runBatch(ctx context.Context, title string, manager *addons.Manager, selected []addons.Addon, fn batchFunc) error {
	return progress.Run(ctx, title, prompt.IsTerminal(), os.Stdout,
		func(ctx context.Context, report func(addons.Progress)) error {
			return fn(manager.WithProgress(report), ctx, selected)
		})
}

func init() {
	rootCmd.AddCommand(installCmd)
}
