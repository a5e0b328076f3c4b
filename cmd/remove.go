package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/addons"
	"github.com/bnema/gw2ctl/internal/ui/prompt"
	"github.com/bnema/gw2ctl/internal/ui/styles"
)

var (
	removeYes      bool
	removeBackup   bool
	removeNoBackup bool
)

var removeCmd = &cobra.Command{
	Use:     "remove <addon...>",
	Aliases: []string{"rm", "delete", "uninstall"},
	Short:   "Remove installed addons",
	Long: `Remove addons from the game directory.

Installed addons that depend on a removed addon are removed first. Removing
the addon loader therefore removes every addon.

With --backup (or backup_on_delete in the config file) the files of each
removed addon are copied to the backup directory first; restore them with
'gw2ctl restore'.

Examples:
  gw2ctl remove arcdps
  gw2ctl remove arcdps --yes
  gw2ctl remove arcdps --backup`,
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

		backup := (a.cfg.BackupOnDelete || removeBackup) && !removeNoBackup
		manager := a.manager
		if backup {
			manager = a.withBackups()
		}

		if !confirmBatch(confirmer(removeYes), "Remove addons", "Remove", selected, backup) {
			fmt.Println("Cancelled.")
			return nil
		}

		return runBatch(cmd.Context(), "Removing addons", manager, selected, (*addons.Manager).Delete)
	},
}

// confirmBatch asks once for the whole batch before the progress display
// takes over the terminal
func confirmBatch(c prompt.Confirmer, title, verb string, selected []addons.Addon, backup bool) bool {
	names := make([]string, 0, len(selected))
	for _, addon := range selected {
		names = append(names, styles.Highlighted.Render(addon.Name()))
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("%s %s?", verb, strings.Join(names, ", ")))
	if verb == "Remove" {
		msg.WriteString("\n  Installed addons depending on them are removed too.")
		if backup {
			msg.WriteString("\n  A backup will be created.")
		} else {
			msg.WriteString("\n" + styles.FormatWarning("No backup will be created!"))
		}
	}
	msg.WriteString("\n")

	return c.Confirm(title, msg.String())
}

func init() {
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Skip confirmation prompt")
	removeCmd.Flags().BoolVar(&removeBackup, "backup", false, "Back up addon files before removal")
	removeCmd.Flags().BoolVar(&removeNoBackup, "no-backup", false, "Never back up, even if the config enables it")
	rootCmd.AddCommand(removeCmd)
}
