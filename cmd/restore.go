package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/ui/progress"
	"github.com/bnema/gw2ctl/internal/ui/styles"
)

var (
	restoreTimestamp string
	restoreList      bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore <addon>",
	Short: "Restore an addon from a backup",
	Long: `Copy the files of a backup back into the game directory.

Backups are made by 'gw2ctl remove --backup'. The three most recent backups
of each addon are kept.

Examples:
  gw2ctl restore arcdps
  gw2ctl restore arcdps --list
  gw2ctl restore arcdps --timestamp 20240501-120000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.requireGameDir(); err != nil {
			return err
		}

		addon, err := a.manager.Find(args[0])
		if err != nil {
			return err
		}

		if restoreList {
			backups, err := a.backups.ListBackups(addon.Nickname)
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				fmt.Printf("No backups of %s\n", addon.Name())
				return nil
			}
			progress.PrintTitle("Backups of " + addon.Name())
			for _, b := range backups {
				fmt.Println("  " + b)
			}
			progress.PrintDetail("Stored in " + a.backups.Dir())
			return nil
		}

		restored, err := a.backups.RestoreBackup(addon.Nickname, restoreTimestamp)
		if err != nil {
			return err
		}

		state, err := a.manager.State(addon)
		if err != nil {
			return err
		}

		fmt.Println(styles.FormatSuccess(fmt.Sprintf("Restored %s from backup %s", addon.Name(), restored)))
		fmt.Printf("State: %s\n", styles.FormatState(state))
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringVar(&restoreTimestamp, "timestamp", "", "Backup to restore (default latest)")
	restoreCmd.Flags().BoolVar(&restoreList, "list", false, "List available backups")
	rootCmd.AddCommand(restoreCmd)
}
