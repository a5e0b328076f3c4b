package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/addons"
	"github.com/bnema/gw2ctl/internal/logger"
	"github.com/bnema/gw2ctl/internal/ui/progress"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every addon and the addon loader",
	Long: `Return the game directory to a clean install: the whole addons directory
and the addon loader files are removed. Game files are not touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadConfig()
		if err != nil {
			return err
		}
		if err := a.requireGameDir(); err != nil {
			return err
		}

		if !confirmer(resetYes).Confirm("Reset to clean install", "Remove every addon and the addon loader?") {
			fmt.Println("Cancelled.")
			return nil
		}

		// Reset needs no catalog: it only deletes fixed paths
		manager := addons.NewManager(addons.Options{
			Fs:      a.fs,
			GameDir: a.cfg.GamePath,
			Logger:  logger.For("addons"),
		})

		progress.PrintTitle("Reset to clean install")
		if err := manager.Reset(); err != nil {
			progress.PrintError("Failed to reset: " + err.Error())
			return err
		}

		progress.PrintComplete("Addons directory removed")
		progress.PrintComplete("Addon loader removed")
		progress.PrintDetail("Game files preserved at: " + manager.GameDir())
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}
