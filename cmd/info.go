package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/addons"
	"github.com/bnema/gw2ctl/internal/ui/styles"
)

var infoCmd = &cobra.Command{
	Use:   "info <addon>",
	Short: "Show addon details",
	Long: `Show the catalog entry of an addon together with its install state,
its directory in the game folder and any backups.

Examples:
  gw2ctl info arcdps
  gw2ctl info "Addon Loader"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		addon, err := a.manager.Find(args[0])
		if err != nil {
			return err
		}

		printAddonInfo(addon)

		if a.cfg.GamePath == "" {
			return nil
		}

		state, err := a.manager.State(addon)
		if err != nil {
			return err
		}
		printField("State", styles.FormatState(state))

		if dir, err := a.manager.AddonDirectory(addon); err == nil {
			printField("Directory", dir)
		}
		if state.Installed() {
			if p, err := a.manager.AddonPath(addon, state == addons.StateEnabled); err == nil && p != "" {
				printField("File", p)
			}
		}

		backups, err := a.backups.ListBackups(addon.Nickname)
		if err == nil && len(backups) > 0 {
			fmt.Printf("\nBackups: %d available (latest: %s)\n", len(backups), backups[0])
		}

		return nil
	},
}

func printAddonInfo(addon addons.Addon) {
	fmt.Println(styles.Title.Render(addon.Name()))
	if addon.Description != "" {
		fmt.Println(styles.MutedText.Render(addon.Description))
	}
	fmt.Println()

	printField("Nickname", addon.Nickname)
	printField("Mode", addon.InstallMode.String())

	if addon.VersionID != "" {
		printField("Version", addon.VersionID)
	}

	if addon.Developer != "" {
		printField("Developer", addon.Developer)
	}

	if addon.Website != "" {
		printField("Website", addon.Website)
	}

	if len(addon.Requires) > 0 {
		printField("Requires", strings.Join(addon.Requires, ", "))
	}

	if len(addon.Conflicts) > 0 {
		printField("Conflicts", strings.Join(addon.Conflicts, ", "))
	}

	if addon.DownloadURL != "" {
		printField("Download", addon.DownloadURL)
	}
}

func printField(label, value string) {
	fmt.Printf("%-11s %s\n", label+":", value)
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
