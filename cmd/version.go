package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/catalog"
	"github.com/bnema/gw2ctl/internal/ui/styles"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the latest published releases",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("gw2ctl %s (%s)\n", version, commit)

		a, err := newApp(cmd.Context())
		if err != nil {
			// Offline is fine for a version check
			fmt.Println(styles.FormatWarning("Could not read addon repositories: " + err.Error()))
			return nil
		}

		if info, ok := a.catalog.Manager(); ok && info.VersionID != "" {
			printField("Latest", info.VersionID)
		}
		if info, ok := a.catalog.Loader(); ok && info.VersionID != "" {
			printField("Loader", info.VersionID)
		}
		if loader, ok := a.catalog.Lookup(catalog.LoaderName); ok && a.cfg.GamePath != "" {
			if state, err := a.manager.State(loader); err == nil {
				printField("Installed", styles.FormatState(state))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
