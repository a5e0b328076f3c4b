package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/addons"
	"github.com/bnema/gw2ctl/internal/ui/styles"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadConfig()
		if err != nil {
			return err
		}

		gamePath := a.cfg.GamePath
		if gamePath == "" {
			gamePath = styles.WarningText.Render("(not set)")
		}

		printField("Config", a.cfgPath)
		printField("Game dir", gamePath)
		printField("Backups", fmt.Sprintf("%t (%s)", a.cfg.BackupOnDelete, filepath.Join(a.paths.DataDir, "backups")))
		printField("Cache", a.paths.ManifestCacheDir())
		fmt.Println("Repositories:")
		for _, repo := range a.cfg.AddonRepos {
			fmt.Println("  " + repo)
		}
		return nil
	},
}

var configSetGameDirCmd = &cobra.Command{
	Use:   "set-game-dir <path>",
	Short: "Set the Guild Wars 2 install directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadConfig()
		if err != nil {
			return err
		}

		dir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if ok, _ := afero.DirExists(a.fs, dir); !ok {
			return fmt.Errorf("%w: %s does not exist", addons.ErrNoGameDir, dir)
		}

		// Persist the file's values, not the environment overrides
		cfg, err := a.store.LoadFile(a.cfgPath)
		if err != nil {
			return err
		}
		cfg.GamePath = dir
		if err := a.store.Save(a.cfgPath, cfg); err != nil {
			return err
		}

		fmt.Println(styles.FormatSuccess("Game directory set to " + dir))
		return nil
	},
}

var configAddRepoCmd = &cobra.Command{
	Use:   "add-repo <url>",
	Short: "Add an addon repository",
	Long: `Add an addon repository manifest URL. Repositories are merged in order;
for an addon published by several repositories the highest version wins.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadConfig()
		if err != nil {
			return err
		}

		cfg, err := a.store.LoadFile(a.cfgPath)
		if err != nil {
			return err
		}
		if err := cfg.AddRepo(args[0]); err != nil {
			return err
		}
		if err := a.store.Save(a.cfgPath, cfg); err != nil {
			return err
		}

		fmt.Println(styles.FormatSuccess(fmt.Sprintf("%d repositories configured", len(cfg.AddonRepos))))
		return nil
	},
}

var configSetBackupCmd = &cobra.Command{
	Use:       "set-backup <on|off>",
	Short:     "Back up addons before removal by default",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var enabled bool
		switch args[0] {
		case "on", "true", "yes":
			enabled = true
		case "off", "false", "no":
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}

		a, err := loadConfig()
		if err != nil {
			return err
		}
		cfg, err := a.store.LoadFile(a.cfgPath)
		if err != nil {
			return err
		}
		cfg.BackupOnDelete = enabled
		if err := a.store.Save(a.cfgPath, cfg); err != nil {
			return err
		}

		fmt.Println(styles.FormatSuccess(fmt.Sprintf("Backup on delete: %t", enabled)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetGameDirCmd)
	configCmd.AddCommand(configAddRepoCmd)
	configCmd.AddCommand(configSetBackupCmd)
	rootCmd.AddCommand(configCmd)
}
