package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/afero"

	"github.com/bnema/gw2ctl/internal/addons"
	"github.com/bnema/gw2ctl/internal/archive"
	"github.com/bnema/gw2ctl/internal/catalog"
	"github.com/bnema/gw2ctl/internal/config"
	"github.com/bnema/gw2ctl/internal/download"
	"github.com/bnema/gw2ctl/internal/logger"
	"github.com/bnema/gw2ctl/internal/ui/prompt"
)

// app wires the configuration, catalog and addon manager for one command
type app struct {
	fs      afero.Fs
	paths   config.Paths
	store   *config.Store
	cfgPath string
	cfg     *config.Config
	catalog *catalog.Catalog
	backups *addons.BackupManager
	manager *addons.Manager
}

// loadConfig reads the config file and applies the --game-dir override
func loadConfig() (*app, error) {
	fs := afero.NewOsFs()
	paths := config.ResolvePaths()

	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = paths.ConfigFile
	}

	store := config.NewStore(fs)
	cfg, err := store.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if gameDir != "" {
		cfg.GamePath = gameDir
	}

	return &app{fs: fs, paths: paths, store: store, cfgPath: cfgPath, cfg: cfg}, nil
}

// newApp loads the configuration and refreshes the catalog from every
// configured repository
func newApp(ctx context.Context) (*app, error) {
	a, err := loadConfig()
	if err != nil {
		return nil, err
	}

	fetcher := catalog.NewFetcher(a.fs, a.paths.ManifestCacheDir(), http.DefaultClient, logger.For("fetch"))
	a.catalog = catalog.New(fetcher, logger.For("catalog"))
	if err := a.catalog.Refresh(ctx, a.cfg.AddonRepos); err != nil {
		return nil, err
	}

	a.backups = addons.NewBackupManager(a.fs, a.paths.DataDir, a.cfg.GamePath)
	a.manager = addons.NewManager(a.options())

	return a, nil
}

// requireGameDir fails early with a hint when no game directory is configured
func (a *app) requireGameDir() error {
	if a.cfg.GamePath == "" {
		return fmt.Errorf("%w: run 'gw2ctl config set-game-dir <path>' or pass --game-dir", addons.ErrNoGameDir)
	}
	return nil
}

func (a *app) options() addons.Options {
	return addons.Options{
		Fs:        a.fs,
		GameDir:   a.cfg.GamePath,
		Catalog:   a.catalog,
		Transport: download.New(nil, logger.For("download")),
		Extractor: archive.NewZipExtractor(a.fs),
		Logger:    logger.For("addons"),
	}
}

// withBackups returns a manager backing up addons before they are deleted
func (a *app) withBackups() *addons.Manager {
	opts := a.options()
	opts.Backup = a.backups
	return addons.NewManager(opts)
}

// confirmer returns the prompt used for destructive operations
func confirmer(yes bool) prompt.Confirmer {
	if yes {
		return prompt.Always(true)
	}
	return prompt.NewStdinConfirmer()
}

// resolveAddons looks up every argument in the catalog
func (a *app) resolveAddons(names []string) ([]addons.Addon, error) {
	return a.manager.FindAll(names)
}
