package config

import (
	"os"
	"path/filepath"
)

const appName = "gw2ctl"

// Paths holds the XDG locations used by gw2ctl
type Paths struct {
	DataDir    string // backups
	CacheDir   string // manifest cache, log file
	ConfigDir  string
	ConfigFile string
}

// ResolvePaths returns the XDG directories, falling back to the usual
// locations under the home directory when the variables are unset
func ResolvePaths() Paths {
	homeDir, _ := os.UserHomeDir()

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		cacheDir = filepath.Join(homeDir, ".cache")
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		configDir = filepath.Join(homeDir, ".config")
	}
	configDir = filepath.Join(configDir, appName)

	return Paths{
		DataDir:    filepath.Join(dataDir, appName),
		CacheDir:   filepath.Join(cacheDir, appName),
		ConfigDir:  configDir,
		ConfigFile: filepath.Join(configDir, "config.yaml"),
	}
}

// ManifestCacheDir is where repository manifests are cached
func (p Paths) ManifestCacheDir() string {
	return filepath.Join(p.CacheDir, "manifests")
}
