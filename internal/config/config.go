// Package config loads and saves the gw2ctl configuration file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/bnema/gw2ctl/internal/catalog"
)

// Environment variables overriding the configuration file
const (
	EnvGameDir = "GW2_GAME_DIR"
	EnvRepos   = "GW2CTL_REPOS" // comma separated
)

// Config is the user configuration
type Config struct {
	GamePath       string   `yaml:"game_path" toml:"game_path"`
	AddonRepos     []string `yaml:"addon_repos" toml:"addon_repos"`
	BackupOnDelete bool     `yaml:"backup_on_delete" toml:"backup_on_delete"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		AddonRepos: []string{catalog.DefaultRepo},
	}
}

// Store reads and writes configuration files. The format follows the file
// extension: .toml is TOML, anything else YAML.
type Store struct {
	fs afero.Fs
}

// NewStore creates a configuration store on fs, the OS filesystem when nil
func NewStore(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs}
}

// Load reads the file at path and applies environment overrides
func (s *Store) Load(path string) (*Config, error) {
	cfg, err := s.LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFile reads the file at path without environment overrides.
// A missing file yields the defaults.
func (s *Store) LoadFile(path string) (*Config, error) {
	content, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		if err := toml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
	}

	if len(cfg.AddonRepos) == 0 {
		cfg.AddonRepos = []string{catalog.DefaultRepo}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path, creating the directory if needed
func (s *Store) Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return afero.WriteFile(s.fs, path, data, 0644)
}

// ApplyEnv overrides fields from GW2_GAME_DIR and GW2CTL_REPOS
func (c *Config) ApplyEnv() {
	if dir := strings.TrimSpace(os.Getenv(EnvGameDir)); dir != "" {
		c.GamePath = dir
	}
	if raw := os.Getenv(EnvRepos); strings.TrimSpace(raw) != "" {
		var repos []string
		for _, repo := range strings.Split(raw, ",") {
			if repo = strings.TrimSpace(repo); repo != "" {
				repos = append(repos, repo)
			}
		}
		if len(repos) > 0 {
			c.AddonRepos = repos
		}
	}
}

// AddRepo appends a repository URL unless it is already configured
func (c *Config) AddRepo(repo string) error {
	repo = strings.TrimSpace(repo)
	if err := validateRepo(repo); err != nil {
		return err
	}
	for _, existing := range c.AddonRepos {
		if existing == repo {
			return nil
		}
	}
	c.AddonRepos = append(c.AddonRepos, repo)
	return nil
}

// Validate checks every repository is an http(s) URL
func (c *Config) Validate() error {
	for _, repo := range c.AddonRepos {
		if err := validateRepo(repo); err != nil {
			return err
		}
	}
	return nil
}

func validateRepo(repo string) error {
	u, err := url.Parse(repo)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid addon repository URL %q", repo)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
