package catalog

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/bnema/gw2ctl/internal/addons"
)

// DefaultRepo is the community addon repository
const DefaultRepo = "https://gw2-addon-loader.github.io/addon-repo/addons.json"

// Loader descriptor constants. The loader is never published as a manifest
// addon; it is synthesized from the manifest's loader section.
const (
	LoaderNickname  = "addon-loader"
	LoaderName      = "Addon Loader"
	LoaderDeveloper = "gw2 addon loader contributors"
	LoaderWebsite   = "https://github.com/gw2-addon-loader/loader-core"
)

// Catalog is the merged view of every configured addon repository.
// Entries are keyed by lowercased nickname, the loader by its display name.
type Catalog struct {
	fetcher *Fetcher
	logger  *log.Logger

	mu      sync.RWMutex
	addons  map[string]addons.Addon
	loader  *LoaderInfo
	manager *ManagerInfo
}

// New creates an empty catalog fetching manifests through fetcher
func New(fetcher *Fetcher, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Catalog{
		fetcher: fetcher,
		logger:  logger,
		addons:  make(map[string]addons.Addon),
	}
}

// Refresh fetches each source in order and merges it into the catalog.
// A source is parsed completely before anything from it is applied; when a
// source fails, sources before it stay merged and the rest are not fetched.
// Refresh augments the catalog, it never clears entries from earlier calls.
func (c *Catalog) Refresh(ctx context.Context, sources []string) error {
	for _, source := range sources {
		c.logger.Info("Refreshing addon repository", "url", source)

		data, err := c.fetcher.Fetch(ctx, source)
		if err != nil {
			return &FetchError{Source: source, Err: err}
		}

		manifest, err := ParseManifest(data)
		if err != nil {
			return &FetchError{Source: source, Err: err}
		}

		c.Merge(manifest)
		c.logger.Info("Merged addon repository", "url", source, "addons", len(manifest.Addons))
	}
	return nil
}

// Merge applies one parsed manifest.
//
// An addon already in the catalog is replaced only when the incoming version
// id is greater by plain string comparison, so "10" sorts before "9". The
// loader and manager info of the manifest replace the current ones. Every
// non-loader addon then requires the loader, which is (re)inserted last.
func (c *Catalog) Merge(manifest *Manifest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, incoming := range manifest.Addons {
		k := strings.ToLower(key)
		existing, ok := c.addons[k]
		if !ok || incoming.VersionID > existing.VersionID {
			c.addons[k] = incoming
		} else {
			c.logger.Debug("Keeping existing addon version",
				"addon", incoming.Name(), "existing", existing.VersionID, "incoming", incoming.VersionID)
		}
	}

	c.loader = manifest.Loader
	c.manager = manifest.Manager

	loader := LoaderAddon(c.loader)
	for k, addon := range c.addons {
		if addon.InstallMode == addons.InstallModeLoader {
			continue
		}
		c.addons[k] = addon.WithRequirement(loader.Name())
	}
	c.addons[strings.ToLower(loader.Name())] = loader
}

// LoaderAddon synthesizes the loader descriptor from a manifest's loader section
func LoaderAddon(info *LoaderInfo) addons.Addon {
	loader := addons.Addon{
		Nickname:     LoaderNickname,
		AddonName:    LoaderName,
		Developer:    LoaderDeveloper,
		Website:      LoaderWebsite,
		HostType:     addons.HostGitHub,
		HostURL:      LoaderWebsite + "/releases/latest",
		DownloadType: addons.DownloadTypeArchive,
		InstallMode:  addons.InstallModeLoader,
	}
	if info != nil {
		loader.VersionID = info.VersionID
		loader.DownloadURL = info.DownloadURL
	}
	return loader.Normalize()
}

// Lookup finds an addon by key, nickname or display name, ignoring case
func (c *Catalog) Lookup(name string) (addons.Addon, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if addon, ok := c.addons[strings.ToLower(name)]; ok {
		return addon, true
	}
	for _, key := range c.sortedKeys() {
		if addon := c.addons[key]; addon.Matches(name) {
			return addon, true
		}
	}
	return addons.Addon{}, false
}

// Addons returns every addon sorted by catalog key
func (c *Catalog) Addons() []addons.Addon {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := c.sortedKeys()
	out := make([]addons.Addon, 0, len(keys))
	for _, key := range keys {
		out = append(out, c.addons[key])
	}
	return out
}

// Len returns the number of catalog entries, loader included
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.addons)
}

// Loader returns the loader info of the last merged manifest
func (c *Catalog) Loader() (LoaderInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loader == nil {
		return LoaderInfo{}, false
	}
	return *c.loader, true
}

// Manager returns the manager release info of the last merged manifest
func (c *Catalog) Manager() (ManagerInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.manager == nil {
		return ManagerInfo{}, false
	}
	return *c.manager, true
}

// sortedKeys requires c.mu to be held
func (c *Catalog) sortedKeys() []string {
	keys := make([]string, 0, len(c.addons))
	for key := range c.addons {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
