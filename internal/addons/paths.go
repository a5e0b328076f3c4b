package addons

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// AddonPrefix prefixes the DLL of every standalone addon
	AddonPrefix = "gw2addon_"
	// ArcDPSFolder is the shared directory of all ArcDPS plugins
	ArcDPSFolder = "arcdps"

	EnabledExtension  = ".dll"
	DisabledExtension = ".dll_disabled"
)

// LoaderFiles returns the files whose joint presence means the loader is installed
func LoaderFiles(gameDir string) []string {
	return []string{
		filepath.Join(gameDir, "addonLoader.dll"),
		filepath.Join(gameDir, "dxgi.dll"),
		filepath.Join(gameDir, "d3d11.dll"),
		filepath.Join(gameDir, "bin64", "d3d9.dll"),
	}
}

// GameDir returns the game install root
func (m *Manager) GameDir() string {
	return m.gameDir
}

// AddonsDir returns <game>/addons
func (m *Manager) AddonsDir() string {
	return m.addonsDir
}

// AddonDirectory returns the directory holding an addon's files.
// It never touches the filesystem.
func (m *Manager) AddonDirectory(addon Addon) (string, error) {
	switch addon.InstallMode {
	case InstallModeBinary:
		return filepath.Join(m.addonsDir, addon.Nickname), nil
	case InstallModeArc:
		return filepath.Join(m.addonsDir, ArcDPSFolder), nil
	case InstallModeLoader:
		return m.gameDir, nil
	}
	return "", &UnsupportedInstallModeError{Mode: addon.InstallMode.String()}
}

// AddonPath returns the artifact path of an addon in its enabled or disabled form.
//
// Arc plugins are named inconsistently upstream, so when the exact plugin file is
// absent the lookup falls back to the file name of the download URL and then to
// the plugin name pattern. An empty path means nothing matched, and is always
// returned for the loader, which has no single artifact.
func (m *Manager) AddonPath(addon Addon, enabled bool) (string, error) {
	dir, err := m.AddonDirectory(addon)
	if err != nil {
		return "", err
	}
	ext := extensionFor(enabled)

	switch addon.InstallMode {
	case InstallModeBinary:
		return filepath.Join(dir, AddonPrefix+addon.Nickname+ext), nil
	case InstallModeArc:
		return m.arcPluginPath(addon, dir, ext), nil
	case InstallModeLoader:
		return "", nil
	}
	return "", &UnsupportedInstallModeError{Mode: addon.InstallMode.String()}
}

func (m *Manager) arcPluginPath(addon Addon, dir, ext string) string {
	// A blank plugin name has no exact candidate and goes straight to the fallbacks
	exact := ""
	if strings.TrimSpace(addon.PluginName) != "" {
		exact = filepath.Join(dir, addon.PluginName+ext)
	}
	if !m.dirExists(dir) {
		return exact
	}

	if exact != "" && m.fileExists(exact) {
		return exact
	}

	if name := FilenameFromURL(addon.DownloadURL); name != "" {
		fromURL := filepath.Join(dir, changeExtension(name, ext))
		if m.fileExists(fromURL) {
			return fromURL
		}
	}

	if addon.PluginNamePattern == "" {
		return ""
	}
	matches, err := afero.Glob(m.fs, filepath.Join(dir, addon.PluginNamePattern+ext))
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// FilenameFromURL returns the last path segment of a download URL
func FilenameFromURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

func extensionFor(enabled bool) string {
	if enabled {
		return EnabledExtension
	}
	return DisabledExtension
}

// changeExtension swaps the extension of p, e.g. foo.dll -> foo.dll_disabled
func changeExtension(p, ext string) string {
	return strings.TrimSuffix(p, filepath.Ext(p)) + ext
}

func (m *Manager) fileExists(p string) bool {
	if p == "" {
		return false
	}
	info, err := m.fs.Stat(p)
	return err == nil && !info.IsDir()
}

func (m *Manager) dirExists(p string) bool {
	ok, err := afero.DirExists(m.fs, p)
	return err == nil && ok
}
