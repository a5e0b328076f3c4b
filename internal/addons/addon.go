package addons

import (
	"fmt"
	"strings"
)

// InstallMode is how an addon's files are laid out on disk and toggled
type InstallMode int

const (
	// InstallModeBinary is a standalone addon: <addons>/<nickname>/gw2addon_<nickname>.dll
	InstallModeBinary InstallMode = iota
	// InstallModeArc is an ArcDPS plugin living in the shared <addons>/arcdps directory
	InstallModeArc
	// InstallModeLoader is the addon loader itself, a fixed file set under the game root
	InstallModeLoader
)

var installModeNames = map[InstallMode]string{
	InstallModeBinary: "binary",
	InstallModeArc:    "arc",
	InstallModeLoader: "loader",
}

func (m InstallMode) String() string {
	if name, ok := installModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("InstallMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler
func (m InstallMode) MarshalText() ([]byte, error) {
	name, ok := installModeNames[m]
	if !ok {
		return nil, &UnsupportedInstallModeError{Mode: m.String()}
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *InstallMode) UnmarshalText(text []byte) error {
	value := strings.ToLower(string(text))
	for mode, name := range installModeNames {
		if name == value {
			*m = mode
			return nil
		}
	}
	return &UnsupportedInstallModeError{Mode: string(text)}
}

// DownloadType is the shape of an addon's download payload
type DownloadType int

const (
	// DownloadTypeDLL is a single file written as-is into the addon directory
	DownloadTypeDLL DownloadType = iota
	// DownloadTypeArchive is a zip archive extracted into the addon directory
	DownloadTypeArchive
)

func (t DownloadType) String() string {
	switch t {
	case DownloadTypeDLL:
		return "dll"
	case DownloadTypeArchive:
		return "archive"
	}
	return fmt.Sprintf("DownloadType(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler
func (t DownloadType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *DownloadType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "dll":
		*t = DownloadTypeDLL
	case "archive":
		*t = DownloadTypeArchive
	default:
		return fmt.Errorf("unknown download type %q", string(text))
	}
	return nil
}

// HostType is where an addon is published. Informational only.
type HostType string

const (
	HostStandalone HostType = "standalone"
	HostGitHub     HostType = "github"
)

// Addon describes an installable addon as published in a repository manifest.
// Values are treated as immutable once they enter a catalog.
type Addon struct {
	Nickname    string `json:"nickname"`
	AddonName   string `json:"addon_name"` // Display name
	Developer   string `json:"developer"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Tooltip     string `json:"tooltip"`

	HostType   HostType `json:"host_type"`
	HostURL    string   `json:"host_url"`
	VersionURL string   `json:"version_url"`

	DownloadType      DownloadType `json:"download_type"`
	InstallMode       InstallMode  `json:"install_mode"`
	PluginName        string       `json:"plugin_name"`         // Arc plugin file name without extension
	PluginNamePattern string       `json:"plugin_name_pattern"` // Glob used when the exact name is unknown
	DownloadURL       string       `json:"download_url"`

	Files     []string `json:"files"`
	Requires  []string `json:"requires"`
	Conflicts []string `json:"conflicts"`

	VersionID                string `json:"version_id"`
	VersionIDIsHumanReadable bool   `json:"version_id_is_human_readable"`
	SelfUpdate               bool   `json:"self_update"`
}

// Name returns the display name, falling back to the nickname
func (a Addon) Name() string {
	if a.AddonName != "" {
		return a.AddonName
	}
	return a.Nickname
}

// Matches reports whether ref names this addon, by nickname or display name, ignoring case
func (a Addon) Matches(ref string) bool {
	return strings.EqualFold(ref, a.Nickname) || strings.EqualFold(ref, a.AddonName)
}

// DependsOn reports whether a requires other (directly)
func (a Addon) DependsOn(other Addon) bool {
	for _, req := range a.Requires {
		if other.Matches(req) {
			return true
		}
	}
	return false
}

// WithRequirement returns a copy of a whose requires set contains name.
// The requires slice is never shared with the receiver.
func (a Addon) WithRequirement(name string) Addon {
	requires := make([]string, 0, len(a.Requires)+1)
	requires = append(requires, a.Requires...)
	if !containsFold(requires, name) {
		requires = append(requires, name)
	}
	a.Requires = requires
	return a
}

// Normalize replaces nil list fields with empty ones and deduplicates requires/conflicts
func (a Addon) Normalize() Addon {
	a.Files = nonNil(a.Files)
	a.Requires = dedupeFold(a.Requires)
	a.Conflicts = dedupeFold(a.Conflicts)
	return a
}

// State is the derived install state of an addon. It is never stored.
type State int

const (
	StateAbsent State = iota
	StateDisabled
	StateEnabled
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateEnabled:
		return "enabled"
	default:
		return "absent"
	}
}

// Installed reports whether the state is Enabled or Disabled
func (s State) Installed() bool {
	return s != StateAbsent
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func dedupeFold(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		item = strings.TrimSpace(item)
		if item == "" || containsFold(out, item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
