package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/gw2ctl/internal/addons"
)

// Color palette - coherent with charmbracelet style
var (
	Primary   = lipgloss.Color("#7D56F4") // Purple (charmbracelet brand)
	Secondary = lipgloss.Color("#FF79C6") // Pink accent
	Success   = lipgloss.Color("#50FA7B") // Green
	Warning   = lipgloss.Color("#FFB86C") // Orange
	Error     = lipgloss.Color("#FF5555") // Red
	Muted     = lipgloss.Color("#6272A4") // Muted blue-gray
	Text      = lipgloss.Color("#F8F8F2") // Light text
	Subtle    = lipgloss.Color("#44475A") // Dark background accent
)

// Base styles
var (
	// Title style for headers
	Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFDF5")).
		Background(Primary).
		Padding(0, 1).
		Bold(true)

	// Subtitle style
	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Normal text
	NormalText = lipgloss.NewStyle().
			Foreground(Text)

	// Muted text
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)

	// Success text
	SuccessText = lipgloss.NewStyle().
			Foreground(Success)

	// Warning text
	WarningText = lipgloss.NewStyle().
			Foreground(Warning)

	// Error text
	ErrorText = lipgloss.NewStyle().
			Foreground(Error)

	// Selected item
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// Highlighted (focused)
	Highlighted = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// App container
	App = lipgloss.NewStyle().
		Padding(1, 2)

	// Box border
	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Subtle).
		Padding(0, 1)

	// Status bar
	StatusBar = lipgloss.NewStyle().
			Foreground(Text).
			Background(Subtle).
			Padding(0, 1)

	// Help text
	Help = lipgloss.NewStyle().
		Foreground(Muted)

	// Spinner
	Spinner = lipgloss.NewStyle().
		Foreground(Primary)
)

// Symbols
var (
	CheckMark = lipgloss.NewStyle().Foreground(Success).SetString("✓")
	CrossMark = lipgloss.NewStyle().Foreground(Error).SetString("✗")
	Bullet    = lipgloss.NewStyle().Foreground(Primary).SetString("•")
	Arrow     = lipgloss.NewStyle().Foreground(Primary).SetString("→")
)

// Addon list styles
var (
	AddonName = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	AddonVersion = lipgloss.NewStyle().
			Foreground(Muted)

	AddonAuthor = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	StateEnabled = lipgloss.NewStyle().
			Foreground(Success)

	StateDisabled = lipgloss.NewStyle().
			Foreground(Warning)

	StateAbsent = lipgloss.NewStyle().
			Foreground(Muted)

	// ModeBadge for the install mode (binary, arc, loader)
	ModeBadge = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)
)

// FormatState returns a styled install state
func FormatState(state addons.State) string {
	switch state {
	case addons.StateEnabled:
		return StateEnabled.Render("enabled")
	case addons.StateDisabled:
		return StateDisabled.Render("disabled")
	default:
		return StateAbsent.Render("not installed")
	}
}

// FormatMode returns a styled install mode badge
func FormatMode(mode addons.InstallMode) string {
	return ModeBadge.Render("[" + mode.String() + "]")
}

// FormatVersion formats a version id, empty when unknown
func FormatVersion(version string) string {
	if version == "" {
		return ""
	}
	return AddonVersion.Render(version)
}

// FormatSuccess formats a success message
func FormatSuccess(msg string) string {
	return CheckMark.String() + " " + SuccessText.Render(msg)
}

// FormatError formats an error message
func FormatError(msg string) string {
	return CrossMark.String() + " " + ErrorText.Render(msg)
}

// FormatWarning formats a warning message
func FormatWarning(msg string) string {
	return WarningText.Render("! " + msg)
}
