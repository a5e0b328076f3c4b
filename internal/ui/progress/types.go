package progress

import (
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/gw2ctl/internal/ui/styles"
)

// State represents the current state of a step
type State int

const (
	StatePending State = iota
	StateInProgress
	StateComplete
	StateSkipped
	StateError
)

// Step is one addon of a batch operation
type Step struct {
	Name   string
	State  State
	Detail string // e.g. "already installed"
	Error  error  // Error if State == StateError
}

// Icons - Nerd Font with ASCII fallback
type Icons struct {
	Check   string
	Cross   string
	Pending string
	Spinner string
	Skip    string
}

var (
	// NerdFontIcons uses Nerd Font glyphs
	NerdFontIcons = Icons{
		Check:   "\uf00c",
		Cross:   "\uf00d",
		Pending: "\uf111",
		Spinner: "\uf110",
		Skip:    "\uf068",
	}

	// ASCIIIcons uses simple ASCII characters
	ASCIIIcons = Icons{
		Check:   "+",
		Cross:   "x",
		Pending: "o",
		Spinner: "*",
		Skip:    "-",
	}
)

// GetIcons returns the appropriate icon set based on environment
func GetIcons() Icons {
	if os.Getenv("GW2CTL_NERD_FONTS") == "1" {
		return NerdFontIcons
	}
	return ASCIIIcons
}

// Icon styles
var (
	IconStyleCheck   = lipgloss.NewStyle().Foreground(styles.Success)
	IconStyleCross   = lipgloss.NewStyle().Foreground(styles.Error)
	IconStylePending = lipgloss.NewStyle().Foreground(styles.Muted)
	IconStyleSpinner = lipgloss.NewStyle().Foreground(styles.Primary)
)

// StyledIcon returns a styled icon string for the given state
func StyledIcon(state State) string {
	icons := GetIcons()
	switch state {
	case StateComplete:
		return IconStyleCheck.Render(icons.Check)
	case StateError:
		return IconStyleCross.Render(icons.Cross)
	case StateInProgress:
		return IconStyleSpinner.Render(icons.Spinner)
	case StateSkipped:
		return IconStylePending.Render(icons.Skip)
	default:
		return IconStylePending.Render(icons.Pending)
	}
}

// StepStyle returns the appropriate text style for a step based on state
func StepStyle(state State) lipgloss.Style {
	switch state {
	case StateComplete:
		return styles.SuccessText
	case StateError:
		return styles.ErrorText
	case StateInProgress:
		return styles.NormalText.Bold(true)
	default:
		return styles.MutedText
	}
}

// Progress tracks a batch operation. Steps are appended as the manager
// reaches each addon, since dependencies and dependents join the batch
// while it runs.
type Progress struct {
	Title       string // e.g. "Installing addons"
	Steps       []Step
	SubProgress float64 // 0-100, download progress of the step in progress
}

// NewProgress creates a Progress with the given title and no steps
func NewProgress(title string) *Progress {
	return &Progress{Title: title}
}

// step returns the index of the named step, appending it when new
func (p *Progress) step(name string) int {
	for i := range p.Steps {
		if p.Steps[i].Name == name {
			return i
		}
	}
	p.Steps = append(p.Steps, Step{Name: name, State: StatePending})
	return len(p.Steps) - 1
}

// Start marks the named step as in progress
func (p *Progress) Start(name string) {
	i := p.step(name)
	p.Steps[i].State = StateInProgress
	p.SubProgress = 0
}

// Complete marks the named step as complete
func (p *Progress) Complete(name string) {
	i := p.step(name)
	p.Steps[i].State = StateComplete
	p.Steps[i].Detail = ""
	p.SubProgress = 0
}

// Skip marks the named step as skipped with a reason
func (p *Progress) Skip(name, reason string) {
	i := p.step(name)
	p.Steps[i].State = StateSkipped
	p.Steps[i].Detail = reason
}

// Fail marks every step still in progress as failed
func (p *Progress) Fail(err error) {
	for i := range p.Steps {
		if p.Steps[i].State == StateInProgress {
			p.Steps[i].State = StateError
			p.Steps[i].Error = err
		}
	}
}

// SetSubProgress updates the download percentage of the named step
func (p *Progress) SetSubProgress(name string, percent float64) {
	i := p.step(name)
	if p.Steps[i].State == StatePending {
		p.Steps[i].State = StateInProgress
	}
	p.SubProgress = percent
}

// Current returns the step in progress, if any
func (p *Progress) Current() (Step, bool) {
	for i := len(p.Steps) - 1; i >= 0; i-- {
		if p.Steps[i].State == StateInProgress {
			return p.Steps[i], true
		}
	}
	return Step{}, false
}

// Count returns how many steps are finished, skipped ones included
func (p *Progress) Count() (finished, total int) {
	for _, step := range p.Steps {
		if step.State == StateComplete || step.State == StateSkipped {
			finished++
		}
	}
	return finished, len(p.Steps)
}

// HasError returns true if any step has an error
func (p *Progress) HasError() bool {
	for _, step := range p.Steps {
		if step.State == StateError {
			return true
		}
	}
	return false
}
