package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/gw2ctl/internal/addons"
	"github.com/bnema/gw2ctl/internal/ui/styles"
)

// Model is the bubbletea model for a batch operation on addons
type Model struct {
	progress    *Progress
	spinner     spinner.Model
	progressBar progress.Model
	cancel      func()
	done        bool
	cancelled   bool
	err         error
	width       int
}

// NewModel creates a new progress model. cancel, when set, is called if the
// user quits before the operation is done.
func NewModel(title string, cancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return Model{
		progress:    NewProgress(title),
		spinner:     s,
		progressBar: p,
		cancel:      cancel,
		width:       80,
	}
}

// Progress messages for updating state
type (
	// EventMsg carries one progress event of the addon manager
	EventMsg addons.Progress

	// DoneMsg signals the entire operation is complete
	DoneMsg struct{ Err error }
)

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			m.cancelled = !m.done
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = minInt(msg.Width-10, 40)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd

	case EventMsg:
		cmd := m.apply(addons.Progress(msg))
		return m, cmd

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		if msg.Err != nil {
			m.progress.Fail(msg.Err)
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) apply(event addons.Progress) tea.Cmd {
	switch event.Phase {
	case addons.PhaseStarted:
		m.progress.Start(event.Addon)
		return m.progressBar.SetPercent(0)
	case addons.PhaseDownloading:
		m.progress.SetSubProgress(event.Addon, event.Fraction*100)
		return m.progressBar.SetPercent(event.Fraction)
	case addons.PhaseSkipped:
		m.progress.Skip(event.Addon, "nothing to do")
	case addons.PhaseDone:
		m.progress.Complete(event.Addon)
	}
	return nil
}

// View renders the progress display
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Text).
		Bold(true).
		MarginBottom(1)
	title := m.progress.Title
	if finished, total := m.progress.Count(); total > 0 {
		title += " " + styles.MutedText.Render(FormatCount(finished, total))
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	indent := "  "
	for _, step := range m.progress.Steps {
		icon := StyledIcon(step.State)
		textStyle := StepStyle(step.State)

		if step.State == StateInProgress {
			icon = m.spinner.View()
		}

		line := fmt.Sprintf("%s%s %s", indent, icon, textStyle.Render(step.Name))
		b.WriteString(line)

		if step.Detail != "" && step.State != StateComplete {
			detailStyle := lipgloss.NewStyle().Foreground(styles.Muted)
			b.WriteString(detailStyle.Render(" - " + step.Detail))
		}
		b.WriteString("\n")

		if step.State == StateInProgress && m.progress.SubProgress > 0 {
			b.WriteString(indent + "  " + m.progressBar.View() + "\n")
		}

		if step.State == StateError && step.Error != nil {
			b.WriteString(indent + "    " + styles.ErrorText.Render(step.Error.Error()) + "\n")
		}
	}

	if len(m.progress.Steps) == 0 && !m.done {
		b.WriteString(indent + m.spinner.View() + " " + styles.MutedText.Render("Preparing...") + "\n")
	}

	b.WriteString("\n")

	return b.String()
}

// GetError returns any error that occurred
func (m Model) GetError() error {
	return m.err
}

// IsDone returns true if the operation is complete
func (m Model) IsDone() bool {
	return m.done
}

// Cancelled returns true if the user quit before the operation was done
func (m Model) Cancelled() bool {
	return m.cancelled
}

// GetProgress returns the underlying progress state
func (m Model) GetProgress() *Progress {
	return m.progress
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
