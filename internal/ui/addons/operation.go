package addons

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/gw2ctl/internal/addons"
	uiprogress "github.com/bnema/gw2ctl/internal/ui/progress"
	"github.com/bnema/gw2ctl/internal/ui/styles"
)

// operation is a batch operation started from the browser
type operation int

const (
	opInstall operation = iota
	opDelete
	opEnable
	opDisable
)

func (o operation) title() string {
	switch o {
	case opDelete:
		return "Remove Addon"
	case opEnable:
		return "Enable Addon"
	case opDisable:
		return "Disable Addon"
	default:
		return "Install Addon"
	}
}

func (o operation) question() string {
	switch o {
	case opDelete:
		return "Are you sure you want to remove"
	case opEnable:
		return "Enable"
	case opDisable:
		return "Disable"
	default:
		return "Install"
	}
}

func (o operation) summary(names []string) string {
	verb := map[operation]string{
		opInstall: "installed",
		opDelete:  "removed",
		opEnable:  "enabled",
		opDisable: "disabled",
	}[o]
	return fmt.Sprintf("%s %s", strings.Join(names, ", "), verb)
}

// Messages
type (
	progressEventMsg struct {
		event  addons.Progress
		events <-chan addons.Progress
	}

	operationDoneMsg struct {
		op    operation
		names []string
		err   error
	}
)

// startOperation switches to the progress view and runs op on targets
func (m Model) startOperation(op operation, targets ...addons.Addon) (tea.Model, tea.Cmd) {
	events := make(chan addons.Progress, 64)
	m.state = viewProgress
	m.progress = uiprogress.NewProgress(op.title())
	m.statusMsg = ""
	m.errorMsg = ""
	return m, tea.Batch(m.runOperation(op, targets, events), waitForEvent(events))
}

// runOperation returns a command running op to completion. Progress events
// go to events, which is closed when the operation returns.
func (m Model) runOperation(op operation, targets []addons.Addon, events chan<- addons.Progress) tea.Cmd {
	manager := m.manager.WithProgress(func(p addons.Progress) {
		events <- p
	})

	return func() tea.Msg {
		defer close(events)

		var err error
		switch op {
		case opInstall:
			err = manager.Install(m.ctx, targets)
		case opDelete:
			err = manager.Delete(m.ctx, targets)
		case opEnable:
			err = manager.Enable(m.ctx, targets)
		case opDisable:
			err = manager.Disable(m.ctx, targets)
		}

		names := make([]string, 0, len(targets))
		for _, t := range targets {
			names = append(names, t.Name())
		}
		return operationDoneMsg{op: op, names: names, err: err}
	}
}

// waitForEvent blocks on the next progress event of a running operation
func waitForEvent(events <-chan addons.Progress) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return progressEventMsg{event: event, events: events}
	}
}

func applyEvent(p *uiprogress.Progress, event addons.Progress) {
	switch event.Phase {
	case addons.PhaseStarted:
		p.Start(event.Addon)
	case addons.PhaseDownloading:
		p.SetSubProgress(event.Addon, event.Fraction*100)
	case addons.PhaseSkipped:
		p.Skip(event.Addon, "nothing to do")
	case addons.PhaseDone:
		p.Complete(event.Addon)
	}
}

func (m Model) viewProgress() string {
	var b strings.Builder

	if m.progress == nil {
		return m.spinner.View() + " Working..."
	}

	b.WriteString(styles.Title.Render(m.progress.Title))
	b.WriteString("\n\n")

	indent := "  "
	for _, step := range m.progress.Steps {
		icon := uiprogress.StyledIcon(step.State)
		textStyle := uiprogress.StepStyle(step.State)

		if step.State == uiprogress.StateInProgress {
			icon = m.spinner.View()
		}

		line := fmt.Sprintf("%s%s %s", indent, icon, textStyle.Render(step.Name))
		b.WriteString(line)

		if step.State == uiprogress.StateInProgress && m.progress.SubProgress > 0 {
			b.WriteString(styles.MutedText.Render(fmt.Sprintf(" %3.0f%%", m.progress.SubProgress)))
		}
		b.WriteString("\n")
	}

	if len(m.progress.Steps) == 0 {
		b.WriteString(indent + m.spinner.View() + " " + styles.MutedText.Render("Preparing...") + "\n")
	}

	return b.String()
}
