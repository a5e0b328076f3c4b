package progress

import (
	"context"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/gw2ctl/internal/addons"
)

// Reporter forwards addon manager events to a bubbletea program
type Reporter struct {
	send func(tea.Msg)

	mu          sync.Mutex
	lastAddon   string
	lastPercent float64
}

// NewReporter creates a reporter sending messages through send, usually
// (*tea.Program).Send
func NewReporter(send func(tea.Msg)) *Reporter {
	return &Reporter{send: send}
}

// Report implements the manager's progress callback
func (r *Reporter) Report(event addons.Progress) {
	r.mu.Lock()
	if event.Phase == addons.PhaseDownloading {
		percent := event.Fraction * 100
		// Only send updates every 1% to avoid flooding
		if event.Addon == r.lastAddon && percent-r.lastPercent < 1 && percent < 100 {
			r.mu.Unlock()
			return
		}
		r.lastPercent = percent
	} else {
		r.lastPercent = 0
	}
	r.lastAddon = event.Addon
	r.mu.Unlock()

	r.send(EventMsg(event))
}

// LineReporter prints one line per finished or skipped addon to w. It is
// the plain output used when stdout is not a terminal.
func LineReporter(w io.Writer) func(addons.Progress) {
	return func(event addons.Progress) {
		switch event.Phase {
		case addons.PhaseDone:
			_, _ = fmt.Fprintln(w, FormatStep(StateComplete, event.Addon))
		case addons.PhaseSkipped:
			_, _ = fmt.Fprintln(w, FormatStep(StateSkipped, event.Addon+" (nothing to do)"))
		}
	}
}

// Operation is a batch operation reporting its progress through report
type Operation func(ctx context.Context, report func(addons.Progress)) error

// Run executes op behind a progress display. With interactive false the
// steps are printed line by line to out instead.
func Run(ctx context.Context, title string, interactive bool, out io.Writer, op Operation) error {
	if !interactive {
		PrintTitle(title)
		return op(ctx, LineReporter(out))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, cancel), tea.WithOutput(out))
	reporter := NewReporter(p.Send)

	finished := make(chan error, 1)
	go func() {
		err := op(ctx, reporter.Report)
		p.Send(DoneMsg{Err: err})
		finished <- err
	}()

	finalModel, runErr := p.Run()
	cancel()
	opErr := <-finished

	if runErr != nil {
		return runErr
	}
	if fm, ok := finalModel.(Model); ok && fm.Cancelled() {
		return context.Canceled
	}
	return opErr
}
