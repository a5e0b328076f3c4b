// Package prompt asks the user to confirm destructive operations.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/bnema/gw2ctl/internal/ui/styles"
)

// Confirmer answers yes/no questions
type Confirmer interface {
	Confirm(title, message string) bool
}

// Always answers every question with the same value, e.g. for --yes
type Always bool

// Confirm implements Confirmer
func (a Always) Confirm(string, string) bool {
	return bool(a)
}

// StdinConfirmer reads answers from a terminal. Without a terminal every
// question is answered no, so scripts must pass --yes explicitly.
type StdinConfirmer struct {
	in          io.Reader
	out         io.Writer
	scanner     *bufio.Scanner
	interactive bool
}

// NewStdinConfirmer creates a confirmer on stdin/stdout
func NewStdinConfirmer() *StdinConfirmer {
	return NewConfirmerWithIO(os.Stdin, os.Stdout, IsTerminal())
}

// NewConfirmerWithIO creates a confirmer with custom input/output (for testing)
func NewConfirmerWithIO(in io.Reader, out io.Writer, interactive bool) *StdinConfirmer {
	return &StdinConfirmer{
		in:          in,
		out:         out,
		scanner:     bufio.NewScanner(in),
		interactive: interactive,
	}
}

// IsTerminal checks if stdin is a terminal (TTY)
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Confirm implements Confirmer
func (c *StdinConfirmer) Confirm(title, message string) bool {
	if !c.interactive {
		_, _ = fmt.Fprintln(c.out, styles.WarningText.Render(title+": not a terminal, use --yes to confirm"))
		return false
	}

	_, _ = fmt.Fprintln(c.out, styles.Title.Render(title))
	_, _ = fmt.Fprintf(c.out, "%s [y/N] ", message)

	if !c.scanner.Scan() {
		return false
	}

	input := strings.ToLower(strings.TrimSpace(c.scanner.Text()))
	return input == "y" || input == "yes"
}
