package progress

import (
	"fmt"

	"github.com/bnema/gw2ctl/internal/addons"
	"github.com/bnema/gw2ctl/internal/ui/styles"
)

// PrintComplete prints a completed step
func PrintComplete(message string) {
	fmt.Println(FormatStep(StateComplete, message))
}

// PrintError prints a failed step
func PrintError(message string) {
	fmt.Println(FormatStep(StateError, message))
}

// PrintTitle prints a title/header
func PrintTitle(title string) {
	style := styles.NormalText.Bold(true)
	fmt.Printf("%s\n\n", style.Render(title))
}

// PrintDetail prints an indented detail line
func PrintDetail(detail string) {
	fmt.Printf("      %s\n", styles.MutedText.Render(detail))
}

// PrintNewline prints an empty line
func PrintNewline() {
	fmt.Println()
}

// FormatStep returns a step line with the icon and style of its state
func FormatStep(state State, message string) string {
	return fmt.Sprintf("  %s %s", StyledIcon(state), StepStyle(state).Render(message))
}

// FormatCount formats a progress count like "3/12"
func FormatCount(current, total int) string {
	return fmt.Sprintf("%d/%d", current, total)
}

// FormatAddonLine formats a line like "+ ArcDPS enabled [binary]"
func FormatAddonLine(name string, state addons.State, mode addons.InstallMode) string {
	stepState := StatePending
	switch state {
	case addons.StateEnabled:
		stepState = StateComplete
	case addons.StateDisabled:
		stepState = StateSkipped
	}
	return fmt.Sprintf("  %s %s %s %s",
		StyledIcon(stepState),
		styles.NormalText.Bold(true).Render(name),
		styles.FormatState(state),
		styles.FormatMode(mode),
	)
}
