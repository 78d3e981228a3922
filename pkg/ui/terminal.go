package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Logo is printed above interactive commands
const Logo = `
   ┌─┐┌─┐ ┬ ┬┌─┐┬─┐┬  ┬┌─┐┌─┐┌┬┐
   ││ ┬  ├─┤├─┤├┬┘└┐┌┘├┤ └─┐ │
   ┴└─┘  ┴ ┴┴ ┴┴└─ └┘ └─┘└─┘ ┴   carousel media collector
`

// Palette helpers. lipgloss drops the escape codes when the output is not a
// terminal or NO_COLOR is set.
var (
	Cyan    = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("6")))
	Yellow  = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("3")))
	Red     = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("1")))
	Green   = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("2")))
	Magenta = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("5")))
	Dim     = paint(lipgloss.NewStyle().Faint(true))
)

// Stdout and Stderr are where the Print helpers write
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

func paint(s lipgloss.Style) func(string) string {
	return func(text string) string { return s.Render(text) }
}

func withDetail(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, args[0])
}

// PrintLogo prints the logo
func PrintLogo() {
	fmt.Fprint(Stdout, Magenta(Logo))
}

// PrintError prints msg and an optional detail to stderr
func PrintError(msg string, args ...interface{}) {
	fmt.Fprintln(Stderr, Red(withDetail(msg, args)))
}

func PrintSuccess(msg string) {
	fmt.Fprintln(Stdout, Green(msg))
}

// PrintInfo prints a "label: value" line
func PrintInfo(label string, value string) {
	fmt.Fprintf(Stdout, "%s: %s\n", Cyan(label), value)
}

func PrintWarning(msg string, args ...interface{}) {
	fmt.Fprintln(Stdout, Yellow(withDetail(msg, args)))
}

func PrintHighlight(msg string) {
	fmt.Fprintln(Stdout, Magenta(msg))
}

// IsTerminal reports whether stdout is an interactive terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
