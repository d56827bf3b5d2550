package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	envNoColor = "NO_COLOR"
	envCI      = "CI"
	envTerm    = "TERM"
)

// Configure selects the color profile. Styling is disabled when
// noColor is set, under CI, with NO_COLOR, or on a dumb terminal.
func Configure(noColor bool) {
	if noColor || envTruthy(envNoColor) || envTruthy(envCI) || dumbTerm() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.ColorProfile())
}

func dumbTerm() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(envTerm)), "dumb")
}

func envTruthy(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	return v != "" && v != "0" && !strings.EqualFold(v, "false")
}
