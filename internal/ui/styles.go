package ui

import (
	"fmt"

	"github.com/alfredjeanlab/history/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorPass   = 114 // green
	colorWarn   = 179 // amber
	colorFail   = 203 // red
)

var noColor bool

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderGate colors a gate state: open is green, any pending prompt amber.
func RenderGate(s model.GateState) string {
	if s == model.GateOpen {
		return render(colorPass, s.String())
	}
	return render(colorWarn, s.String())
}

// RenderSeverity colors a notification severity.
func RenderSeverity(s model.Severity) string {
	switch s {
	case model.SeveritySuccess:
		return render(colorPass, string(s))
	case model.SeverityError:
		return render(colorFail, string(s))
	}
	return render(colorAccent, string(s))
}

// RenderStatus colors a research task status.
func RenderStatus(s model.TaskStatus) string {
	switch s {
	case model.TaskCompleted:
		return render(colorPass, string(s))
	case model.TaskFailed:
		return render(colorFail, string(s))
	case model.TaskRunning:
		return render(colorAccent, string(s))
	}
	return render(colorMuted, string(s))
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
