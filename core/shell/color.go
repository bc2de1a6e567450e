package shell

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorPrompt   = []color.Attribute{color.FgBlue, color.Bold}
	ColorError    = []color.Attribute{color.FgRed}
	ColorHint     = []color.Attribute{color.FgYellow}
	ColorFarewell = []color.Attribute{color.FgGreen}
)

// ColorPrinter decides whether shell messages are colorized.
type ColorPrinter struct {
	enabled bool
}

// NewColorPrinter resolves a color setting (always|auto|never), auto colors
// only when out is a terminal.
func NewColorPrinter(mode string, out interface{}) *ColorPrinter {
	switch mode {
	case colorAlways:
		return &ColorPrinter{enabled: true}
	case colorNever:
		return &ColorPrinter{enabled: false}
	default:
		return &ColorPrinter{enabled: isTerminal(out)}
	}
}

func (c *ColorPrinter) ShouldColor() bool {
	return c != nil && c.enabled
}

// Sprintf formats the message, wrapping it in the given attributes if
// coloring is on.
func (c *ColorPrinter) Sprintf(attrs []color.Attribute, format string, a ...interface{}) string {
	if !c.ShouldColor() {
		return fmt.Sprintf(format, a...)
	}

	col := color.New(attrs...)
	col.EnableColor()
	return col.Sprintf(format, a...)
}

func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
