// Package banner renders the status display shown when the shell starts.
package banner

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ShellName is shown on the Shell: row.
const ShellName = "GobbleShell"

const artWidth = 25

type artLine struct {
	text  string
	color *color.Color
}

func art() []artLine {
	cyan := color.New(color.FgCyan)
	blue := color.New(color.FgBlue)
	return []artLine{
		{"      ████████", cyan},
		{"    ███      ███", blue},
		{"   ███        ███", blue},
		{"   ███  Gobble ███", color.New(color.FgMagenta, color.Bold)},
		{"   ███        ███", blue},
		{"    ███      ███", blue},
		{"      ████████", cyan},
	}
}

func rows(info Info) [][2]string {
	hrs := int(info.Uptime.Hours())
	mins := int(info.Uptime.Minutes()) % 60

	return [][2]string{
		{" Host:", info.Hostname},
		{" OS:", fmt.Sprintf("%s (kernel %s)", info.OS, info.Kernel)},
		{" Uptime:", fmt.Sprintf("%dh %dm", hrs, mins)},
		{" Shell:", ShellName},
		{" CPU:", info.CPU},
		{" Memory:", fmt.Sprintf("%dMB / %dMB", info.MemUsedMB, info.MemTotalMB)},
		{" Directory:", info.Dir},
	}
}

// Render writes the banner. Colors are only emitted if colorize is set.
func Render(w io.Writer, info Info, colorize bool) error {
	paint := func(c *color.Color, s string) string {
		if !colorize {
			return s
		}
		c.EnableColor()
		return c.Sprint(s)
	}
	label := color.New(color.FgGreen)
	welcome := color.New(color.FgGreen, color.Bold)

	var b strings.Builder
	b.WriteString("\n\n")

	infoRows := rows(info)
	for i, line := range art() {
		padded := fmt.Sprintf("%-*s", artWidth, line.text)
		if i < len(infoRows) {
			fmt.Fprintf(&b, "%s %s %s\n", paint(line.color, padded), paint(label, infoRows[i][0]), infoRows[i][1])
		} else {
			fmt.Fprintln(&b, paint(line.color, line.text))
		}
	}

	b.WriteString("\n")
	b.WriteString(paint(welcome, "Welcome to Gobble Shell!"))
	b.WriteString("\n\n")

	_, err := io.WriteString(w, b.String())
	return err
}
