package renderer

import (
	"fmt"

	"github.com/dustin/go-humanize"
	fcolor "github.com/fatih/color"

	"manus/internal/builder"
)

const (
	symActivity = "► "
	symSuccess  = "✔ "
	symWarning  = "⚠ "
	symInfo     = "ℹ "
	symGenerate = "✚ "
)

func (r *Renderer) line(c *fcolor.Color, symbol, format string, args ...any) {
	_, _ = c.Fprintf(r.errw, "%s%s\n", symbol, fmt.Sprintf(format, args...))
}

// Thinking announces the start of a completion.
func (r *Renderer) Thinking(model string) {
	_, _ = r.paint(fcolor.Faint).Fprintf(r.errw, "--- Manus (%s) is thinking... ---\n", model)
}

// Done closes a streamed response.
func (r *Renderer) Done() {
	_, _ = r.paint(fcolor.Faint).Fprintf(r.errw, "\n--- End of Manus response ---\n")
}

// Scanned reports what a scan gathered.
func (r *Renderer) Scanned(res builder.Result, tokens int) {
	r.line(r.paint(fcolor.Reset), symActivity, "gathered %d files (%s, ~%s tokens)",
		len(res.Manifest), humanize.Bytes(uint64(res.Bytes)), humanize.Comma(int64(tokens)))
	if len(res.Dropped) > 0 {
		r.line(r.paint(fcolor.FgYellow), symWarning, "dropped %d files over the context budget", len(res.Dropped))
		for _, p := range res.Dropped {
			r.line(r.paint(fcolor.FgYellow), "  ", "%s", p)
		}
	}
}

// Created reports a file written by init.
func (r *Renderer) Created(path string) {
	r.line(r.paint(fcolor.Reset), symGenerate, "created %s", path)
}

func (r *Renderer) Success(format string, args ...any) {
	r.line(r.paint(fcolor.FgGreen), symSuccess, format, args...)
}

func (r *Renderer) Warning(format string, args ...any) {
	r.line(r.paint(fcolor.FgYellow), symWarning, format, args...)
}

func (r *Renderer) Info(format string, args ...any) {
	r.line(r.paint(fcolor.FgBlue), symInfo, format, args...)
}
