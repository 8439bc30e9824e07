package renderer

import (
	"strings"

	fcolor "github.com/fatih/color"
)

// Error prints err to the status writer. Multi-line messages are indented
// under the first line.
func (r *Renderer) Error(err error) {
	if err == nil {
		return
	}
	msg := strings.ReplaceAll(err.Error(), "\n", "\n  ")
	r.line(r.paint(fcolor.FgRed), "✗ ", "%s", msg)
}
