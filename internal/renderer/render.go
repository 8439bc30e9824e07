package renderer

import (
	"io"
	"os"

	fcolor "github.com/fatih/color"
	"golang.org/x/term"
)

const defaultWidth = 80

// Renderer writes the response to out and every status line to errw, so
// that stdout stays clean when piped.
type Renderer struct {
	out   io.Writer
	errw  io.Writer
	color bool
	tty   bool
	width int
}

// New returns a renderer over out and errw. Color and markdown styling are
// only enabled when the respective writer is a terminal.
func New(out, errw io.Writer) *Renderer {
	r := &Renderer{out: out, errw: errw, width: defaultWidth}
	if fd, ok := fileDescriptor(out); ok && term.IsTerminal(fd) {
		r.tty = true
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			r.width = w
		}
	}
	if fd, ok := fileDescriptor(errw); ok && term.IsTerminal(fd) {
		r.color = os.Getenv("NO_COLOR") == ""
	}
	return r
}

func fileDescriptor(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	return int(f.Fd()), true
}

// Out is the response writer.
func (r *Renderer) Out() io.Writer { return r.out }

// SetColor overrides terminal detection for status output.
func (r *Renderer) SetColor(on bool) { r.color = on }

func (r *Renderer) paint(attrs ...fcolor.Attribute) *fcolor.Color {
	c := fcolor.New(attrs...)
	if r.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
