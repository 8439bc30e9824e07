package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown writes text to the response writer, styled with glamour when
// the writer is a terminal and verbatim otherwise.
func (r *Renderer) Markdown(text string) error {
	if !r.tty {
		return writeRaw(r.out, text)
	}

	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return writeRaw(r.out, text)
	}
	styled, err := tr.Render(text)
	if err != nil {
		return writeRaw(r.out, text)
	}
	_, err = io.WriteString(r.out, styled)
	return err
}

func writeRaw(w io.Writer, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
