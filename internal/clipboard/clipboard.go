package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"

	"manus/internal/model"
)

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("clipboard is not supported on this system")

// Writer puts text on a clipboard.
type Writer interface {
	WriteAll(text string) error
}

// System is the OS clipboard.
type System struct{}

func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// Format renders a payload as one pasteable document: the system prompt
// followed by the user message.
func Format(p model.Payload) string {
	if p.SystemMessage == "" {
		return p.UserMessage
	}
	return p.SystemMessage + "\n\n" + p.UserMessage
}

// Copy places the payload on w.
func Copy(w Writer, p model.Payload) error {
	if err := w.WriteAll(Format(p)); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
