// Package llm defines the contract between the context engine and a
// completion backend: the request shape, the streamed chunk sequence, the
// credential lookup and the relay that forwards chunks to the terminal.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Request is what a completion backend receives.
type Request struct {
	Model         string
	SystemMessage string
	UserMessage   string
}

// Client produces a lazy, finite sequence of text chunks for a request.
// The sequence is consumed once; breaking out of it ends the call.
type Client interface {
	Stream(ctx context.Context, req Request) iter.Seq2[string, error]
}

// CompletionError wraps a failed completion call.
type CompletionError struct {
	Provider string
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

type flusher interface {
	Flush() error
}

// Relay forwards chunks to w in arrival order until the sequence ends, an
// error is yielded or ctx is cancelled. It returns the number of bytes written.
// Cancellation is returned as ctx.Err(); other stream errors as CompletionError.
func Relay(ctx context.Context, provider string, chunks iter.Seq2[string, error], w io.Writer) (int64, error) {
	var n int64
	for chunk, err := range chunks {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n, ctxErr
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return n, ctxErr
				}
			}
			return n, &CompletionError{Provider: provider, Err: err}
		}
		if chunk == "" {
			continue
		}
		written, err := io.WriteString(w, chunk)
		n += int64(written)
		if err != nil {
			return n, fmt.Errorf("write response: %w", err)
		}
		if f, ok := w.(flusher); ok {
			_ = f.Flush()
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return n, ctxErr
	}
	return n, nil
}

// Collect drains a chunk sequence into a string.
func Collect(ctx context.Context, provider string, chunks iter.Seq2[string, error]) (string, error) {
	var b strings.Builder
	_, err := Relay(ctx, provider, chunks, &b)
	return b.String(), err
}
