package renderer

import (
	"io"
	"strings"

	fcolor "github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff shows how the default content of path differs from what exists on
// disk. Deletions are red and insertions green; without color they are
// marked [-like this-] and {+like this+}.
func (r *Renderer) Diff(path string, existing, proposed []byte) {
	header := r.paint(fcolor.Bold)
	_, _ = header.Fprintf(r.errw, "--- %s (existing)\n+++ %s (default)\n", path, path)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(existing), string(proposed), false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	added := r.paint(fcolor.FgGreen)
	deleted := r.paint(fcolor.FgRed)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			if r.color {
				b.WriteString(added.Sprint(d.Text))
			} else {
				b.WriteString("{+" + d.Text + "+}")
			}
		case diffmatchpatch.DiffDelete:
			if r.color {
				b.WriteString(deleted.Sprint(d.Text))
			} else {
				b.WriteString("[-" + d.Text + "-]")
			}
		default:
			b.WriteString(d.Text)
		}
	}
	out := b.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, _ = io.WriteString(r.errw, out)
}
