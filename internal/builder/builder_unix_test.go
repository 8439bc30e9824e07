//go:build unix

package builder

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSkipsNamedPipes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a"})
	require.NoError(t, syscall.Mkfifo(filepath.Join(root, "pipe"), 0o644))
	require.NoError(t, syscall.Mkfifo(filepath.Join(root, "target.fifo"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(root, "target.fifo"), filepath.Join(root, "via-link")))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		res, err := NewScanner(Options{}).Scan(ctx, root, nil)
		assert.NoError(t, err)
		done <- res
	}()

	select {
	case res := <-done:
		assert.Equal(t, []string{"a.txt"}, res.Manifest.Paths())
		reasons := map[string]string{}
		for _, w := range res.Warnings {
			reasons[w.Path] = w.Reason
		}
		assert.Equal(t, map[string]string{
			"pipe":        ReasonNotRegular,
			"target.fifo": ReasonNotRegular,
			"via-link":    ReasonNotRegular,
		}, reasons)
	case <-time.After(5 * time.Second):
		t.Fatal("Scan blocked on a named pipe")
	}
}
