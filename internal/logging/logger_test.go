package logging

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(&buf, tt.verbose)
			log.Debug("scanning")
			log.Warn("skipped file")
			_ = log.Sync()

			out := buf.String()
			assert.Contains(t, out, "WARN")
			assert.Contains(t, out, "skipped file")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("scanning")))
		})
	}
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	log, id := WithRun(New(&buf, false))

	_, err := uuid.Parse(id)
	require.NoError(t, err)

	log.Error("boom")
	assert.Contains(t, buf.String(), id)
}
