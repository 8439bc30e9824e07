package logging

import (
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console logger writing to w. It logs warnings and errors
// unless verbose is set, in which case debug output is included.
func New(w io.Writer, verbose bool) *zap.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

// WithRun tags every entry of log with a fresh run id.
func WithRun(log *zap.Logger) (*zap.Logger, string) {
	id := uuid.NewString()
	return log.With(zap.String("run", id)), id
}
