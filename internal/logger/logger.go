package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var Log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init initializes the global logger with the specified level.
// Valid levels: debug, info, warn, error. Output defaults to stderr so the
// MCP stdio transport keeps stdout to itself.
func Init(level string, w io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if w == nil {
		w = os.Stderr
	}
	Log = zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// Module returns a logger with a module field for scoped logging.
func Module(name string) zerolog.Logger {
	return Log.With().Str("module", name).Logger()
}

// GormLogger adapts zerolog to gorm's logger.Writer interface.
type GormLogger struct {
	module string
}

// GormWriter creates a gorm-compatible writer for the given module. The
// module logger is resolved on each call so a later Init takes effect.
func GormWriter(module string) *GormLogger {
	return &GormLogger{module: module}
}

func (l *GormLogger) Printf(format string, args ...interface{}) {
	zlog := Module(l.module)
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	zlog.Warn().Msg(msg)
}
