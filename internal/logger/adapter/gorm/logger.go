// Package gorm adapts zerolog to the gorm logger writer so SQL warnings
// and errors reach the configured log outputs.
package gorm

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"
)

// SlowThreshold is the query duration logged as slow SQL.
const SlowThreshold = 200 * time.Millisecond

// Writer implements gormlogger.Writer on top of a zerolog logger.
type Writer struct {
	log zerolog.Logger
}

var _ gormlogger.Writer = (*Writer)(nil)

// New returns a writer logging to l.
func New(l zerolog.Logger) *Writer {
	return &Writer{log: l.With().Str("component", "gorm").Logger()}
}

// Printf implements gormlogger.Writer.
// gorm formats every level the same way, the level is recovered from the
// format tag or from an error argument.
func (w *Writer) Printf(format string, args ...any) {
	msg := strings.TrimSpace(strings.ReplaceAll(fmt.Sprintf(format, args...), "\n", " "))

	w.log.WithLevel(level(format, args)).Msg(msg)
}

func level(format string, args []any) zerolog.Level {
	for _, arg := range args {
		if _, ok := arg.(error); ok {
			return zerolog.ErrorLevel
		}
	}

	switch {
	case strings.Contains(format, "[error]"):
		return zerolog.ErrorLevel
	case strings.Contains(format, "[info]"):
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}

// Logger returns a gorm logger writing to l at warn level.
// Record not found is an expected outcome of lookups and is not logged.
func Logger(l zerolog.Logger) gormlogger.Interface {
	return gormlogger.New(New(l), gormlogger.Config{
		SlowThreshold:             SlowThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
