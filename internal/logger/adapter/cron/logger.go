// Package cron adapts zerolog to the robfig/cron logger interface.
package cron

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Logger implements cron.Logger on top of a zerolog logger.
// Info messages are logged at debug level, cron is chatty about every run.
type Logger struct {
	log zerolog.Logger
}

var _ cron.Logger = (*Logger)(nil)

// New returns a cron logger writing to l.
func New(l zerolog.Logger) *Logger {
	return &Logger{log: l.With().Str("component", "cron").Logger()}
}

// Info implements cron.Logger.
func (l *Logger) Info(msg string, keysAndValues ...any) {
	withFields(l.log.Debug(), keysAndValues).Msg(msg)
}

// Error implements cron.Logger.
func (l *Logger) Error(err error, msg string, keysAndValues ...any) {
	withFields(l.log.Error().Err(err), keysAndValues).Msg(msg)
}

// withFields adds the key value pairs cron passes along.
// A trailing key without value is logged under "extra".
func withFields(e *zerolog.Event, keysAndValues []any) *zerolog.Event {
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 >= len(keysAndValues) {
			e = e.Interface("extra", keysAndValues[i])
			break
		}

		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		e = e.Interface(key, keysAndValues[i+1])
	}

	return e
}
