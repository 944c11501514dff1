package session

import (
	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface for apps
// that already log structured.
type ZerologLogger struct {
	log zerolog.Logger
}

var _ Logger = ZerologLogger{}

// NewZerologLogger wraps a zerolog logger.
func NewZerologLogger(log zerolog.Logger) ZerologLogger {
	return ZerologLogger{log: log}
}

func (z ZerologLogger) Debug(format string, args ...any) {
	z.log.Debug().Msgf(format, args...)
}

func (z ZerologLogger) Info(format string, args ...any) {
	z.log.Info().Msgf(format, args...)
}

func (z ZerologLogger) Warn(format string, args ...any) {
	z.log.Warn().Msgf(format, args...)
}

func (z ZerologLogger) Error(format string, args ...any) {
	z.log.Error().Msgf(format, args...)
}
