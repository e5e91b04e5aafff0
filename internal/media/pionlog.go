package media

import (
	"github.com/pion/logging"
	"github.com/rs/zerolog"
)

// ZerologLoggerFactory hands pion/dtls its own per-scope logger while
// routing every line through the same zerolog sink as the rest of the
// server, tagged with a "module" field for consistent filtering.
type ZerologLoggerFactory struct {
	Base zerolog.Logger
}

func (f ZerologLoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &zerologLeveledLogger{log: f.Base.With().Str("module", "dtls").Str("scope", scope).Logger()}
}

type zerologLeveledLogger struct {
	log zerolog.Logger
}

func (l *zerologLeveledLogger) Trace(msg string)                          { l.log.Trace().Msg(msg) }
func (l *zerologLeveledLogger) Tracef(format string, args ...interface{}) { l.log.Trace().Msgf(format, args...) }
func (l *zerologLeveledLogger) Debug(msg string)                          { l.log.Debug().Msg(msg) }
func (l *zerologLeveledLogger) Debugf(format string, args ...interface{}) { l.log.Debug().Msgf(format, args...) }
func (l *zerologLeveledLogger) Info(msg string)                          { l.log.Info().Msg(msg) }
func (l *zerologLeveledLogger) Infof(format string, args ...interface{}) { l.log.Info().Msgf(format, args...) }
func (l *zerologLeveledLogger) Warn(msg string)                          { l.log.Warn().Msg(msg) }
func (l *zerologLeveledLogger) Warnf(format string, args ...interface{}) { l.log.Warn().Msgf(format, args...) }
func (l *zerologLeveledLogger) Error(msg string)                          { l.log.Error().Msg(msg) }
func (l *zerologLeveledLogger) Errorf(format string, args ...interface{}) { l.log.Error().Msgf(format, args...) }
