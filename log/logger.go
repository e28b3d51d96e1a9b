// Package log provides structured logging with connection context.
//
// Two logger variants are available:
//   - Logger: Non-sugared zap.Logger for the loop, fetcher and sinks (structured fields)
//   - SugaredLogger: Printf-style logging for CLI surfaces (convenience over performance)
//
// Use Logger.Sugar() to obtain a SugaredLogger when needed. Output always goes
// to stderr or another explicit writer; stdout carries artwork.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arnolievens/mpimg/types"
)

// Context identifies the connection and operating mode every entry belongs to.
type Context struct {
	Target types.Target
	Mode   types.Mode
}

// Logger provides structured logging with connection context.
// All log entries include the target and mode fields.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger provides printf-style logging for CLI surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a logger writing JSON lines to os.Stderr.
// verbose lowers the level from info to debug.
func NewLogger(lc Context, verbose bool) *Logger {
	return newLoggerWithWriter(lc, verbose, os.Stderr)
}

// NewLoggerTo creates a logger writing to w.
func NewLoggerTo(lc Context, verbose bool, w io.Writer) *Logger {
	return newLoggerWithWriter(lc, verbose, w)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

func newLoggerWithWriter(lc Context, verbose bool, w io.Writer) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)

	return &Logger{zap: zap.New(core).With(contextFields(lc)...)}
}

func contextFields(lc Context) []zap.Field {
	var fields []zap.Field
	if lc.Target.IsSocket() {
		fields = append(fields, zap.String("socket", lc.Target.Host))
	} else if lc.Target.Host != "" {
		fields = append(fields,
			zap.String("host", lc.Target.Host),
			zap.Uint("port", lc.Target.Port),
		)
	}
	if lc.Mode != "" {
		fields = append(fields, zap.String("mode", string(lc.Mode)))
	}
	return fields
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zap.Any("fields", fields))
}

// Info logs an info message.
func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zap.Any("fields", fields))
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zap.Any("fields", fields))
}

// Error logs an error message.
func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zap.Any("fields", fields))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Sugar returns a SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Debugf logs a debug message with printf-style formatting.
func (s *SugaredLogger) Debugf(template string, args ...any) {
	s.sugar.Debugf(template, args...)
}

// Infof logs an info message with printf-style formatting.
func (s *SugaredLogger) Infof(template string, args ...any) {
	s.sugar.Infof(template, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) {
	s.sugar.Warnf(template, args...)
}

// Errorf logs an error message with printf-style formatting.
func (s *SugaredLogger) Errorf(template string, args ...any) {
	s.sugar.Errorf(template, args...)
}

// With returns a SugaredLogger with additional context fields.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
