package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// -----------------------------------------------------------------------------

// Logger provides named, leveled logging on top of zerolog
type Logger struct {
	name   string
	logger zerolog.Logger
	config interface{}
}

var (
	baseMu     sync.RWMutex
	baseLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	exitFunc   = os.Exit
)

// -----------------------------------------------------------------------------

// Setup configures the process-wide output shared by every named logger.
// level is one of DEBUG, INFO, WARNING, ERROR; format is console or json.
func Setup(level, format string, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}

	zlLevel, err := parseLevel(level)
	if err != nil {
		return err
	}

	if format == "console" || format == "" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	baseMu.Lock()
	baseLogger = zerolog.New(out).Level(zlLevel).With().Timestamp().Logger()
	baseMu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

func parseLevel(level string) (zerolog.Level, error) {
	switch strings.ToUpper(level) {
	case "", "INFO":
		return zerolog.InfoLevel, nil
	case "DEBUG":
		return zerolog.DebugLevel, nil
	case "WARNING", "WARN":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.NoLevel, fmt.Errorf("invalid log level: %s", level)
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance
func NewLogger(config interface{}, name string) *Logger {
	baseMu.RLock()
	zl := baseLogger.With().Str("component", name).Logger()
	baseMu.RUnlock()

	return &Logger{
		name:   name,
		logger: zl,
		config: config,
	}
}

// -----------------------------------------------------------------------------

// Named derives a child logger sharing the same output
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		name:   name,
		logger: l.logger.With().Str("component", name).Logger(),
		config: l.config,
	}
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.logger.WithLevel(zerolog.FatalLevel).Msgf(format, args...)
	exitFunc(1)
}
