package log

import (
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// "goroutine 123 [running]:" fits comfortably.
	minStackBufSize    = 32
	minStackTraceLen   = 12
	goroutinePrefixLen = len("goroutine ")
	consoleTimeFormat  = "15:04:05"
)

var (
	Logger        zerolog.Logger
	goroutinePool sync.Pool
	jsonOutput    bool
	currentLevel  = zerolog.InfoLevel
)

func init() {
	goroutinePool.New = func() interface{} {
		return make([]byte, minStackBufSize)
	}
	configure(os.Stderr)
}

// goroutineID returns the numeric id of the calling goroutine, or "unknown".
func goroutineID() string {
	buf, ok := goroutinePool.Get().([]byte)
	if !ok {
		return "unknown"
	}
	defer goroutinePool.Put(buf) //nolint:staticcheck // buf is a slice, this is the correct usage

	stackLen := runtime.Stack(buf, false)
	if stackLen < minStackTraceLen || goroutinePrefixLen >= stackLen {
		return "unknown"
	}

	idx := goroutinePrefixLen
	for idx < stackLen && buf[idx] >= '0' && buf[idx] <= '9' {
		idx++
	}
	if idx == goroutinePrefixLen {
		return "unknown"
	}
	return string(buf[goroutinePrefixLen:idx])
}

func configure(out io.Writer) {
	if !jsonOutput {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat}
	}

	Logger = zerolog.New(out).
		Level(currentLevel).
		With().
		Timestamp().
		Logger().
		Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
			e.Str("goid", goroutineID())
		}))

	log.Logger = Logger
}

// SetJSON switches between console output and newline-delimited JSON on stderr.
func SetJSON(enabled bool) {
	jsonOutput = enabled
	configure(os.Stderr)
}

// SetLevel parses a level name ("debug", "info", ...). Unknown names keep the current level.
func SetLevel(name string) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		Warn().Str("level", name).Msg("Unknown log level, keeping current")
		return
	}
	currentLevel = level
	Logger = Logger.Level(level)
	log.Logger = Logger
}

// SetDebugMode switches the logger to debug level.
func SetDebugMode() {
	SetLevel(zerolog.DebugLevel.String())
}

// With returns a child logger carrying a component field.
func With(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// Info logs an info message with goroutine ID.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Error logs an error message with goroutine ID.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Warn logs a warning message with goroutine ID.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Debug logs a debug message with goroutine ID.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Fatal logs a fatal message with goroutine ID and exits.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}
