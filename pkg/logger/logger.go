package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog behind a typed Field API so callers never import
// zerolog directly.
type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	tf := cfg.TimeFormat
	if tf == "" {
		tf = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = tf

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: tf}
	}

	zl := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}, nil
}

// With returns a child logger that always carries the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(l.zl.Error(), msg, fields) }

func (l *Logger) log(event *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		f.addTo(event)
	}
	event.Msg(msg)
}

// Field is a typed structured-logging key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

func (f Field) addTo(event *zerolog.Event) {
	switch v := f.Value.(type) {
	case string:
		event.Str(f.Key, v)
	case int:
		event.Int(f.Key, v)
	case int64:
		event.Int64(f.Key, v)
	case float64:
		event.Float64(f.Key, v)
	case bool:
		event.Bool(f.Key, v)
	case time.Time:
		event.Time(f.Key, v)
	case error:
		event.AnErr(f.Key, v)
	default:
		event.Interface(f.Key, v)
	}
}

// --- Field constructors ---

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Strings(key string, values []string) Field {
	return Field{Key: key, Value: strings.Join(values, ", ")}
}

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

func Time(key string, value time.Time) Field { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: int(value / time.Millisecond)}
}

func Error(err error) Field { return Field{Key: "error", Value: err} }

func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Nop returns a logger that discards everything; used in tests.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}
