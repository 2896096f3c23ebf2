package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logging surface used across the engine.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// ParseLevel converts a string log level to slog.Level. Unknown values map to
// info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to every writer. format selects the backend:
// "json" and "text" use slog, "console" uses zerolog's console writer.
// With no writers the output goes to stdout.
func New(level, format string, writers ...io.Writer) Logger {
	valid := writers[:0:0]
	for _, w := range writers {
		if w != nil {
			valid = append(valid, w)
		}
	}
	if len(valid) == 0 {
		valid = append(valid, os.Stdout)
	}

	if strings.EqualFold(format, "console") {
		outs := make([]io.Writer, len(valid))
		for i, w := range valid {
			outs[i] = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: w != os.Stdout}
		}
		zl := zerolog.New(zerolog.MultiLevelWriter(outs...)).
			Level(zerologLevel(ParseLevel(level))).
			With().Timestamp().Logger()
		return NewZerolog(zl)
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
	handlers := make([]slog.Handler, 0, len(valid))
	for _, w := range valid {
		if strings.EqualFold(format, "json") {
			handlers = append(handlers, slog.NewJSONHandler(w, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(w, opts))
		}
	}
	return FromSlog(slog.New(NewMultiHandler(handlers...)))
}

// FromSlog wraps an existing slog.Logger. A nil logger falls back to
// slog.Default().
func FromSlog(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return l
}

// Discard returns a logger that drops every record.
func Discard() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l Logger) Logger {
	if l == nil {
		return Discard()
	}
	return l
}

func zerologLevel(l slog.Level) zerolog.Level {
	switch {
	case l <= slog.LevelDebug:
		return zerolog.DebugLevel
	case l <= slog.LevelInfo:
		return zerolog.InfoLevel
	case l <= slog.LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
