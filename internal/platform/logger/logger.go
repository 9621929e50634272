package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a structured JSON logger with source location enabled.
// Level should be a valid slog level string: DEBUG, INFO, WARN, ERROR.
// Unrecognized values default to ERROR.
//
// When file is non-empty the log stream is also written to a size-rotated
// file at that path.
func New(level, file string) *slog.Logger {
	return NewTo(os.Stdout, level, file)
}

// NewTo is New writing to w instead of stdout.
func NewTo(w io.Writer, level, file string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(output(w, file), &slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
	}))
}

func output(stdout io.Writer, file string) io.Writer {
	if file == "" {
		return stdout
	}
	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}
	return io.MultiWriter(stdout, rotator)
}
