// Package logging builds the zerolog loggers shared by the command line
// tools and the long-running scheduler.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level   string
	ErrFile string    // error-level lines are appended here when set
	Console io.Writer // defaults to os.Stderr
}

// Result carries the logger and the file handle that must be closed on exit.
type Result struct {
	Logger zerolog.Logger
	file   *os.File
}

func (r *Result) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// New returns a console logger at the requested level. An unparsable level
// falls back to info. When ErrFile is set, errors are also appended to it.
func New(opts Options) (*Result, error) {
	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}}

	res := &Result{}
	if opts.ErrFile != "" {
		f, err := os.OpenFile(opts.ErrFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		res.file = f
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: f},
			Level:  zerolog.ErrorLevel,
		})
	}

	res.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return res, nil
}

// Component derives a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
