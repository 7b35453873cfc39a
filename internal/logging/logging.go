// Package logging sets up structured logging for fv.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger setup.
type Options struct {
	// DevMode renders colored human-readable lines at debug level.
	// Otherwise JSON lines are written at info level.
	DevMode bool
	// File, if set, also receives every line and is rotated by size.
	File string
}

// Setup installs the default slog logger. The returned function closes the
// log file, if any.
func Setup(opts Options) (func() error, error) {
	var w io.Writer = os.Stdout
	closer := func() error { return nil }

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file.Close
	}

	slog.SetDefault(slog.New(newHandler(w, opts.DevMode)))
	return closer, nil
}

func newHandler(w io.Writer, devMode bool) slog.Handler {
	if devMode {
		return log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			Level:           log.DebugLevel,
			Prefix:          "fv",
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}
