// Package logging builds the process logger.
//
// Components take a *log.Logger in their Config, as everywhere else in
// this module. This package decides where those loggers write: stderr,
// a rotated file, or nowhere.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process log.
type Options struct {
	// File is the log file. Empty logs to stderr.
	File string

	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int

	// MaxBackups is how many rotated files are kept.
	MaxBackups int

	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int

	// Quiet discards everything. It wins over File.
	Quiet bool
}

// Output returns the writer for opts and a function that releases it.
func Output(opts Options) (io.Writer, func() error) {
	if opts.Quiet {
		return io.Discard, func() error { return nil }
	}
	if opts.File == "" {
		return os.Stderr, func() error { return nil }
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		log.Printf("Warning: cannot create log directory, logging to stderr: %v", err)
		return os.Stderr, func() error { return nil }
	}
	lj := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}
	return lj, lj.Close
}

// New returns the base logger writing to w.
func New(w io.Writer) *log.Logger {
	return log.New(w, "", log.LstdFlags)
}

// For derives a component logger from base: same output and flags, with
// "[name] " as prefix.
func For(base *log.Logger, name string) *log.Logger {
	if base == nil {
		return log.New(os.Stderr, "["+name+"] ", log.LstdFlags)
	}
	return log.New(base.Writer(), "["+name+"] ", base.Flags())
}
