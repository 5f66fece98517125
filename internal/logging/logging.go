// Package logging configures the go-logging backend shared by every module
// logger. Output goes to a rotating file because the terminal belongs to the UI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

var format = logging.MustStringFormatter(
	`%{time:2006-01-02 15:04:05.000} %{pid} %{module} %{shortfile} ▶ %{level:.4s} %{message}`,
)

type Options struct {
	Level      string // debug, info, notice, warning, error, critical
	Path       string // "-" is stderr
	MaxSizeMB  int
	MaxBackups int
}

// Setup installs the backend and returns the writer to close on exit.
func Setup(opt Options) (io.Closer, error) {
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, err
	}

	var out io.WriteCloser
	if opt.Path == "-" {
		out = nopCloser{os.Stderr}
	} else {
		out = &lumberjack.Logger{
			Filename:   opt.Path,
			MaxSize:    opt.MaxSizeMB,
			MaxBackups: opt.MaxBackups,
		}
	}

	install(out, level)
	return out, nil
}

func install(w io.Writer, level logging.Level) {
	backend := logging.NewLogBackend(w, "", 0)
	formatter := logging.NewBackendFormatter(backend, format)
	leveled := logging.AddModuleLevel(formatter)
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
}

// ParseLevel accepts go-logging level names in any case. Empty is INFO and
// "warn" is WARNING.
func ParseLevel(s string) (logging.Level, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "":
		return logging.INFO, nil
	case "WARN":
		return logging.WARNING, nil
	}
	level, err := logging.LogLevel(s)
	if err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
