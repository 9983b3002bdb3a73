// Package logging configures the process-wide debug logger: a
// logrus.Logger writing to ~/.bigless/bigless.log when --verbose is
// set, and discarded otherwise, since stdout/stderr are the alternate
// screen the pager draws into. Grounded on the teacher's own
// log.New()/SetLevel(...) use in internal/vm/machine_linux.go.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/nlindqvist/bigless/internal/config"
)

// New returns a logger. When verbose is false its output is discarded
// entirely; when true it appends to config.LogPath(), creating the
// bigless home directory if needed.
func New(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	if !verbose {
		logger.SetOutput(io.Discard)
		return logger
	}

	logger.SetLevel(logrus.DebugLevel)
	if err := config.EnsureDir(); err != nil {
		logger.SetOutput(io.Discard)
		return logger
	}
	f, err := os.OpenFile(config.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.SetOutput(io.Discard)
		return logger
	}
	logger.SetOutput(f)
	return logger
}
