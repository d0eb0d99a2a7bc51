// Package logging builds the process root logger.
package logging

import (
	"io"
	"os"

	"github.com/inconshreveable/log15/v3"
	"github.com/mattn/go-isatty"
)

// Options selects the output of the root logger.
type Options struct {
	Debug bool
	JSON  bool
	// Output defaults to stderr. Stdout is reserved for the MCP stdio transport.
	Output io.Writer
}

// New returns a logger writing to opts.Output. Terminals get the colored
// format, anything else gets logfmt unless JSON is requested.
func New(opts Options) log15.Logger {
	logger := log15.New()
	logger.SetHandler(Handler(opts))
	return logger
}

// Handler returns the leveled stream handler New installs.
func Handler(opts Options) log15.Handler {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	format := log15.LogfmtFormat()
	switch {
	case opts.JSON:
		format = log15.JsonFormat()
	case isTerminal(out):
		format = log15.TerminalFormat()
	}

	level := log15.LvlInfo
	if opts.Debug {
		level = log15.LvlDebug
	}
	return log15.LvlFilterHandler(level, log15.StreamHandler(out, format))
}

// Discard returns a logger that drops everything.
func Discard() log15.Logger {
	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())
	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
