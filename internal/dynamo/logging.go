package dynamo

import (
	"io"
	"log"
	"os"
)

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StdLogger sends info to stdout and warnings and errors to stderr. Debug
// lines only show when Verbose is set.
type StdLogger struct {
	Verbose bool
	out     *log.Logger
	err     *log.Logger
}

func NewLogger(name string, verbose bool) *StdLogger {
	return newStdLogger(name, verbose, os.Stdout, os.Stderr)
}

func newStdLogger(name string, verbose bool, out, err io.Writer) *StdLogger {
	prefix := ""
	if name != "" {
		prefix = "[" + name + "] "
	}
	flags := log.LstdFlags | log.Lmicroseconds | log.Lmsgprefix
	return &StdLogger{
		Verbose: verbose,
		out:     log.New(out, prefix, flags),
		err:     log.New(err, prefix, flags),
	}
}

func (l *StdLogger) Debugf(format string, args ...any) {
	if l.Verbose {
		l.out.Printf("DEBUG "+format, args...)
	}
}

func (l *StdLogger) Infof(format string, args ...any)  { l.out.Printf("INFO "+format, args...) }
func (l *StdLogger) Warnf(format string, args ...any)  { l.err.Printf("WARN "+format, args...) }
func (l *StdLogger) Errorf(format string, args ...any) { l.err.Printf("ERROR "+format, args...) }

type nopLogger struct{}

// NopLogger discards everything.
func NopLogger() Logger { return nopLogger{} }

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
