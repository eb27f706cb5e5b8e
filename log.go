package noct

import (
	"log"
	"os"
)

// Logger is the minimal leveled-logging seam the VM writes diagnostics
// through (SPEC_FULL §1 ambient stack). It is intentionally small: hosts
// that want structured logging wrap their own logger in one of these
// rather than the runtime depending on a specific logging library.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// stdLogger adapts the standard library's log.Logger, matching the
// teacher's own reliance on bare stdlib logging in cmd/main.go.
type stdLogger struct {
	l *log.Logger
}

func newStdLogger() *stdLogger {
	return &stdLogger{l: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *stdLogger) Debugf(format string, args ...interface{}) { s.l.Printf("DEBUG "+format, args...) }
func (s *stdLogger) Infof(format string, args ...interface{})  { s.l.Printf("INFO  "+format, args...) }
func (s *stdLogger) Warnf(format string, args ...interface{})  { s.l.Printf("WARN  "+format, args...) }
func (s *stdLogger) Errorf(format string, args ...interface{}) { s.l.Printf("ERROR "+format, args...) }

var defaultLogger Logger = newStdLogger()

// NoopLogger discards every message; useful for tests that don't want
// stderr noise.
type NoopLogger struct{}

func (NoopLogger) Debugf(string, ...interface{}) {}
func (NoopLogger) Infof(string, ...interface{})  {}
func (NoopLogger) Warnf(string, ...interface{})  {}
func (NoopLogger) Errorf(string, ...interface{}) {}
