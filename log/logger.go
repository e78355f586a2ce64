package log

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Logger is the logging surface used across the offline cache packages.
// Every cache, store and monitor instance logs through its own named Logger.
type Logger interface {
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
}

// make sure stdLogger implements the Logger interface.
var _ Logger = (*stdLogger)(nil)

type stdLogger struct {
	entry *log.Entry
}

func (l *stdLogger) Info(args ...interface{}) {
	l.entry.Info(args...)
}

func (l *stdLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *stdLogger) Debug(args ...interface{}) {
	l.entry.Debug(args...)
}

func (l *stdLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *stdLogger) Warn(args ...interface{}) {
	l.entry.Warn(args...)
}

func (l *stdLogger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *stdLogger) Error(args ...interface{}) {
	l.entry.Error(args...)
}

func (l *stdLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// make sure supressedLogger implements the Logger interface.
var _ Logger = (*supressedLogger)(nil)

type supressedLogger struct{}

func (l *supressedLogger) Info(args ...interface{})                  {}
func (l *supressedLogger) Infof(format string, args ...interface{})  {}
func (l *supressedLogger) Debug(args ...interface{})                 {}
func (l *supressedLogger) Debugf(format string, args ...interface{}) {}
func (l *supressedLogger) Warn(args ...interface{})                  {}
func (l *supressedLogger) Warnf(format string, args ...interface{})  {}
func (l *supressedLogger) Error(args ...interface{})                 {}
func (l *supressedLogger) Errorf(format string, args ...interface{}) {}

// New creates a logger named after the component that owns it.
func New(name string, supressed, debugLogs bool) Logger {
	return NewWithOutput(name, supressed, debugLogs, os.Stdout)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(name string, supressed, debugLogs bool, w io.Writer) Logger {
	if supressed {
		return &supressedLogger{}
	}

	l := log.New()
	l.SetOutput(w)
	l.SetLevel(log.InfoLevel)

	if debugLogs {
		l.SetLevel(log.DebugLevel)
	}

	l.SetFormatter(&log.TextFormatter{
		DisableColors:   false,
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		PadLevelText:    true,
	})

	return &stdLogger{
		entry: l.WithField("offcache", name),
	}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &supressedLogger{}
}
