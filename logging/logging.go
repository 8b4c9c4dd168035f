// Package logging is this codebase's structured-logging foundation:
// logrus underneath, stdout/stderr stream separation, and a
// ContextLogger helper for carrying a fixed set of fields (tiid,
// provider, phase, ...) through a call chain without re-specifying them
// at every call site.
package logging

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// OutputSplitter routes error-level log lines to stderr and everything
// else to stdout, so container log collectors can treat the streams
// differently without parsing structured fields themselves.
type OutputSplitter struct{}

func (OutputSplitter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("level=error")) || bytes.Contains(p, []byte(`"level":"error"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// Config configures a new base logger.
type Config struct {
	Level  string // debug, info, warn, error
	JSON   bool   // text formatter if false
	Caller bool
}

// New builds a logrus.Logger per cfg, writing through OutputSplitter.
func New(cfg Config) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(OutputSplitter{})
	l.SetReportCaller(cfg.Caller)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// ContextLogger wraps a *logrus.Logger with an immutable set of fields,
// copy-on-write across WithField/WithFields so sibling call sites can
// branch off a shared base logger without clobbering each other's fields.
type ContextLogger struct {
	logger *logrus.Logger
	fields logrus.Fields
}

// NewContextLogger wraps logger (or logrus.StandardLogger() if nil) with
// an initial field set.
func NewContextLogger(logger *logrus.Logger, fields logrus.Fields) *ContextLogger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	merged := make(logrus.Fields, len(fields))
	for k, v := range fields {
		merged[k] = v
	}
	return &ContextLogger{logger: logger, fields: merged}
}

func (cl *ContextLogger) with(extra logrus.Fields) *ContextLogger {
	merged := make(logrus.Fields, len(cl.fields)+len(extra))
	for k, v := range cl.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return &ContextLogger{logger: cl.logger, fields: merged}
}

func (cl *ContextLogger) WithField(key string, value interface{}) *ContextLogger {
	return cl.with(logrus.Fields{key: value})
}

func (cl *ContextLogger) WithFields(fields logrus.Fields) *ContextLogger {
	return cl.with(fields)
}

func (cl *ContextLogger) WithError(err error) *ContextLogger {
	return cl.with(logrus.Fields{"error": err.Error()})
}

func (cl *ContextLogger) Debug(msg string) { cl.logger.WithFields(cl.fields).Debug(msg) }
func (cl *ContextLogger) Info(msg string)  { cl.logger.WithFields(cl.fields).Info(msg) }
func (cl *ContextLogger) Warn(msg string)  { cl.logger.WithFields(cl.fields).Warn(msg) }
func (cl *ContextLogger) Error(msg string) { cl.logger.WithFields(cl.fields).Error(msg) }

// Raw returns the underlying *logrus.Logger, for collaborators (like
// provider.Envelope) that accept a plain logger rather than a ContextLogger.
func (cl *ContextLogger) Raw() *logrus.Logger { return cl.logger }
