// Package logging provides the daemon's two logging surfaces: terse
// operational lines sent to syslog under the "alarm" identifier
// (matching the original Python daemon's log.info/log.error calls,
// preserved verbatim so existing log-watching tooling keeps working),
// and a separate debug-tracing stream gated behind -d/--debug, built on
// go.uber.org/zap in the teacher's style.
package logging

import (
	"fmt"
	"log/syslog"

	"go.uber.org/zap"
)

// Logger is the daemon's combined logging handle. It satisfies the
// smaller Logger interfaces declared in ports, timer, action, and
// restapi without any of those packages importing this one.
type Logger struct {
	debug *zap.SugaredLogger
	sys   *syslog.Writer
}

// New opens a syslog connection tagged "alarm" and, when debug is
// true, a development zap logger for verbose tracing. debug=false
// makes Debugf a no-op, matching the teacher's pattern of a cheap
// disabled-logger path rather than a log-level filter on every call.
func New(debug bool) (*Logger, error) {
	sys, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, "alarm")
	if err != nil {
		return nil, fmt.Errorf("logging: connect to syslog: %w", err)
	}
	l := &Logger{sys: sys}
	if debug {
		zl, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("logging: build debug logger: %w", err)
		}
		l.debug = zl.Sugar()
	}
	return l, nil
}

// Debugf traces interpreter-internal detail (event dispatch, timer
// scheduling, sensor polling) that never reaches syslog. A no-op when
// the daemon wasn't started with -d/--debug.
func (l *Logger) Debugf(format string, args ...any) {
	if l.debug == nil {
		return
	}
	l.debug.Debugf(format, args...)
}

// SyslogInfo emits an informational operational line, e.g. "set Siren5
// on" or "trigger: Entrance (disabled)".
func (l *Logger) SyslogInfo(line string) {
	l.sys.Info(line)
	l.Debugf("syslog info: %s", line)
}

// SyslogErr emits an error-level operational line, e.g. a marker-file
// write failure.
func (l *Logger) SyslogErr(line string) {
	l.sys.Err(line)
	l.Debugf("syslog err: %s", line)
}

// Syslog emits a line at one of the DSL's named levels ("LOG_INFO",
// "LOG_DEBUG", "LOG_WARNING"), as produced by an entry action's
// syslog(<level>, "<message>") call. LOG_DEBUG lines go only to the
// debug-tracing stream, not to syslog.
func (l *Logger) Syslog(level, message string) {
	switch level {
	case "LOG_DEBUG":
		l.Debugf("%s", message)
	case "LOG_WARNING":
		l.sys.Warning(message)
	default:
		l.sys.Info(message)
	}
}

// Sync flushes the debug logger on shutdown.
func (l *Logger) Sync() {
	if l.debug != nil {
		_ = l.debug.Sync()
	}
}

// Close releases the syslog connection.
func (l *Logger) Close() error {
	return l.sys.Close()
}
