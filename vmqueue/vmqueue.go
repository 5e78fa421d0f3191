// Package vmqueue spools voice-message commands for an out-of-process
// consumer (vmd, in the original deployment) to pick up and dial out,
// and optionally sends an AT wake line to a directly-attached modem
// (the queued command itself is not sent over the serial line). Grounded in
// original_source/src/alarmd/vmqueue.py.
package vmqueue

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// Logger is the error-reporting surface vmqueue uses; spool and modem
// failures are logged, never returned as fatal to the caller's entry
// action, matching the original's catch-and-log-everything behavior.
type Logger interface {
	SyslogErr(line string)
}

type nullLogger struct{}

func (nullLogger) SyslogErr(string) {}

// Queue spools shell scripts for vmd into SpoolDir, referencing scripts
// that live in ScriptDir. When SerialPort is non-empty, every enqueue
// also writes an AT wake line to the modem on that device; the command
// text itself is only written to the spool file.
type Queue struct {
	SpoolDir   string
	ScriptDir  string
	SerialPort string

	log Logger
}

// New builds a Queue. A nil logger disables error reporting.
func New(spoolDir, scriptDir, serialPort string, log Logger) *Queue {
	if log == nil {
		log = nullLogger{}
	}
	return &Queue{SpoolDir: spoolDir, ScriptDir: scriptDir, SerialPort: serialPort, log: log}
}

// Enqueue queues the ';'-separated parts of cmd for execution by the
// spool consumer: the first part to succeed terminates the rest. It
// writes a temp file in SpoolDir, chmods it executable, then atomically
// renames it to a timestamp-derived name so the consumer sees a
// complete file or nothing at all. A spool failure is logged and
// Enqueue returns nil.
func (q *Queue) Enqueue(cmd string) (err error) {
	defer func() {
		if err != nil {
			q.log.SyslogErr(err.Error())
			err = nil
		}
	}()
	tmp, err := os.CreateTemp(q.SpoolDir, "tmp.")
	if err != nil {
		return fmt.Errorf("vmqueue: create spool temp file: %w", err)
	}
	tmpName := tmp.Name()

	for _, part := range strings.Split(cmd, ";") {
		part = strings.TrimSpace(part)
		fmt.Fprintf(tmp, "vm shell -v -x 1 -l modem -S /usr/bin/perl %s && exit 0\n", filepath.Join(q.ScriptDir, part))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("vmqueue: write spool temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o755); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("vmqueue: chmod spool file: %w", err)
	}

	dest := filepath.Join(q.SpoolDir, "vm."+time.Now().Format("2006.01.02.15.04.05"))
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("vmqueue: rename spool file: %w", err)
	}

	if q.SerialPort != "" {
		if err := q.mirrorToModem(cmd); err != nil {
			q.log.SyslogErr(fmt.Sprintf("vmqueue: modem mirror failed: %v", err))
		}
	}
	return nil
}

// mirrorToModem writes an AT-command wake line to a directly-attached
// modem. This is an addition beyond the original spool-file design, for
// deployments with a modem on a local serial line instead of a
// network-reachable vmd host.
func (q *Queue) mirrorToModem(cmd string) error {
	cfg := &serial.Config{Name: q.SerialPort, Baud: 9600, ReadTimeout: time.Second}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return fmt.Errorf("open %s: %w", q.SerialPort, err)
	}
	defer port.Close()
	if _, err := port.Write([]byte("AT\r\n")); err != nil {
		return fmt.Errorf("write wake: %w", err)
	}
	return nil
}
