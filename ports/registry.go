package ports

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"alarmd/events"
)

// Logger is the subset of logging behavior the registry and its edge
// watcher need. Satisfied structurally by *logging.Logger; declared
// here (rather than imported) so ports never depends on the logging
// package.
type Logger interface {
	Debugf(format string, args ...any)
	SyslogInfo(line string)
	SyslogErr(line string)
}

// Metrics is the subset of observability the registry drives.
// Satisfied structurally by *metrics.Metrics.
type Metrics interface {
	ObserveTrigger(sensor, outcome string)
	ObserveSetLevel(actuator string, level int)
}

type nullLogger struct{}

func (nullLogger) Debugf(string, ...any) {}
func (nullLogger) SyslogInfo(string)     {}
func (nullLogger) SyslogErr(string)      {}

type nullMetrics struct{}

func (nullMetrics) ObserveTrigger(string, string) {}
func (nullMetrics) ObserveSetLevel(string, int)   {}

// Registry is the typed table of sensor and actuator ports, keyed by
// both name and BCM line number. It is built by the DSL reader on a
// single goroutine before any concurrent activity starts, and is
// read-only (modulo each Port's own synchronized fields) for the rest
// of the process's life, per spec.md §5.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Port
	byLine map[int]*Port
	order  []*Port

	emulated   bool
	backend    backend
	sensorDir  string
	disableDir string

	queue   *events.Queue
	logger  Logger
	metrics Metrics
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithEmulation makes the registry use the in-memory shadow backend
// instead of opening a real GPIO chip.
func WithEmulation() Option {
	return func(r *Registry) { r.emulated = true }
}

// WithSensorDir overrides the directory in which "this sensor fired"
// marker files are created and removed. Defaults to the current
// directory, matching the original's pytest fallback.
func WithSensorDir(dir string) Option {
	return func(r *Registry) { r.sensorDir = dir }
}

// WithDisableDir overrides the directory the registry checks for
// user-disable marker files.
func WithDisableDir(dir string) Option {
	return func(r *Registry) { r.disableDir = dir }
}

// WithLogger attaches a logger for syslog trigger/actuator lines and
// debug tracing.
func WithLogger(l Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics attaches a metrics sink for trigger and actuation counts.
func WithMetrics(m Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// New constructs an empty Registry. The backend (real or emulated) is
// not opened until RequestLines is called.
func New(opts ...Option) *Registry {
	r := &Registry{
		byName:     make(map[string]*Port),
		byLine:     make(map[int]*Port),
		sensorDir:  ".",
		disableDir: ".",
		logger:     nullLogger{},
		metrics:    nullMetrics{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) define(name, pcb string, physical, line int, kind Kind, alwaysLog bool) (*Port, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	if _, ok := r.byLine[line]; ok {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateLine, line)
	}
	p := &Port{
		Name:      name,
		PCB:       pcb,
		Physical:  physical,
		Line:      line,
		Kind:      kind,
		AlwaysLog: alwaysLog,
	}
	r.byName[name] = p
	r.byLine[line] = p
	r.order = append(r.order, p)
	return p, nil
}

// DefineSensor registers a new sensor port.
func (r *Registry) DefineSensor(name, pcb string, physical, line int, alwaysLog bool) (*Port, error) {
	return r.define(name, pcb, physical, line, Sensor, alwaysLog)
}

// DefineActuator registers a new actuator port.
func (r *Registry) DefineActuator(name, pcb string, physical, line int, alwaysLog bool) (*Port, error) {
	return r.define(name, pcb, physical, line, Actuator, alwaysLog)
}

// ByName returns the port with the given name, if any.
func (r *Registry) ByName(name string) (*Port, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// ByLine returns the port with the given BCM line number, if any.
func (r *Registry) ByLine(line int) (*Port, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byLine[line]
	return p, ok
}

// Ports returns every registered port in definition order.
func (r *Registry) Ports() []*Port {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Port, len(r.order))
	copy(out, r.order)
	return out
}

// SetLevel writes an actuator's output level. Writing to a sensor, or
// to an unknown name, is a configuration error.
func (r *Registry) SetLevel(name string, level int) error {
	p, ok := r.ByName(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPort, name)
	}
	if !p.IsActuator() {
		return fmt.Errorf("%w: %s", ErrNotActuator, name)
	}
	if err := r.backend.write(p.Line, level); err != nil {
		return err
	}
	r.metrics.ObserveSetLevel(name, level)
	if !r.emulated {
		state := "off"
		if level != 0 {
			state = "on"
		}
		r.logger.SyslogInfo(fmt.Sprintf("set %s %s", name, state))
	}
	return nil
}

// ReadLevel returns a port's current level (0 or 1): a sensor's input
// level, or an actuator's output level.
func (r *Registry) ReadLevel(name string) (int, error) {
	p, ok := r.ByName(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPort, name)
	}
	return r.backend.read(p.Line), nil
}

// SetSensorEvent arms or disarms a sensor's event generation. The
// wildcard name "*" applies the change to every sensor port.
func (r *Registry) SetSensorEvent(name string, event *string) error {
	if name == "*" {
		for _, p := range r.Ports() {
			if p.IsSensor() {
				p.SetEvent(event)
			}
		}
		return nil
	}
	p, ok := r.ByName(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPort, name)
	}
	if !p.IsSensor() {
		return fmt.Errorf("%w: %s", ErrNotSensor, name)
	}
	p.SetEvent(event)
	return nil
}

// UserDisabled reports whether a disable marker file exists for the
// named sensor under the configured disable directory.
func (r *Registry) UserDisabled(name string) bool {
	_, err := os.Stat(filepath.Join(r.disableDir, name))
	return err == nil
}

// ZeroAllSensors removes every sensor's "fired" marker file, if
// present, and clears its fire counter. Missing marker files are not
// an error.
func (r *Registry) ZeroAllSensors() {
	for _, p := range r.Ports() {
		if !p.IsSensor() {
			continue
		}
		path := filepath.Join(r.sensorDir, p.Name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.SyslogErr(fmt.Sprintf("marker file remove %s: %v", path, err))
		}
		p.ClearCount()
	}
}

// IncrementActiveSensors touches the marker file and bumps the fire
// counter of every sensor that both has an event configured and whose
// input currently reads high. Marker-file errors are logged, not
// raised: best-effort signalling per spec.md §7 (MarkerFileIoError).
func (r *Registry) IncrementActiveSensors() {
	for _, p := range r.Ports() {
		if !p.IsSensor() {
			continue
		}
		if !p.IsEventGenerating() {
			continue
		}
		if r.backend.read(p.Line) == 0 {
			continue
		}
		path := filepath.Join(r.sensorDir, p.Name)
		if f, err := os.Create(path); err != nil {
			r.logger.SyslogErr(fmt.Sprintf("marker file create %s: %v", path, err))
		} else {
			f.Close()
		}
		p.IncrementCount()
	}
}

// lineRequest is the io.Closer returned by RequestLines.
type lineRequest struct {
	r *Registry
}

func (l *lineRequest) Close() error {
	return l.r.backend.close()
}

// RequestLines configures every actuator as an initialized-low output
// and every sensor as a pulled-up, rising-edge input, then starts the
// edge watcher (unless the registry is emulated, in which case no chip
// is opened and no watcher runs). The returned io.Closer releases all
// lines and stops the watcher.
func (r *Registry) RequestLines(queue *events.Queue) (io.Closer, error) {
	r.queue = queue
	if r.emulated {
		r.backend = newEmulatedBackend()
	} else {
		b, err := newPeriphBackend()
		if err != nil {
			return nil, err
		}
		r.backend = b
	}

	for _, p := range r.Ports() {
		var err error
		if p.IsSensor() {
			err = r.backend.setupSensor(p.Line)
		} else {
			err = r.backend.setupActuator(p.Line)
		}
		if err != nil {
			r.backend.close()
			return nil, err
		}
	}

	if !r.emulated {
		for _, p := range r.Ports() {
			if p.IsSensor() {
				go r.watchSensor(p)
			}
		}
	}

	return &lineRequest{r: r}, nil
}

// SetEmulatedLevel pokes a sensor or actuator's shadow value directly.
// Only valid in emulation mode; tests use it to simulate sensor
// activity.
func (r *Registry) SetEmulatedLevel(name string, level int) error {
	p, ok := r.ByName(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPort, name)
	}
	eb, ok := r.backend.(*emulatedBackend)
	if !ok {
		return fmt.Errorf("ports: SetEmulatedLevel requires emulation mode")
	}
	eb.setLevel(p.Line, level)
	return nil
}
