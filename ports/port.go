package ports

import "sync"

// Kind distinguishes the two port variants spec.md §3 defines.
type Kind int

const (
	Sensor Kind = iota
	Actuator
)

func (k Kind) String() string {
	if k == Sensor {
		return "sensor"
	}
	return "actuator"
}

// Port is a single physical I/O line: its identity is fixed at DSL-load
// time, but a Sensor's event name and fire counter mutate for the life
// of the process. The counter and event name are written only from the
// interpreter goroutine (directly, or via the edge watcher's
// increment_sensors helper, which itself only runs from within an entry
// action); the edge watcher only reads them. A mutex keeps reads
// consistent without requiring every caller to reason about that
// single-writer discipline.
type Port struct {
	Name      string
	PCB       string
	Physical  int
	Line      int
	Kind      Kind
	AlwaysLog bool

	mu        sync.Mutex
	eventName *string
	count     int
}

// IsSensor reports whether the port is a Sensor.
func (p *Port) IsSensor() bool { return p.Kind == Sensor }

// IsActuator reports whether the port is an Actuator.
func (p *Port) IsActuator() bool { return p.Kind == Actuator }

// Event returns the sensor's configured event name, or nil if disarmed.
func (p *Port) Event() *string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eventName
}

// SetEvent arms or disarms the sensor's event generation.
func (p *Port) SetEvent(event *string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventName = event
}

// IsEventGenerating reports whether the sensor currently has an event
// name configured.
func (p *Port) IsEventGenerating() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eventName != nil
}

// Count returns the sensor's fire counter.
func (p *Port) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// ClearCount zeroes the sensor's fire counter.
func (p *Port) ClearCount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count = 0
}

// IncrementCount increments the sensor's fire counter.
func (p *Port) IncrementCount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
}
