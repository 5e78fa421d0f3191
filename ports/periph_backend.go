package ports

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// periphBackend drives real GPIO lines through periph.io, the same
// stack the teacher project uses for its joystick and display lines
// (driver/wshat, lcd). Lines are looked up by their BCM number through
// gpioreg, since the DSL supplies arbitrary line numbers at load time
// rather than naming a handful of fixed pins known at compile time.
type periphBackend struct {
	mu     sync.Mutex
	pins   map[int]gpio.PinIO
	closed chan struct{}
}

func newPeriphBackend() (*periphBackend, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: host.Init: %v", ErrHardwareUnavailable, err)
	}
	return &periphBackend{
		pins:   make(map[int]gpio.PinIO),
		closed: make(chan struct{}),
	}, nil
}

func (b *periphBackend) pinFor(line int) (gpio.PinIO, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pins[line]; ok {
		return p, nil
	}
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", line))
	if p == nil {
		return nil, fmt.Errorf("%w: no GPIO pin for BCM line %d", ErrHardwareUnavailable, line)
	}
	b.pins[line] = p
	return p, nil
}

func (b *periphBackend) setupSensor(line int) error {
	p, err := b.pinFor(line)
	if err != nil {
		return err
	}
	if err := p.In(gpio.PullUp, gpio.RisingEdge); err != nil {
		return fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
	}
	return nil
}

func (b *periphBackend) setupActuator(line int) error {
	p, err := b.pinFor(line)
	if err != nil {
		return err
	}
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
	}
	return nil
}

func (b *periphBackend) read(line int) int {
	b.mu.Lock()
	p := b.pins[line]
	b.mu.Unlock()
	if p == nil || p.Read() == gpio.Low {
		return 0
	}
	return 1
}

func (b *periphBackend) write(line int, level int) error {
	b.mu.Lock()
	p := b.pins[line]
	b.mu.Unlock()
	if p == nil {
		return fmt.Errorf("%w: line %d not configured", ErrHardwareUnavailable, line)
	}
	l := gpio.Low
	if level != 0 {
		l = gpio.High
	}
	return p.Out(l)
}

// waitForRisingEdge polls periph's edge notification in short slices so
// it can observe backend.close promptly instead of blocking forever.
func (b *periphBackend) waitForRisingEdge(line int) bool {
	b.mu.Lock()
	p := b.pins[line]
	b.mu.Unlock()
	if p == nil {
		return false
	}
	for {
		select {
		case <-b.closed:
			return false
		default:
		}
		if p.WaitForEdge(edgePollInterval) {
			if p.Read() == gpio.High {
				return true
			}
			continue
		}
	}
}

func (b *periphBackend) close() error {
	close(b.closed)
	return nil
}
