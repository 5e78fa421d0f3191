package ports

import "time"

// backend is the hardware abstraction a Registry drives its ports
// through. Two implementations exist: the periph.io-backed chip used on
// real hardware, and an in-memory emulation used in emulation mode and
// in tests.
type backend interface {
	// setupSensor configures line as an input with pull-up and
	// rising-edge detection.
	setupSensor(line int) error
	// setupActuator configures line as an output, initialized low.
	setupActuator(line int) error
	// read returns the current level (0 or 1) of line.
	read(line int) int
	// write sets an actuator line's output level.
	write(line int, level int) error
	// waitForRisingEdge blocks until a rising edge is observed on line,
	// or returns false if the backend was closed while waiting.
	waitForRisingEdge(line int) bool
	// close releases all acquired lines. After close, waitForRisingEdge
	// must return false promptly for every line.
	close() error
}

// debounce is the hardware debounce window from the original RPi.GPIO
// configuration (bouncetime=200, in milliseconds).
const debounce = 200 * time.Millisecond

// edgePollInterval bounds how long waitForRisingEdge blocks before
// re-checking whether the backend has been closed.
const edgePollInterval = 250 * time.Millisecond
