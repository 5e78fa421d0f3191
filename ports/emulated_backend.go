package ports

import "sync"

// emulatedBackend is the in-memory shadow used when the daemon is
// started with -e/--emulate, and by every unit test. No chip is opened
// and, per spec.md §4.1, the edge watcher is never started against it;
// waitForRisingEdge therefore only needs to honor close.
type emulatedBackend struct {
	mu     sync.Mutex
	levels map[int]int
	closed chan struct{}
}

func newEmulatedBackend() *emulatedBackend {
	return &emulatedBackend{
		levels: make(map[int]int),
		closed: make(chan struct{}),
	}
}

func (b *emulatedBackend) setupSensor(line int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levels[line] = 0
	return nil
}

func (b *emulatedBackend) setupActuator(line int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levels[line] = 0
	return nil
}

func (b *emulatedBackend) read(line int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levels[line]
}

func (b *emulatedBackend) write(line int, level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levels[line] = level
	return nil
}

// setLevel is the emulation-only hook behind Registry.SetEmulatedLevel
// that lets test code poke at shadow values directly.
func (b *emulatedBackend) setLevel(line int, level int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levels[line] = level
}

func (b *emulatedBackend) waitForRisingEdge(line int) bool {
	<-b.closed
	return false
}

func (b *emulatedBackend) close() error {
	select {
	case <-b.closed:
	default:
		close(b.closed)
	}
	return nil
}
