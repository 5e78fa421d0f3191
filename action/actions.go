package action

import (
	"fmt"
	"os"
	"time"
)

// SetBit drives an actuator to a fixed level ("set_bit(<port>, <level>)"
// in the source DSL).
type SetBit struct {
	Port  string
	Level int
}

func (a SetBit) Exec(e *Executor) error { return e.Ports.SetLevel(a.Port, a.Level) }

// SetSensorEvent arms (Event != nil) or disarms (Event == nil) a
// sensor's event generation. Port == "*" applies to every sensor.
type SetSensorEvent struct {
	Port  string
	Event *string
}

func (a SetSensorEvent) Exec(e *Executor) error { return e.Ports.SetSensorEvent(a.Port, a.Event) }

// IncrementSensors runs one sweep of the port registry's active-sensor
// bookkeeping ("increment_sensors" in the source DSL).
type IncrementSensors struct{}

func (IncrementSensors) Exec(e *Executor) error {
	e.Ports.IncrementActiveSensors()
	return nil
}

// ZeroSensors clears every sensor's fire counter and marker file
// ("zero_sensors" in the source DSL).
type ZeroSensors struct{}

func (ZeroSensors) Exec(e *Executor) error {
	e.Ports.ZeroAllSensors()
	return nil
}

// Syslog emits an operator-facing log line at the given level
// ("LOG_INFO", "LOG_DEBUG", "LOG_WARNING" per the source DSL's
// syslog(<level>, "<message>") call).
type Syslog struct {
	Level   string
	Message string
}

func (a Syslog) Exec(e *Executor) error {
	e.Log.Syslog(a.Level, a.Message)
	return nil
}

// RegisterTimer schedules a one-shot delayed event, tagged with the
// counter of the state that owns it at schedule time (spec.md §9's
// generation strengthening): if that state's counter has since changed
// by the time the delay elapses, the event is dropped instead of
// queued, since the state has already moved on.
type RegisterTimer struct {
	OwnerState string
	Delay      time.Duration
	Event      string
}

func (a RegisterTimer) Exec(e *Executor) error {
	generation, ok := e.States.CounterOf(a.OwnerState)
	if !ok {
		return fmt.Errorf("action: register timer: unknown state %s", a.OwnerState)
	}
	e.Timers.ScheduleChecked(a.Delay, a.Event, func() bool {
		current, ok := e.States.CounterOf(a.OwnerState)
		return ok && current == generation
	})
	return nil
}

// ClearCounter zeroes a named state's entry counter immediately
// ("ClearCounter(<state>)" in the source DSL).
type ClearCounter struct {
	State string
}

func (a ClearCounter) Exec(e *Executor) error { return e.States.ClearCounter(a.State) }

// Call runs a named state's entry actions in place without making it
// the current state ("call <state>" in the source DSL; see
// original_source/src/alarmd/state.py's enter(), which increments the
// callee's counter unconditionally before running its actions).
type Call struct {
	State string
}

func (a Call) Exec(e *Executor) error { return e.States.CallState(a.State) }

// Unlink removes a filesystem marker file ("unlink(<path>)" in the
// source DSL, used for ad hoc marker files outside the sensor
// directory).
type Unlink struct {
	Path string
}

func (a Unlink) Exec(e *Executor) error {
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("action: unlink %s: %w", a.Path, err)
	}
	return nil
}

// Touch creates an empty marker file, truncating it if it already
// exists ("touch(<path>)" in the source DSL).
type Touch struct {
	Path string
}

func (a Touch) Exec(e *Executor) error {
	f, err := os.Create(a.Path)
	if err != nil {
		return fmt.Errorf("action: touch %s: %w", a.Path, err)
	}
	return f.Close()
}

// VMQueue spools a voice-modem command script ("vmqueue(\"<cmd>\")" in
// the source DSL).
type VMQueue struct {
	Command string
}

func (a VMQueue) Exec(e *Executor) error { return e.VM.Enqueue(a.Command) }

// Sleep blocks the interpreter goroutine for a fixed duration
// ("sleep(<seconds>)" in the source DSL). Entry actions run serially on
// the single interpreter goroutine, so this is a deliberate pause in
// event processing, not a background timer.
type Sleep struct {
	Duration time.Duration
}

func (a Sleep) Exec(e *Executor) error {
	time.Sleep(a.Duration)
	return nil
}

// Exit terminates the daemon process with the given status code
// ("exit(<code>)" in the source DSL, reachable only from the DONE
// sink's entry actions in practice).
type Exit struct {
	Code int
}

func (a Exit) Exec(e *Executor) error {
	e.Log.Syslog("LOG_INFO", fmt.Sprintf("exiting with code %d", a.Code))
	os.Exit(a.Code)
	return nil
}

// Guard wraps another action so it only runs when the running state's
// counter satisfies a comparison against N (the DSL's `|=N`, `|<N`,
// `|>N` prefixes). A guard that doesn't match is a no-op, not an
// error.
type Guard struct {
	Op    Op
	N     int
	Inner Action
}

func (g Guard) Exec(e *Executor) error {
	if !g.Op.match(e.SelfCounter(), g.N) {
		return nil
	}
	return g.Inner.Exec(e)
}
