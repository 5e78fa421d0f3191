// Package timer implements the delayed-event scheduler spec.md §4.3
// asks for: entry actions register a one-shot timer that, after its
// delay elapses, enqueues a named event onto the same event queue a
// sensor trigger would use.
package timer

import (
	"time"

	"alarmd/events"
)

// Logger is the debug-tracing surface the scheduler uses to report
// dropped, stale timers. Satisfied structurally by *logging.Logger.
type Logger interface {
	Debugf(format string, args ...any)
}

type nullLogger struct{}

func (nullLogger) Debugf(string, ...any) {}

// Scheduler fires delayed events onto an events.Queue. It holds no
// state of its own beyond the queue and logger: every in-flight timer
// is just a goroutine asleep on time.Sleep, per the original's
// threading.Timer-per-registration design.
type Scheduler struct {
	queue *events.Queue
	log   Logger
}

// New builds a Scheduler that enqueues onto queue. A nil logger
// disables debug tracing.
func New(queue *events.Queue, log Logger) *Scheduler {
	if log == nil {
		log = nullLogger{}
	}
	return &Scheduler{queue: queue, log: log}
}

// Schedule enqueues event after delay elapses, unconditionally. This
// is the baseline behavior spec.md §4.3 describes: the timer fires
// fire-and-forget, and a stale event that no longer matches any
// transition in the current state is simply ignored by the
// interpreter. action.RegisterTimer uses ScheduleChecked, not this.
func (s *Scheduler) Schedule(delay time.Duration, event string) {
	go func() {
		time.Sleep(delay)
		s.queue.Put(event)
	}()
}

// ScheduleChecked is the optional generation-tagged strengthening from
// spec.md §9: valid is consulted right before enqueuing, and the event
// is dropped silently (with a debug trace line) rather than queued if
// it reports the timer has gone stale. This never changes what a
// correctly-written DSL program observes, since a fired-but-stale timer
// event would have matched no transition anyway; it only trims dead
// events out of the queue sooner.
func (s *Scheduler) ScheduleChecked(delay time.Duration, event string, valid func() bool) {
	go func() {
		time.Sleep(delay)
		if !valid() {
			s.log.Debugf("dropping stale timer event %s", event)
			return
		}
		s.queue.Put(event)
	}()
}
