package ports

import (
	"fmt"
	"time"
)

// edgeOutcome classifies what the edge watcher did with a debounced
// rising edge, per spec.md §4.2. Exported as a string for metrics
// labels and log lines rather than as a public type, since the only
// consumers outside this file are logging and metrics.
type edgeOutcome string

const (
	outcomeAutoDisabled   edgeOutcome = "auto-disabled"
	outcomeDisabledLogged edgeOutcome = "disabled"
	outcomeDisabledSilent edgeOutcome = "disabled-silent"
	outcomeUserDisabled   edgeOutcome = "user-disabled"
	outcomeQueued         edgeOutcome = "queued"
)

// decideEdgeOutcome applies spec.md §4.2's filter chain to a sensor
// that just produced a debounced rising edge. It is a pure function of
// the port's current state so the filtering rules can be unit tested
// without any hardware or goroutines involved.
func decideEdgeOutcome(p *Port, userDisabled bool) (edgeOutcome, string) {
	if p.Count() > 3 {
		return outcomeAutoDisabled, ""
	}
	event := p.Event()
	if event == nil {
		if p.AlwaysLog {
			return outcomeDisabledLogged, ""
		}
		return outcomeDisabledSilent, ""
	}
	if userDisabled {
		return outcomeUserDisabled, ""
	}
	return outcomeQueued, *event
}

// watchSensor is the edge-watcher goroutine for a single sensor line.
// It terminates as soon as backend.waitForRisingEdge starts returning
// false, which happens once the acquired lines are released.
func (r *Registry) watchSensor(p *Port) {
	for {
		if !r.backend.waitForRisingEdge(p.Line) {
			return
		}
		// Software debounce: the original relied on RPi.GPIO's
		// bouncetime; periph only exposes edge waiting, so the window
		// is enforced here instead.
		waitDebounce()

		outcome, event := decideEdgeOutcome(p, r.UserDisabled(p.Name))
		switch outcome {
		case outcomeAutoDisabled:
			r.logger.SyslogInfo(fmt.Sprintf("trigger: %s (auto-disabled)", p.Name))
		case outcomeDisabledLogged:
			r.logger.SyslogInfo(fmt.Sprintf("trigger: %s (disabled)", p.Name))
		case outcomeDisabledSilent:
			// Not always_log and disarmed: drop without a log line.
		case outcomeUserDisabled:
			r.logger.SyslogInfo(fmt.Sprintf("trigger: %s (user-disabled)", p.Name))
		case outcomeQueued:
			r.logger.Debugf("queuing sensor event %s", event)
			r.queue.Put(event)
		}
		r.metrics.ObserveTrigger(p.Name, string(outcome))
	}
}

// waitDebounce is a variable so tests can shrink the debounce window.
var waitDebounce = func() {
	time.Sleep(debounce)
}
