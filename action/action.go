// Package action implements the entry-action algebra that spec.md §9
// asks for in place of the original DSL's embedded host-language
// evaluator: every entry action the DSL reader parses becomes one of
// the tagged values in this package, executed by the state machine
// against the port registry, the timer scheduler, the voice-message
// queue, and the other named states.
package action

import (
	"alarmd/ports"
	"alarmd/timer"
	"alarmd/vmqueue"
)

// Action is one entry-action step. Implementations are plain data; all
// behavior lives in Exec so the DSL reader can build a Program purely
// by constructing values, with no eval loop anywhere in the daemon.
type Action interface {
	Exec(e *Executor) error
}

// StateController is the slice of the state machine that ClearCounter,
// Call, and RegisterTimer's staleness check need. Implemented by
// statemachine.Machine; declared here so action never imports
// statemachine (which imports action), avoiding a cycle.
type StateController interface {
	// ClearCounter zeroes the named state's entry counter immediately.
	ClearCounter(name string) error
	// CallState runs the named state's entry actions in place: its
	// counter increments and its own entry actions run, but the
	// current state pointer and the caller's transition are untouched.
	CallState(name string) error
	// CounterOf returns the named state's current entry counter.
	CounterOf(name string) (int, bool)
}

// Logger is the logging surface entry actions use. Satisfied
// structurally by *logging.Logger.
type Logger interface {
	Debugf(format string, args ...any)
	Syslog(level, message string)
}

// Executor holds the collaborators entry actions run against, plus the
// "self.counter" value entry actions' Guard wrappers compare against
// (the counter of whichever state's action list is currently running —
// the entered state itself, or a callee reached through Call).
type Executor struct {
	Ports   *ports.Registry
	Timers  *timer.Scheduler
	VM      *vmqueue.Queue
	States  StateController
	Log     Logger

	selfCounter int
}

// NewExecutor wires an Executor from its collaborators.
func NewExecutor(p *ports.Registry, t *timer.Scheduler, vm *vmqueue.Queue, states StateController, log Logger) *Executor {
	return &Executor{Ports: p, Timers: t, VM: vm, States: states, Log: log}
}

// SelfCounter returns the counter value Guard actions compare against.
func (e *Executor) SelfCounter() int { return e.selfCounter }

// RunActions executes actions in order under the given counter value,
// restoring whatever counter was in effect before the call returns (so
// a Call nested inside an outer state's entry actions doesn't leak its
// counter into the actions that follow it in the caller). The first
// action to return an error aborts the remaining actions in the list;
// the caller (the state machine) treats that as fatal per spec.md §7.
func (e *Executor) RunActions(counter int, actions []Action) error {
	prev := e.selfCounter
	e.selfCounter = counter
	defer func() { e.selfCounter = prev }()
	for _, a := range actions {
		if err := a.Exec(e); err != nil {
			return err
		}
	}
	return nil
}

// Op is a counter-guard comparison operator (spec.md §4.4 `|=N`,
// `|<N`, `|>N`).
type Op int

const (
	OpEQ Op = iota
	OpLT
	OpGT
)

func (op Op) match(counter, n int) bool {
	switch op {
	case OpEQ:
		return counter == n
	case OpLT:
		return counter < n
	case OpGT:
		return counter > n
	default:
		return false
	}
}
