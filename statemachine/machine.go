package statemachine

import (
	"context"
	"fmt"
	"sync"

	"alarmd/action"
	"alarmd/events"
)

// Logger is the tracing surface the machine uses for state transitions
// and dropped events. Satisfied structurally by *logging.Logger.
type Logger interface {
	Debugf(format string, args ...any)
}

type nullLogger struct{}

func (nullLogger) Debugf(string, ...any) {}

// Machine runs one Program against an event queue. It implements
// action.StateController so entry actions can Call another state,
// ClearCounter a named state, and key RegisterTimer's staleness check
// off a state's counter.
type Machine struct {
	program *Program
	exec    *action.Executor
	log     Logger

	mu      sync.RWMutex
	current string
}

// New builds a Machine for program. Call SetExecutor before Run, since
// the Executor and the Machine refer to each other (the Executor needs
// a StateController, and entry actions need the Executor).
func New(program *Program, log Logger) *Machine {
	if log == nil {
		log = nullLogger{}
	}
	return &Machine{program: program, log: log}
}

// SetExecutor attaches the action executor this machine's entry
// actions run against.
func (m *Machine) SetExecutor(exec *action.Executor) {
	m.exec = exec
}

// CurrentStateName returns the name of the currently active state,
// safe to call from the REST front-end's /state handler concurrently
// with the interpreter goroutine.
func (m *Machine) CurrentStateName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Machine) setCurrent(name string) {
	m.mu.Lock()
	m.current = name
	m.mu.Unlock()
}

func (m *Machine) stateByName(name string) (*State, bool) {
	if name == "*" {
		if m.program.Wildcard != nil {
			return m.program.Wildcard, true
		}
		return nil, false
	}
	s, ok := m.program.States[name]
	return s, ok
}

// ClearCounter implements action.StateController.
func (m *Machine) ClearCounter(name string) error {
	s, ok := m.stateByName(name)
	if !ok {
		return fmt.Errorf("statemachine: clear_counter: unknown state %s", name)
	}
	s.clear()
	return nil
}

// CounterOf implements action.StateController.
func (m *Machine) CounterOf(name string) (int, bool) {
	s, ok := m.stateByName(name)
	if !ok {
		return 0, false
	}
	return s.Counter(), true
}

// WildcardHasTransition reports whether the wildcard state has a
// transition registered for event, used by the REST front-end to
// reject commands the running program never declared.
func (m *Machine) WildcardHasTransition(event string) bool {
	if m.program.Wildcard == nil {
		return false
	}
	_, ok := m.program.Wildcard.Transitions[event]
	return ok
}

// CallState implements action.StateController: it runs the named
// state's entry actions in place. Its counter increments
// unconditionally and its entry actions run (which may themselves
// nest further calls, guards, or timers keyed to this counter value),
// but neither the machine's current state nor any direct-transition
// chase happens as a result. Grounded in
// original_source/src/alarmd/state.py's State.enter(), which the
// source DSL's "call <id>" compiles to.
func (m *Machine) CallState(name string) error {
	s, ok := m.stateByName(name)
	if !ok {
		return fmt.Errorf("statemachine: call: unknown state %s", name)
	}
	counter := s.increment()
	return m.exec.RunActions(counter, s.EntryActions)
}

// enter runs a state's three-phase entry sequence (increment counter,
// run entry actions, consult a direct transition) and chases any
// direct-transition chain until it reaches a state with none, or the
// DONE sink. It returns true if the machine should terminate (DONE was
// reached).
func (m *Machine) enter(ctx context.Context, name string) (bool, error) {
	for {
		if name == DoneState {
			if s, ok := m.stateByName(DoneState); ok {
				counter := s.increment()
				if err := m.exec.RunActions(counter, s.EntryActions); err != nil {
					return true, err
				}
			}
			m.setCurrent(DoneState)
			return true, nil
		}

		s, ok := m.stateByName(name)
		if !ok {
			return false, fmt.Errorf("statemachine: enter: unknown state %s", name)
		}
		counter := s.increment()
		m.log.Debugf("entering %s (counter=%d)", name, counter)
		if err := m.exec.RunActions(counter, s.EntryActions); err != nil {
			return false, fmt.Errorf("statemachine: entry actions for %s: %w", name, err)
		}
		m.setCurrent(name)

		// A state with a direct transition never waits on the queue: it
		// follows that transition as soon as its entry actions finish,
		// whether or not it also has event transitions.
		if target, ok := s.DirectTarget(); ok && target != name {
			name = target
			continue
		}
		return false, nil
	}
}

// resolve looks up the target state for an event, consulting the
// shared wildcard table before the current state's own table, per
// spec.md §4.4's wildcard-first precedence.
func (m *Machine) resolve(current *State, event string) (string, bool) {
	if m.program.Wildcard != nil {
		if target, ok := m.program.Wildcard.Transitions[event]; ok {
			return target, true
		}
	}
	target, ok := current.Transitions[event]
	return target, ok
}

// Run drives the interpreter loop: enter the program's initial state,
// then repeatedly dequeue an event, resolve it against the wildcard
// and current-state transition tables, and enter the resolved target
// — until the DONE sink is reached or ctx is canceled. A self-
// transition (an event whose target is the already-current state) is
// a no-op: it is neither re-entered nor re-counted, matching the
// original's behavior of ignoring events that don't actually move the
// machine.
func (m *Machine) Run(ctx context.Context, queue *events.Queue) error {
	done, err := m.enter(ctx, m.program.Initial)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		event := queue.Get()

		m.mu.RLock()
		currentName := m.current
		m.mu.RUnlock()
		current, ok := m.stateByName(currentName)
		if !ok {
			return fmt.Errorf("statemachine: run: current state %s vanished", currentName)
		}

		target, ok := m.resolve(current, event)
		if !ok {
			m.log.Debugf("dropping unmatched event %s in state %s", event, currentName)
			continue
		}
		if target == currentName {
			m.log.Debugf("self-transition on %s in state %s: no-op", event, currentName)
			continue
		}

		done, err := m.enter(ctx, target)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
