// Package statemachine implements the event-driven state interpreter:
// one current state at a time, entry actions run on each state entry
// under a three-phase sequence (increment counter, run entry actions,
// consult a direct transition), and the next state resolved either
// from a direct transition or from an incoming event matched first
// against a shared wildcard transition table and then against the
// current state's own table.
package statemachine

import (
	"sync"

	"alarmd/action"
)

// DoneState is the sink state name: once entered, the interpreter's
// Run loop terminates.
const DoneState = "DONE"

// State is one named state in the program: its entry actions and its
// event-to-target transition table. The empty string key in
// Transitions holds the state's direct (unconditional) transition, if
// it has one.
//
// Counter is guarded by its own mutex rather than relying on "only the
// interpreter goroutine touches it", because RegisterTimer's staleness
// check (action.RegisterTimer) reads a state's counter from a
// timer-scheduler goroutine concurrently with the interpreter
// goroutine incrementing it.
type State struct {
	Name         string
	EntryActions []action.Action
	Transitions  map[string]string

	mu      sync.Mutex
	counter int
}

// NewState builds a State with an empty transition table.
func NewState(name string) *State {
	return &State{Name: name, Transitions: make(map[string]string)}
}

// Counter returns the state's current entry counter.
func (s *State) Counter() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// increment bumps and returns the new counter value.
func (s *State) increment() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return s.counter
}

// clear zeroes the counter ("ClearCounter(<state>)" in the source
// DSL).
func (s *State) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter = 0
}

// DirectTarget returns the state's unconditional transition target, if
// it has one.
func (s *State) DirectTarget() (string, bool) {
	t, ok := s.Transitions[""]
	return t, ok
}

// HasEventTransitions reports whether the state has any real
// (non-direct) event transition. The interpreter does not consult it:
// a direct transition is followed whether or not this reports true.
func (s *State) HasEventTransitions() bool {
	for event := range s.Transitions {
		if event != "" {
			return true
		}
	}
	return false
}

// Program is a fully-resolved DSL load: every named state plus the
// shared wildcard transition table and the declared initial state.
type Program struct {
	States   map[string]*State
	Wildcard *State // "*" state; consulted before the current state's own table
	Initial  string
}
