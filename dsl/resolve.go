package dsl

import (
	"fmt"

	"alarmd/action"
	"alarmd/statemachine"
)

// resolve validates that every transition target, and every
// call/ClearCounter/timer owner reference an entry action makes,
// points at either a defined state or the DONE sink. The source DSL
// never checked this, leaving a typo to surface as a runtime KeyError
// the first time the dangling reference was actually taken; resolving
// it once at load time turns that into a startup failure instead.
func resolve(p *statemachine.Program) error {
	validate := func(s *statemachine.State) error {
		for event, target := range s.Transitions {
			if target == statemachine.DoneState {
				continue
			}
			if _, ok := p.States[target]; !ok {
				return &UnknownStateReference{From: s.Name, Event: event, Target: target}
			}
		}
		for _, a := range s.EntryActions {
			if err := validateAction(p, s.Name, a); err != nil {
				return err
			}
		}
		return nil
	}

	if p.Wildcard != nil {
		if err := validate(p.Wildcard); err != nil {
			return err
		}
	}
	for _, s := range p.States {
		if err := validate(s); err != nil {
			return err
		}
	}
	if _, ok := p.States[p.Initial]; !ok {
		return fmt.Errorf("dsl: initial state %q is not defined", p.Initial)
	}
	return nil
}

func validateAction(p *statemachine.Program, from string, a action.Action) error {
	targetOf := func(name, what string) error {
		if name == "*" {
			return nil
		}
		if _, ok := p.States[name]; !ok {
			return &UnknownStateReference{From: from, Event: what, Target: name}
		}
		return nil
	}
	switch v := a.(type) {
	case action.Call:
		return targetOf(v.State, "call")
	case action.ClearCounter:
		return targetOf(v.State, "ClearCounter")
	case action.RegisterTimer:
		return targetOf(v.OwnerState, "timer")
	case action.Guard:
		return validateAction(p, from, v.Inner)
	}
	return nil
}
