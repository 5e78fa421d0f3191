package dsl

import "fmt"

// SyntaxError is one parse failure, carrying the originating line
// number the way original_source/src/alarmd/dsl.py's
// "{file_name}({current_line_number}): ..." messages do.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d: %s", e.Line, e.Message)
}

// LoadError aggregates every SyntaxError hit while reading a program,
// matching the original's "encountered N errors" abort-at-EOF
// behavior instead of failing on the first bad line.
type LoadError struct {
	Errors []*SyntaxError
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("dsl: %d syntax error(s), first: %s", len(e.Errors), e.Errors[0].Error())
}

// UnknownStateReference is a resolve-pass failure: a transition or a
// call/ClearCounter/RegisterTimer action names a state that was never
// defined.
type UnknownStateReference struct {
	From, Event, Target string
}

func (e *UnknownStateReference) Error() string {
	return fmt.Sprintf("dsl: state %q transition on %q references unknown state %q", e.From, e.Event, e.Target)
}
