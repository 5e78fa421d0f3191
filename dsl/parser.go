// Package dsl reads the line-oriented alarm configuration language:
// port declarations, named states, their entry actions, and their
// event transitions. Grounded in
// original_source/src/alarmd/dsl.py's read_config, reworked per
// spec.md §9 so that entry actions parse directly into the action
// package's tagged values instead of being handed to a host-language
// evaluator. The `%{ ... %}` block syntax is kept for source
// compatibility but is now restricted to SENSOR/ACTUATOR declarations,
// comments, and blank lines — the only things the original's embedded
// Python blocks were ever observed doing in port-configuration files.
package dsl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"alarmd/action"
	"alarmd/ports"
	"alarmd/statemachine"
)

var (
	reSensor     = regexp.MustCompile(`^SENSOR\s+(\S+)\s+(\d+)\s+(\d+)\s+(\d+)\s+(\S+)\s*$`)
	reActuator   = regexp.MustCompile(`^ACTUATOR\s+(\S+)\s+(\d+)\s+(\d+)\s+(\d+)\s+(\S+)\s*$`)
	reStateHead  = regexp.MustCompile(`^(\w+):\s*$`)
	reWildcard   = regexp.MustCompile(`^\*:\s*$`)
	reInitial    = regexp.MustCompile(`^%i\s+(\w+)\s*$`)
	reEntry      = regexp.MustCompile(`^\s*\|([=<>]\d+)?\s+(.*\S)\s*$`)
	reTransition = regexp.MustCompile(`^\s*([\w.]+)?\s*>\s*(\w+)\s*$`)
	reEnd        = regexp.MustCompile(`^\s*;\s*$`)
	reTimerEvent = regexp.MustCompile(`^([\d.]+)s$`)

	reCall     = regexp.MustCompile(`^call\s+(\w+)$`)
	reClearCtr = regexp.MustCompile(`^ClearCounter\((\w+)\)$`)
	reSetBit   = regexp.MustCompile(`^set_bit\(\s*"([^"]+)"\s*,\s*(\d+)\s*\)$`)
	reSetEvent = regexp.MustCompile(`^set_sensor_event\(\s*"([^"]+)"\s*,\s*(None|"([^"]*)")\s*\)$`)
	reSyslog   = regexp.MustCompile(`^syslog\(\s*(LOG_INFO|LOG_DEBUG|LOG_WARNING)\s*,\s*"((?:[^"\\]|\\.)*)"\s*\)$`)
	reZero     = regexp.MustCompile(`^zero_sensors\(\)$`)
	reIncr     = regexp.MustCompile(`^increment_sensors\(\)$`)
	reUnlink   = regexp.MustCompile(`^unlink\(\s*"([^"]+)"\s*\)$`)
	reTouch    = regexp.MustCompile(`^touch\(\s*"([^"]+)"\s*\)$`)
	reVMQueue  = regexp.MustCompile(`^vmqueue\(\s*"((?:[^"\\]|\\.)*)"\s*\)$`)
	reSleep    = regexp.MustCompile(`^sleep\(\s*([\d.]+)\s*\)$`)
	reExit     = regexp.MustCompile(`^exit\(\s*(\d+)\s*\)$`)
)

// loader accumulates parse state across the lines of a single program
// file.
type loader struct {
	registry *ports.Registry
	states   map[string]*statemachine.State
	wildcard *statemachine.State
	current  *statemachine.State
	initial  string
	lineNo   int
	inBlock  bool
	errors   []*SyntaxError
}

// Load reads a program from r, defining its ports on registry and
// building a resolved statemachine.Program. Every syntax error is
// collected rather than aborting the read at the first one, matching
// the original's "encountered N errors" batch reporting; the resolve
// pass that checks every transition and call/ClearCounter/timer target
// against the defined state set runs only once the whole file has been
// read without errors.
func Load(r io.Reader, registry *ports.Registry) (*statemachine.Program, error) {
	l := &loader{registry: registry, states: make(map[string]*statemachine.State)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		l.lineNo++
		l.processLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dsl: read: %w", err)
	}
	if len(l.errors) > 0 {
		return nil, &LoadError{Errors: l.errors}
	}
	if l.initial == "" {
		return nil, fmt.Errorf("dsl: no %%i initial-state directive found")
	}
	program := &statemachine.Program{States: l.states, Wildcard: l.wildcard, Initial: l.initial}
	if err := resolve(program); err != nil {
		return nil, err
	}
	return program, nil
}

// LoadFile opens path and calls Load against its contents.
func LoadFile(path string, registry *ports.Registry) (*statemachine.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dsl: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, registry)
}

func (l *loader) errorf(format string, args ...any) {
	l.errors = append(l.errors, &SyntaxError{Line: l.lineNo, Message: fmt.Sprintf(format, args...)})
}

func stripComment(raw string) string {
	line := strings.TrimRight(raw, "\r\n")
	if strings.HasPrefix(line, "#") {
		return ""
	}
	return strings.TrimRight(line, " \t")
}

func (l *loader) processLine(raw string) {
	line := stripComment(raw)
	if strings.TrimSpace(line) == "" {
		return
	}

	if l.inBlock {
		if strings.HasPrefix(strings.TrimSpace(line), "%}") {
			l.inBlock = false
			return
		}
		l.processBlockLine(line)
		return
	}

	switch {
	case strings.HasPrefix(strings.TrimSpace(line), "%{"):
		l.inBlock = true
	case reSensor.MatchString(line):
		l.defineSensor(reSensor.FindStringSubmatch(line))
	case reActuator.MatchString(line):
		l.defineActuator(reActuator.FindStringSubmatch(line))
	case reWildcard.MatchString(line):
		if l.wildcard == nil {
			l.wildcard = statemachine.NewState("*")
		}
		l.current = l.wildcard
	case reStateHead.MatchString(line):
		name := reStateHead.FindStringSubmatch(line)[1]
		s, ok := l.states[name]
		if !ok {
			s = statemachine.NewState(name)
			l.states[name] = s
		}
		l.current = s
	case reInitial.MatchString(line):
		l.initial = reInitial.FindStringSubmatch(line)[1]
	case reEntry.MatchString(line):
		l.addEntryAction(reEntry.FindStringSubmatch(line))
	case reTransition.MatchString(line):
		l.addTransition(reTransition.FindStringSubmatch(line))
	case reEnd.MatchString(line):
		l.current = nil
	default:
		l.errorf("syntax error [%s]", line)
	}
}

// processBlockLine handles a line inside a %{ ... %} block: the source
// DSL ran these as arbitrary Python against the port/state module
// globals, but every configuration file in practice only used them to
// group port declarations, so that's all this constrained substitute
// accepts.
func (l *loader) processBlockLine(line string) {
	trimmed := strings.TrimSpace(line)
	switch {
	case reSensor.MatchString(trimmed):
		l.defineSensor(reSensor.FindStringSubmatch(trimmed))
	case reActuator.MatchString(trimmed):
		l.defineActuator(reActuator.FindStringSubmatch(trimmed))
	default:
		l.errorf("%%{ %%} blocks may only contain SENSOR/ACTUATOR declarations, got [%s]", trimmed)
	}
}

func (l *loader) defineSensor(m []string) {
	pcb, physical, bcm, logFlag, name := m[1], atoi(m[2]), atoi(m[3]), m[4] != "0", m[5]
	if _, err := l.registry.DefineSensor(name, pcb, physical, bcm, logFlag); err != nil {
		l.errorf("%v", err)
	}
}

func (l *loader) defineActuator(m []string) {
	pcb, physical, bcm, logFlag, name := m[1], atoi(m[2]), atoi(m[3]), m[4] != "0", m[5]
	if _, err := l.registry.DefineActuator(name, pcb, physical, bcm, logFlag); err != nil {
		l.errorf("%v", err)
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func (l *loader) addEntryAction(m []string) {
	if l.current == nil {
		l.errorf("entry action outside any state block")
		return
	}
	guard, raw := m[1], strings.TrimSpace(m[2])
	act, err := parseCommand(raw)
	if err != nil {
		l.errorf("%v", err)
		return
	}
	if guard != "" {
		op, n := parseGuard(guard)
		act = action.Guard{Op: op, N: n, Inner: act}
	}
	l.current.EntryActions = append(l.current.EntryActions, act)
}

func parseGuard(g string) (action.Op, int) {
	n, _ := strconv.Atoi(g[1:])
	switch g[0] {
	case '<':
		return action.OpLT, n
	case '>':
		return action.OpGT, n
	default:
		return action.OpEQ, n
	}
}

func (l *loader) addTransition(m []string) {
	if l.current == nil {
		l.errorf("transition outside any state block")
		return
	}
	event, target := m[1], m[2]
	if event != "" {
		if tm := reTimerEvent.FindStringSubmatch(event); tm != nil {
			seconds, _ := strconv.ParseFloat(tm[1], 64)
			timerEvent := fmt.Sprintf("TIMER_%s", tm[1])
			l.current.EntryActions = append(l.current.EntryActions, action.RegisterTimer{
				OwnerState: l.current.Name,
				Delay:      time.Duration(seconds * float64(time.Second)),
				Event:      timerEvent,
			})
			event = timerEvent
		}
	}
	l.current.Transitions[event] = target
}

// parseCommand recognizes one of the fixed entry-action forms and
// returns the tagged action.Action it compiles to. Anything else is a
// syntax error: there is no fallback to arbitrary evaluation.
func parseCommand(raw string) (action.Action, error) {
	switch {
	case reCall.MatchString(raw):
		return action.Call{State: reCall.FindStringSubmatch(raw)[1]}, nil
	case reClearCtr.MatchString(raw):
		return action.ClearCounter{State: reClearCtr.FindStringSubmatch(raw)[1]}, nil
	case reSetBit.MatchString(raw):
		m := reSetBit.FindStringSubmatch(raw)
		return action.SetBit{Port: m[1], Level: atoi(m[2])}, nil
	case reSetEvent.MatchString(raw):
		m := reSetEvent.FindStringSubmatch(raw)
		if m[2] == "None" {
			return action.SetSensorEvent{Port: m[1], Event: nil}, nil
		}
		event := m[3]
		return action.SetSensorEvent{Port: m[1], Event: &event}, nil
	case reSyslog.MatchString(raw):
		m := reSyslog.FindStringSubmatch(raw)
		return action.Syslog{Level: m[1], Message: unescape(m[2])}, nil
	case reZero.MatchString(raw):
		return action.ZeroSensors{}, nil
	case reIncr.MatchString(raw):
		return action.IncrementSensors{}, nil
	case reUnlink.MatchString(raw):
		return action.Unlink{Path: reUnlink.FindStringSubmatch(raw)[1]}, nil
	case reTouch.MatchString(raw):
		return action.Touch{Path: reTouch.FindStringSubmatch(raw)[1]}, nil
	case reVMQueue.MatchString(raw):
		return action.VMQueue{Command: unescape(reVMQueue.FindStringSubmatch(raw)[1])}, nil
	case reSleep.MatchString(raw):
		secs, _ := strconv.ParseFloat(reSleep.FindStringSubmatch(raw)[1], 64)
		return action.Sleep{Duration: time.Duration(secs * float64(time.Second))}, nil
	case reExit.MatchString(raw):
		return action.Exit{Code: atoi(reExit.FindStringSubmatch(raw)[1])}, nil
	default:
		return nil, fmt.Errorf("unrecognized entry action %q", raw)
	}
}

func unescape(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}
