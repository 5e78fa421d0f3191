package statemachine

import (
	"context"
	"testing"
	"time"

	"alarmd/action"
	"alarmd/events"
	"alarmd/ports"
	"alarmd/timer"
	"alarmd/vmqueue"
)

type testLogger struct{}

func (testLogger) Debugf(string, ...any) {}
func (testLogger) Syslog(string, string) {}

func newTestExecutor(t *testing.T, states StateController) (*action.Executor, *events.Queue) {
	t.Helper()
	q := events.New()
	reg := ports.New(ports.WithEmulation())
	if _, err := reg.DefineActuator("Siren", "A1", 1, 1, false); err != nil {
		t.Fatal(err)
	}
	closer, err := reg.RequestLines(q)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { closer.Close() })

	ts := timer.New(q, testLogger{})
	vm := vmqueue.New(t.TempDir(), t.TempDir(), "", nil)
	return action.NewExecutor(reg, ts, vm, states, testLogger{}), q
}

func buildProgram(t *testing.T, states map[string]*State, wildcard *State, initial string) *Program {
	t.Helper()
	return &Program{States: states, Wildcard: wildcard, Initial: initial}
}

func TestSimpleTransition(t *testing.T) {
	idle := NewState("Idle")
	idle.Transitions["Motion"] = "Alarmed"
	alarmed := NewState("Alarmed")

	program := buildProgram(t, map[string]*State{"Idle": idle, "Alarmed": alarmed}, nil, "Idle")
	m := New(program, testLogger{})
	exec, q := newTestExecutor(t, m)
	m.SetExecutor(exec)

	go func() {
		if err := m.Run(context.Background(), q); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()

	// Let the machine settle into Idle before pushing the event.
	waitForState(t, m, "Idle")
	q.Put("Motion")
	waitForState(t, m, "Alarmed")

	if idle.Counter() != 1 {
		t.Fatalf("Idle counter = %d, want 1", idle.Counter())
	}
	if alarmed.Counter() != 1 {
		t.Fatalf("Alarmed counter = %d, want 1", alarmed.Counter())
	}
}

func TestWildcardTakesPriorityOverCurrentState(t *testing.T) {
	idle := NewState("Idle")
	idle.Transitions["Reset"] = "ShouldNotReach"
	wildcard := NewState("*")
	wildcard.Transitions["Reset"] = "Rebooted"
	rebooted := NewState("Rebooted")
	shouldNotReach := NewState("ShouldNotReach")

	program := buildProgram(t, map[string]*State{
		"Idle": idle, "Rebooted": rebooted, "ShouldNotReach": shouldNotReach,
	}, wildcard, "Idle")
	m := New(program, testLogger{})
	exec, q := newTestExecutor(t, m)
	m.SetExecutor(exec)

	go m.Run(context.Background(), q)
	waitForState(t, m, "Idle")
	q.Put("Reset")
	waitForState(t, m, "Rebooted")

	if shouldNotReach.Counter() != 0 {
		t.Fatalf("ShouldNotReach should never have been entered, counter=%d", shouldNotReach.Counter())
	}
}

func TestSelfTransitionIsNoOp(t *testing.T) {
	idle := NewState("Idle")
	idle.Transitions["Ping"] = "Idle"

	program := buildProgram(t, map[string]*State{"Idle": idle}, nil, "Idle")
	m := New(program, testLogger{})
	exec, q := newTestExecutor(t, m)
	m.SetExecutor(exec)

	go m.Run(context.Background(), q)
	waitForState(t, m, "Idle")
	if idle.Counter() != 1 {
		t.Fatalf("counter after initial entry = %d, want 1", idle.Counter())
	}

	q.Put("Ping")
	// Give the self-transition a moment to (not) happen.
	time.Sleep(50 * time.Millisecond)
	if idle.Counter() != 1 {
		t.Fatalf("self-transition must not re-enter the state, counter=%d, want 1", idle.Counter())
	}
}

func TestDirectTransitionChain(t *testing.T) {
	a := NewState("A")
	a.Transitions[""] = "B"
	b := NewState("B")
	b.Transitions[""] = DoneState

	program := buildProgram(t, map[string]*State{"A": a, "B": b}, nil, "A")
	m := New(program, testLogger{})
	exec, q := newTestExecutor(t, m)
	m.SetExecutor(exec)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(context.Background(), q) }()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("machine never reached DONE via direct-transition chain")
	}
	if a.Counter() != 1 || b.Counter() != 1 {
		t.Fatalf("expected both A and B entered once, got A=%d B=%d", a.Counter(), b.Counter())
	}
}

func TestCallIncrementsCounterWithoutChangingCurrentState(t *testing.T) {
	callee := NewState("Callee")
	var ran int
	callee.EntryActions = []action.Action{recordingAction{&ran}}

	caller := NewState("Caller")
	caller.EntryActions = []action.Action{action.Call{State: "Callee"}}
	caller.Transitions["Next"] = "Done2"
	done2 := NewState("Done2")

	program := buildProgram(t, map[string]*State{
		"Caller": caller, "Callee": callee, "Done2": done2,
	}, nil, "Caller")
	m := New(program, testLogger{})
	exec, q := newTestExecutor(t, m)
	m.SetExecutor(exec)

	go m.Run(context.Background(), q)
	waitForState(t, m, "Caller")

	if callee.Counter() != 1 {
		t.Fatalf("callee counter = %d, want 1 (call must increment unconditionally)", callee.Counter())
	}
	if ran != 1 {
		t.Fatalf("callee entry actions ran %d times, want 1", ran)
	}
	if m.CurrentStateName() != "Caller" {
		t.Fatalf("current state = %s, want Caller (call must not change current state)", m.CurrentStateName())
	}
}

type recordingAction struct{ n *int }

func (r recordingAction) Exec(e *action.Executor) error { *r.n++; return nil }

func waitForState(t *testing.T, m *Machine, want string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.CurrentStateName() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, current=%s", want, m.CurrentStateName())
}
