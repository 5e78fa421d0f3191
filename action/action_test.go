package action

import "testing"

// recordingAction counts how many times it was executed, standing in
// for a real action so a test can observe whether a Guard let it run.
type recordingAction struct {
	n *int
}

func (a recordingAction) Exec(e *Executor) error {
	*a.n++
	return nil
}

func TestGuardOpEQRunsOnlyOnExactMatch(t *testing.T) {
	e := NewExecutor(nil, nil, nil, nil, nil)
	var n int
	guard := Guard{Op: OpEQ, N: 2, Inner: recordingAction{&n}}

	if err := e.RunActions(1, []Action{guard}); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("counter=1 against |=2 ran the inner action, want no-op")
	}

	if err := e.RunActions(2, []Action{guard}); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("counter=2 against |=2 did not run the inner action")
	}
}

func TestGuardOpLTRunsBelowThreshold(t *testing.T) {
	e := NewExecutor(nil, nil, nil, nil, nil)
	var n int
	guard := Guard{Op: OpLT, N: 3, Inner: recordingAction{&n}}

	if err := e.RunActions(3, []Action{guard}); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("counter=3 against |<3 ran the inner action, want no-op")
	}

	if err := e.RunActions(2, []Action{guard}); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("counter=2 against |<3 did not run the inner action")
	}
}

func TestGuardOpGTRunsAboveThreshold(t *testing.T) {
	e := NewExecutor(nil, nil, nil, nil, nil)
	var n int
	guard := Guard{Op: OpGT, N: 3, Inner: recordingAction{&n}}

	if err := e.RunActions(3, []Action{guard}); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("counter=3 against |>3 ran the inner action, want no-op")
	}

	if err := e.RunActions(4, []Action{guard}); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("counter=4 against |>3 did not run the inner action")
	}
}

func TestRunActionsRestoresSelfCounterAfterCall(t *testing.T) {
	e := NewExecutor(nil, nil, nil, nil, nil)
	e.selfCounter = 7
	if err := e.RunActions(1, []Action{recordingAction{new(int)}}); err != nil {
		t.Fatal(err)
	}
	if e.SelfCounter() != 7 {
		t.Fatalf("selfCounter = %d after RunActions returned, want restored to 7", e.SelfCounter())
	}
}
