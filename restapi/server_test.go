package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alarmd/events"
	"alarmd/ports"
	"alarmd/statemachine"
)

func newTestServer(t *testing.T) (*Server, *events.Queue) {
	t.Helper()
	q := events.New()
	reg := ports.New(ports.WithEmulation())
	if _, err := reg.DefineSensor("Entrance", "S02", 26, 7, true); err != nil {
		t.Fatal(err)
	}
	closer, err := reg.RequestLines(q)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { closer.Close() })

	idle := statemachine.NewState("Idle")
	wildcard := statemachine.NewState("*")
	wildcard.Transitions["CmdArm"] = "Idle"
	program := &statemachine.Program{
		States:   map[string]*statemachine.State{"Idle": idle},
		Wildcard: wildcard,
		Initial:  "Idle",
	}
	m := statemachine.New(program, nil)

	return New(q, m, reg, nil, nil, nil), q
}

func doLoopbackRequest(srv *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "127.0.0.1:54321"
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestCmdEnqueuesCmdPrefixedEvent(t *testing.T) {
	srv, q := newTestServer(t)
	rec := doLoopbackRequest(srv, "GET", "/cmd/Arm")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["CmdArm"] != "OK" {
		t.Fatalf("body = %v, want CmdArm: OK", body)
	}

	done := make(chan string, 1)
	go func() { done <- q.Get() }()
	select {
	case got := <-done:
		if got != "CmdArm" {
			t.Fatalf("queued event = %q, want CmdArm", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no event was enqueued")
	}
}

func TestCmdUnknownToWildcardReturns404(t *testing.T) {
	srv, q := newTestServer(t)
	rec := doLoopbackRequest(srv, "GET", "/cmd/NoSuchCommand")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	done := make(chan string, 1)
	go func() { done <- q.Get() }()
	select {
	case got := <-done:
		t.Fatalf("event %q was enqueued for a command with no wildcard transition", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStateReportsCurrentState(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doLoopbackRequest(srv, "GET", "/state")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestSensorUnknownNameReturns404(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doLoopbackRequest(srv, "GET", "/sensor/NoSuchSensor")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSensorKnownNameReturnsLevel(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doLoopbackRequest(srv, "GET", "/sensor/Entrance")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestNonLoopbackRequestIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("GET", "/state", nil)
	req.RemoteAddr = "203.0.113.5:12345"
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
