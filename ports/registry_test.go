package ports

import (
	"os"
	"path/filepath"
	"testing"

	"alarmd/events"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	return New(
		WithEmulation(),
		WithSensorDir(filepath.Join(dir, "sensor")),
		WithDisableDir(filepath.Join(dir, "disable")),
	)
}

func mkdirs(t *testing.T, r *Registry) {
	t.Helper()
	if err := os.MkdirAll(r.sensorDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(r.disableDir, 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestDefineDuplicateName(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.DefineActuator("Siren5", "A1", 29, 5, true); err != nil {
		t.Fatal(err)
	}
	if _, err := r.DefineActuator("Siren5", "A2", 30, 6, true); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestDefineDuplicateLine(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.DefineActuator("Siren5", "A1", 29, 5, true); err != nil {
		t.Fatal(err)
	}
	if _, err := r.DefineSensor("Entrance", "S02", 26, 5, true); err == nil {
		t.Fatal("expected duplicate line error")
	}
}

func TestSetLevelRejectsSensor(t *testing.T) {
	r := newTestRegistry(t)
	mkdirs(t, r)
	if _, err := r.DefineSensor("Entrance", "S02", 26, 7, true); err != nil {
		t.Fatal(err)
	}
	q := events.New()
	closer, err := r.RequestLines(q)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()
	if err := r.SetLevel("Entrance", 1); err == nil {
		t.Fatal("expected error setting level of a sensor")
	}
}

func TestZeroAllSensors(t *testing.T) {
	r := newTestRegistry(t)
	mkdirs(t, r)
	p, err := r.DefineSensor("Bedroom", "S04", 28, 81, true)
	if err != nil {
		t.Fatal(err)
	}
	q := events.New()
	closer, err := r.RequestLines(q)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	event := "ActiveSensor"
	if err := r.SetSensorEvent("Bedroom", &event); err != nil {
		t.Fatal(err)
	}
	if err := r.SetEmulatedLevel("Bedroom", 1); err != nil {
		t.Fatal(err)
	}
	r.IncrementActiveSensors()
	if p.Count() != 1 {
		t.Fatalf("count = %d, want 1", p.Count())
	}
	if _, err := os.Stat(filepath.Join(r.sensorDir, "Bedroom")); err != nil {
		t.Fatalf("expected marker file: %v", err)
	}

	r.ZeroAllSensors()
	if p.Count() != 0 {
		t.Fatalf("count = %d, want 0 after zero", p.Count())
	}
	if _, err := os.Stat(filepath.Join(r.sensorDir, "Bedroom")); !os.IsNotExist(err) {
		t.Fatalf("expected marker file removed, got err=%v", err)
	}

	// Zeroing again must not error even though the file is already gone.
	r.ZeroAllSensors()
}

func TestIncrementActiveSensorsSkipsNonFiringAndDisarmed(t *testing.T) {
	r := newTestRegistry(t)
	mkdirs(t, r)
	bedroom, _ := r.DefineSensor("Bedroom", "S04", 28, 81, true)
	window, _ := r.DefineSensor("Window", "S07", 40, 82, true)
	q := events.New()
	closer, err := r.RequestLines(q)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	event := "ActiveSensor"
	if err := r.SetSensorEvent("Bedroom", &event); err != nil {
		t.Fatal(err)
	}
	// Window has no event configured, and Bedroom is not firing yet.
	r.IncrementActiveSensors()
	if bedroom.Count() != 0 || window.Count() != 0 {
		t.Fatalf("expected no increments, got bedroom=%d window=%d", bedroom.Count(), window.Count())
	}

	if err := r.SetEmulatedLevel("Window", 1); err != nil {
		t.Fatal(err)
	}
	r.IncrementActiveSensors()
	if window.Count() != 0 {
		t.Fatalf("window has no event configured, should not increment, got %d", window.Count())
	}
}

func TestUserDisabled(t *testing.T) {
	r := newTestRegistry(t)
	mkdirs(t, r)
	if _, err := r.DefineSensor("Entrance", "S02", 26, 7, true); err != nil {
		t.Fatal(err)
	}
	if r.UserDisabled("Entrance") {
		t.Fatal("expected not disabled before marker file exists")
	}
	f, err := os.Create(filepath.Join(r.disableDir, "Entrance"))
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	if !r.UserDisabled("Entrance") {
		t.Fatal("expected disabled once marker file exists")
	}
}

func TestSetSensorEventWildcard(t *testing.T) {
	r := newTestRegistry(t)
	mkdirs(t, r)
	a, _ := r.DefineSensor("A", "S1", 1, 10, false)
	b, _ := r.DefineSensor("B", "S2", 2, 11, false)
	event := "Armed"
	if err := r.SetSensorEvent("*", &event); err != nil {
		t.Fatal(err)
	}
	if !a.IsEventGenerating() || !b.IsEventGenerating() {
		t.Fatal("expected wildcard to arm every sensor")
	}
}
