package vmqueue

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnqueueWritesExecutableSpoolFile(t *testing.T) {
	dir := t.TempDir()
	q := New(dir, "/opt/alarm/scripts", "", nil)

	if err := q.Enqueue("page-oncall.pl; page-backup.pl"); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one spool file, got %d", len(entries))
	}
	name := entries[0].Name()
	if filepath.Ext(name) != "" && name[:3] != "vm." {
		t.Fatalf("unexpected spool file name %q", name)
	}

	info, err := entries[0].Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Fatalf("expected spool file to be executable, mode=%v", info.Mode())
	}

	contents, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	want := "vm shell -v -x 1 -l modem -S /usr/bin/perl /opt/alarm/scripts/page-oncall.pl && exit 0\n" +
		"vm shell -v -x 1 -l modem -S /usr/bin/perl /opt/alarm/scripts/page-backup.pl && exit 0\n"
	if string(contents) != want {
		t.Fatalf("spool file contents = %q, want %q", contents, want)
	}
}

func TestEnqueueWithoutModemSkipsMirror(t *testing.T) {
	dir := t.TempDir()
	q := New(dir, "/opt/alarm/scripts", "", nil)
	if err := q.Enqueue("page-oncall.pl"); err != nil {
		t.Fatal(err)
	}
}
