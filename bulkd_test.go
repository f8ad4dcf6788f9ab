package bulkd_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bft-labs/bulkd"
)

func TestLogger_StaticAndDynamic(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	l, err := bulkd.Open(bulkd.Options{OutputDir: dir, Console: &console})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	static, err := l.Connect(2, bulkd.Static)
	if err != nil {
		t.Fatalf("Connect static: %v", err)
	}
	dynamic, err := l.Connect(2, bulkd.Dynamic)
	if err != nil {
		t.Fatalf("Connect dynamic: %v", err)
	}

	if err := l.Receive(static, []byte("a\nb\nc\n")); err != nil {
		t.Fatalf("Receive static: %v", err)
	}
	if err := l.Receive(dynamic, []byte("x\ny\nz\n")); err != nil {
		t.Fatalf("Receive dynamic: %v", err)
	}
	if err := l.Disconnect(static); err != nil {
		t.Fatalf("Disconnect static: %v", err)
	}
	if err := l.Disconnect(dynamic); err != nil {
		t.Fatalf("Disconnect dynamic: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := "bulk: a, b\nbulk: x, y, z\nbulk: c\n"
	if console.String() != want {
		t.Errorf("console = %q, want %q", console.String(), want)
	}

	files, err := filepath.Glob(filepath.Join(dir, "bulk*_id*_*.log"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("got %d pack files, want 3", len(files))
	}
}

func TestLogger_Errors(t *testing.T) {
	l, err := bulkd.Open(bulkd.Options{OutputDir: t.TempDir(), Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := l.Connect(0, bulkd.Static); !errors.Is(err, bulkd.ErrInvalidCapacity) {
		t.Errorf("Connect(0) error = %v, want ErrInvalidCapacity", err)
	}

	h, err := l.Connect(1, bulkd.Static)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := l.Disconnect(h); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if err := l.Receive(h, []byte("late\n")); !errors.Is(err, bulkd.ErrInvalidHandle) {
		t.Errorf("Receive after disconnect error = %v, want ErrInvalidHandle", err)
	}
	if err := l.Disconnect(h); !errors.Is(err, bulkd.ErrInvalidHandle) {
		t.Errorf("second Disconnect error = %v, want ErrInvalidHandle", err)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(); !errors.Is(err, bulkd.ErrNotRunning) {
		t.Errorf("second Close error = %v, want ErrNotRunning", err)
	}
}

func TestOpen_BadOutputDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := bulkd.Open(bulkd.Options{OutputDir: filepath.Join(file, "sub")}); err == nil {
		t.Error("Open under a regular file should fail")
	}
}
