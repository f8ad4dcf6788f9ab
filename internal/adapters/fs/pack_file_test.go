package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/bulkd/internal/domain"
)

func TestFileName(t *testing.T) {
	pack := domain.NewPack(time.Unix(1700000000, 0), []string{"a"})

	if got, want := FileName(pack, 1, 0), "bulk1700000000_id1_0.log"; got != want {
		t.Errorf("FileName() = %q, want %q", got, want)
	}

	small := domain.NewPack(time.Unix(42, 0), []string{"a"})
	if got, want := FileName(small, 2, 7), "bulk0000000042_id2_7.log"; got != want {
		t.Errorf("FileName() = %q, want %q", got, want)
	}
}

func TestPackFileRepository_Store(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewPackFileRepository(dir)
	if err != nil {
		t.Fatalf("NewPackFileRepository: %v", err)
	}

	pack := domain.NewPack(time.Unix(100, 0), []string{"cmd1", "cmd2", "cmd3"})
	name, err := repo.Store(pack, 1, 3)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	if string(data) != "cmd1\ncmd2\ncmd3" {
		t.Errorf("content = %q, want %q", data, "cmd1\ncmd2\ncmd3")
	}

	// No temp file left behind
	if _, err := os.Stat(filepath.Join(dir, name+".tmp")); !os.IsNotExist(err) {
		t.Errorf("temp file still exists")
	}
}

func TestNewPackFileRepository_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	repo, err := NewPackFileRepository(dir)
	if err != nil {
		t.Fatalf("NewPackFileRepository: %v", err)
	}
	if repo.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", repo.Dir(), dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("output dir not created: %v", err)
	}
}

func TestPackFileRepository_StoreError(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewPackFileRepository(dir)
	if err != nil {
		t.Fatalf("NewPackFileRepository: %v", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove dir: %v", err)
	}

	if _, err := repo.Store(domain.NewPack(time.Unix(1, 0), []string{"x"}), 1, 0); err == nil {
		t.Error("Store() into missing dir should fail")
	}
}
