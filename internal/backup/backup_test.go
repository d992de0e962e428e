package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRunUploadsExistingFilesAndSkipsMissing(t *testing.T) {
	srcDir := t.TempDir()
	devPath := filepath.Join(srcDir, "dev.db")
	if err := os.WriteFile(devPath, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	storeDir := t.TempDir()
	storage, err := NewFilesystem(storeDir)
	if err != nil {
		t.Fatal(err)
	}

	sources := []SourceFile{
		{Path: devPath, Prefix: "dev-"},
		{Path: filepath.Join(srcDir, "missing.db"), Prefix: "missing-"},
	}
	now := time.Date(2026, 7, 31, 3, 0, 0, 0, time.UTC)
	uploaded, err := Run(context.Background(), storage, sources, now, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(uploaded) != 1 || uploaded[0] != "dev-2026-07-31.db" {
		t.Fatalf("unexpected uploaded list: %v", uploaded)
	}
	if _, err := os.Stat(filepath.Join(storeDir, "dev-2026-07-31.db")); err != nil {
		t.Fatalf("expected backup file on disk: %v", err)
	}
}

func TestRotateKeepsOnlyMostRecent(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFilesystem(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := []string{"dev-2026-07-27.db", "dev-2026-07-28.db", "dev-2026-07-29.db", "dev-2026-07-30.db", "dev-2026-07-31.db", "dev-2026-08-01.db"}
	for i, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		mtime := time.Date(2026, 7, 27+i, 0, 0, 0, 0, time.UTC)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	if err := Rotate(context.Background(), storage, "dev-", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	remaining, err := storage.List(context.Background(), "dev-")
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 5 {
		t.Fatalf("expected 5 remaining backups, got %d: %v", len(remaining), remaining)
	}
	if _, err := os.Stat(filepath.Join(dir, "dev-2026-07-27.db")); !os.IsNotExist(err) {
		t.Fatalf("expected oldest backup to be deleted")
	}
}
