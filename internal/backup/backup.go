// Package backup implements the scheduler's daily database backup: copy
// local database files to an external storage folder, date-stamped, and
// rotate out everything past the N most recent per prefix
// (scheduler.py _backup_databases / _rotate_backups).
//
// The original targets a specific Google Drive folder; no Drive client
// exists anywhere in this module's dependency pack (see DESIGN.md), so
// Storage is a narrow interface the scheduler depends on and Filesystem
// is the shipped implementation — a local directory (BACKUP_DIR)
// standing in for the external folder, same shape as teacher's
// provider-behind-interface collaborators (pkg/connector/provider.go).
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Object is one stored backup file.
type Object struct {
	Name      string
	CreatedAt time.Time
}

// Storage is the narrow collaborator the scheduler's backup job depends
// on: upload a local file, list what's there, delete the oldest.
type Storage interface {
	Upload(ctx context.Context, localPath, name string) error
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, name string) error
}

// Filesystem stores backups as files under Dir, named verbatim.
type Filesystem struct {
	Dir string
}

// NewFilesystem creates Dir if missing and returns a Storage over it.
func NewFilesystem(dir string) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: mkdir %s: %w", dir, err)
	}
	return &Filesystem{Dir: dir}, nil
}

func (f *Filesystem) Upload(ctx context.Context, localPath, name string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("backup: open %s: %w", localPath, err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(f.Dir, name))
	if err != nil {
		return fmt.Errorf("backup: create %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("backup: copy %s: %w", name, err)
	}
	return nil
}

func (f *Filesystem) List(ctx context.Context, prefix string) ([]Object, error) {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		return nil, fmt.Errorf("backup: readdir %s: %w", f.Dir, err)
	}
	var out []Object
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Object{Name: entry.Name(), CreatedAt: info.ModTime()})
	}
	return out, nil
}

func (f *Filesystem) Delete(ctx context.Context, name string) error {
	if err := os.Remove(filepath.Join(f.Dir, name)); err != nil {
		return fmt.Errorf("backup: delete %s: %w", name, err)
	}
	return nil
}

// SourceFile is one local database file to back up, paired with the
// prefix its date-stamped copies rotate under.
type SourceFile struct {
	Path   string // local path, e.g. "/var/lib/choom/dev.db"
	Prefix string // e.g. "dev-" -> "dev-2026-07-31.db"
}

// Run uploads every configured source file that exists, date-stamped,
// then rotates each prefix down to keep entries. Missing source files
// are skipped, not fatal — mirrors the original's per-file try/except.
func Run(ctx context.Context, storage Storage, sources []SourceFile, now time.Time, keep int) ([]string, error) {
	dateStamp := now.Format("2006-01-02")
	var uploaded []string
	for _, src := range sources {
		if _, err := os.Stat(src.Path); err != nil {
			continue
		}
		name := fmt.Sprintf("%s%s.db", src.Prefix, dateStamp)
		if err := storage.Upload(ctx, src.Path, name); err != nil {
			return uploaded, err
		}
		uploaded = append(uploaded, name)
	}
	for _, src := range sources {
		if err := Rotate(ctx, storage, src.Prefix, keep); err != nil {
			return uploaded, err
		}
	}
	return uploaded, nil
}

// Rotate deletes every object under prefix beyond the `keep` most recent.
func Rotate(ctx context.Context, storage Storage, prefix string, keep int) error {
	objs, err := storage.List(ctx, prefix)
	if err != nil {
		return err
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].CreatedAt.After(objs[j].CreatedAt) })
	if len(objs) <= keep {
		return nil
	}
	for _, old := range objs[keep:] {
		if err := storage.Delete(ctx, old.Name); err != nil {
			return err
		}
	}
	return nil
}
