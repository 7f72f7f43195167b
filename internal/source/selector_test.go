package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("d8:announce0:e"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSelectMostRecent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, dir, "a.torrent", base.Add(1*time.Second))
	want := writeFile(t, dir, "b.torrent", base.Add(5*time.Second))

	got, err := Select(dir, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got != want {
		t.Errorf("Select = %q, want %q", got, want)
	}
}

func TestSelectTieBreaksByName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mtime := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeFile(t, dir, "alpha.torrent", mtime)
	want := writeFile(t, dir, "zeta.torrent", mtime)
	writeFile(t, dir, "mid.torrent", mtime)

	got, err := Select(dir, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got != want {
		t.Errorf("Select = %q, want lexicographically greatest %q", got, want)
	}
}

func TestSelectIgnoresNonTorrents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Now()
	writeFile(t, dir, "notes.txt", now)
	want := writeFile(t, dir, "old.torrent", now.Add(-time.Hour))

	got, err := Select(dir, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got != want {
		t.Errorf("Select = %q, want %q", got, want)
	}
}

func TestSelectEmptyDir(t *testing.T) {
	t.Parallel()

	_, err := Select(t.TempDir(), "")
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("Select on empty dir: err = %v, want ErrSourceNotFound", err)
	}
}

func TestSelectOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	override := writeFile(t, dir, "explicit.torrent", time.Now())
	writeFile(t, dir, "newer.torrent", time.Now().Add(time.Hour))

	got, err := Select(dir, override)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got != override {
		t.Errorf("Select = %q, want override %q", got, override)
	}
}

func TestSelectOverrideMissing(t *testing.T) {
	t.Parallel()

	_, err := Select(t.TempDir(), "/does/not/exist.torrent")
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("Select missing override: err = %v, want ErrSourceNotFound", err)
	}
}
