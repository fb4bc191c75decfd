package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func names(files []AudioFile) []string {
	n := make([]string, len(files))
	for i := range files {
		n[i] = files[i].Name
	}
	return n
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListMissingDir(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "nope"))
	files := c.List()
	if files == nil || len(files) != 0 {
		t.Errorf("expected empty non-nil list, got %v", files)
	}
	if c.Exists() {
		t.Error("missing dir should not exist")
	}
}

func TestListEmptyDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", 10)

	c := New(dir)
	if files := c.List(); len(files) != 0 {
		t.Errorf("expected no files, got %v", names(files))
	}
	if c.Count() != 0 {
		t.Errorf("count = %d", c.Count())
	}
}

func TestListSortedByName(t *testing.T) {
	dir := t.TempDir()
	// b is written first and is older, a is bigger
	b := writeFile(t, dir, "b.mp3", 10)
	writeFile(t, dir, "a.mp3", 1000)
	writeFile(t, dir, "C.mp3", 5)
	writeFile(t, dir, "cover.jpg", 5)
	if err := os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(b, old, old); err != nil {
		t.Fatal(err)
	}

	files := New(dir).List()
	want := []string{"a.mp3", "b.mp3", "C.mp3"}
	if !equal(names(files), want) {
		t.Errorf("got %v, want %v", names(files), want)
	}
	if files[0].Size != 1000 {
		t.Errorf("size = %d", files[0].Size)
	}
	if files[0].Path != filepath.Join(dir, "a.mp3") {
		t.Errorf("path = %q", files[0].Path)
	}
	if files[0].Title() != "a" {
		t.Errorf("title = %q", files[0].Title())
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "song.mp3", 10)
	c := New(dir)

	a, err := c.Resolve("song")
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Resolve("  song.mp3 ")
	if err != nil {
		t.Fatal(err)
	}
	if a.Path != b.Path || a.Path != filepath.Join(dir, "song.mp3") {
		t.Errorf("paths differ: %q %q", a.Path, b.Path)
	}
	if a.Name != "song.mp3" {
		t.Errorf("name = %q", a.Name)
	}
}

func TestResolveNotFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "summer.mp3", 10)
	c := New(dir)

	_, err := c.Resolve("sumer")
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}
	if nf.Name != "sumer.mp3" {
		t.Errorf("name = %q", nf.Name)
	}
	if len(nf.Suggestions) != 1 || nf.Suggestions[0] != "summer.mp3" {
		t.Errorf("suggestions = %v", nf.Suggestions)
	}
}

func TestResolveRejectsPaths(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "music")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, "secret.mp3", 10)
	c := New(dir)

	for _, name := range []string{"../secret", "../secret.mp3", "sub/x.mp3", "", "   "} {
		if _, err := c.Resolve(name); !errors.Is(err, ErrFileNotFound) {
			t.Errorf("%q: expected ErrFileNotFound, got %v", name, err)
		}
	}
}

func TestResolveDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "album.mp3"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir).Resolve("album"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestEnsure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "music")
	c := New(dir)

	created, err := c.Ensure()
	if err != nil || !created {
		t.Fatalf("created = %v, err = %v", created, err)
	}
	created, err = c.Ensure()
	if err != nil || created {
		t.Fatalf("second ensure: created = %v, err = %v", created, err)
	}
}

func TestSuggestLimit(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"track1.mp3", "track2.mp3", "track3.mp3", "zzz.mp3"} {
		writeFile(t, dir, n, 1)
	}
	got := New(dir).Suggest("track", 2)
	if len(got) != 2 {
		t.Errorf("expected 2 suggestions, got %v", got)
	}
	for _, n := range got {
		if n == "zzz.mp3" {
			t.Errorf("unrelated name suggested: %v", got)
		}
	}
}

func TestDurationInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.mp3", 16)
	if _, err := Duration(AudioFile{Path: filepath.Join(dir, "broken.mp3")}); err == nil {
		t.Error("expected an error decoding an empty mp3")
	}
}
