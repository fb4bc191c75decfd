// Package catalog lists the playable audio files of the music folder
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Extension is the only audio extension the bot plays
const Extension = ".mp3"

var ErrFileNotFound = errors.New("file not found")

// NotFoundError is returned by Resolve, it carries the normalised
// name and the closest names in the catalog
type NotFoundError struct {
	Name        string
	Suggestions []string
	Err         error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrFileNotFound, e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrFileNotFound, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrFileNotFound }

type AudioFile struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Title is the file name without the extension
func (f AudioFile) Title() string {
	return strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
}

type Catalog struct {
	dir string
}

func New(dir string) *Catalog {
	return &Catalog{dir: dir}
}

func (c *Catalog) Dir() string { return c.dir }

// Exists reports whether the music folder exists
func (c *Catalog) Exists() bool {
	fi, err := os.Stat(c.dir)
	return err == nil && fi.IsDir()
}

// Ensure creates the music folder if it doesn't exist
func (c *Catalog) Ensure() (bool, error) {
	if c.Exists() {
		return false, nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return false, err
	}
	return true, nil
}

// List scans the folder for audio files sorted by name, ignoring case.
// A missing folder is an empty catalog.
func (c *Catalog) List() []AudioFile {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return []AudioFile{}
	}

	files := make([]AudioFile, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !hasExtension(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, AudioFile{
			Name:    e.Name(),
			Path:    filepath.Join(c.dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := strings.ToLower(files[i].Name), strings.ToLower(files[j].Name)
		if a == b {
			return files[i].Name < files[j].Name
		}
		return a < b
	})
	return files
}

func (c *Catalog) Count() int {
	return len(c.List())
}

// Normalise trims the requested name and appends the extension if absent
func Normalise(name string) string {
	name = strings.TrimSpace(name)
	if !hasExtension(name) {
		name += Extension
	}
	return name
}

// Resolve finds the file for the requested name, the extension is optional
func (c *Catalog) Resolve(requested string) (AudioFile, error) {
	name := Normalise(requested)
	notFound := func(err error) error {
		return &NotFoundError{Name: name, Suggestions: c.Suggest(name, 3), Err: err}
	}

	// Only plain names inside the folder may be played
	if strings.TrimSpace(requested) == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == ".." {
		return AudioFile{}, notFound(nil)
	}

	path := filepath.Join(c.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return AudioFile{}, notFound(err)
	}
	if !info.Mode().IsRegular() {
		return AudioFile{}, notFound(errors.New("not a regular file"))
	}

	// Ensure we can read it
	f, err := os.Open(path)
	if err != nil {
		return AudioFile{}, notFound(err)
	}
	f.Close()

	return AudioFile{
		Name:    name,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func hasExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}
