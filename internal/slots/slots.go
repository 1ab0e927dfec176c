// Package slots maps save names onto files in one save directory.
package slots

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	DefaultDir       = "save"
	DefaultExtension = "krg"
)

var (
	ErrNotFound    = errors.New("save not found")
	ErrIO          = errors.New("save io failure")
	ErrInit        = errors.New("save directory init failed")
	ErrInvalidName = errors.New("invalid save name")
)

// Dir is one save directory holding files named <name>.<ext>.
type Dir struct {
	root string
	ext  string
}

func New(root, ext string) *Dir {
	if strings.TrimSpace(root) == "" {
		root = DefaultDir
	}
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = DefaultExtension
	}
	return &Dir{root: root, ext: ext}
}

func (d *Dir) Root() string      { return d.root }
func (d *Dir) Extension() string { return d.ext }

// Init creates the save directory if it is absent. Call once before first use.
func (d *Dir) Init() error {
	info, err := os.Stat(d.root)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrInit, d.root)
		}
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrInit, err)
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrInit, err)
	}
	log.Info().Msgf("slots.Dir.Init created dir=%q", d.root)
	return nil
}

// Path resolves name to its save file path.
func (d *Dir) Path(name string) (string, error) {
	if !isValidName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(d.root, name+"."+d.ext), nil
}

// Open opens an existing save for reading.
func (d *Dir) Open(name string) (*os.File, error) {
	path, err := d.Path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, classify(name, err)
	}
	return f, nil
}

// ReadAll loads a whole save into memory. Empty files are IO failures.
func (d *Dir) ReadAll(name string) ([]byte, error) {
	path, err := d.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classify(name, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %q is empty", ErrIO, name)
	}
	return data, nil
}

// Create opens name for writing, truncating any previous save.
func (d *Dir) Create(name string) (*os.File, error) {
	path, err := d.Path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return f, nil
}

// Exists reports whether a save file is present for name.
func (d *Dir) Exists(name string) bool {
	path, err := d.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// List returns save names in the directory, sorted.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	suffix := "." + d.ext
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), suffix)
		if isValidName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func classify(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return fmt.Errorf("%w: %v", ErrIO, err)
}

func isValidName(name string) bool {
	if name == "" || name != strings.TrimSpace(name) || name == "." || name == ".." {
		return false
	}
	for _, c := range name {
		switch {
		case c == '/' || c == '\\' || c == ':' || c == 0:
			return false
		case c < 0x20:
			return false
		}
	}
	return true
}
