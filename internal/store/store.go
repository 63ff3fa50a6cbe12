// Package store keeps uploaded files in a single flat directory and
// decides, per upload, where a file lands when its name collides with
// an existing entry.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

var (
	// ErrNotFound reports a requested file that is not in the store.
	ErrNotFound = errors.New("file not found")
	// ErrExists reports an upload name that collides under the Fail
	// policy.
	ErrExists = errors.New("file already exists")
	// ErrInvalidName reports a proposed filename with nothing left
	// after sanitization.
	ErrInvalidName = errors.New("invalid filename")
)

// SaveResult is the outcome of storing one upload.
type SaveResult struct {
	// Name is the sanitized name the file was stored under. Under the
	// Keep policy this may carry a numeric suffix.
	Name string
	// Skipped is set when the Skip policy dropped the item.
	Skipped bool
}

// Store is a flat directory of files. All names are sanitized before
// touching the filesystem, so every stored file lives directly inside
// the configured directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// New opens a store over the operating system filesystem, creating the
// directory if needed.
func New(dir string) (*Store, error) {
	return NewWithFs(afero.NewOsFs(), dir)
}

// NewWithFs opens a store over an arbitrary filesystem. Tests use an
// in-memory one.
func NewWithFs(fsys afero.Fs, dir string) (*Store, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory %q: %w", dir, err)
	}
	return &Store{fs: fsys, dir: dir}, nil
}

// Dir returns the storage directory path.
func (s *Store) Dir() string { return s.dir }

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Sanitize reduces an untrusted filename to a single safe path
// component: path separators and parent references are dropped,
// anything outside [A-Za-z0-9_.-] becomes an underscore, and leading
// or trailing dots and underscores are stripped. The second return is
// false when nothing usable remains.
func Sanitize(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "", false
	}
	return name, true
}

// List returns the names of the stored files in directory order.
func (s *Store) List() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("read storage directory: %w", err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		names = append(names, info.Name())
	}
	return names, nil
}

// Open opens a stored file for reading. The caller must close it.
func (s *Store) Open(name string) (afero.File, os.FileInfo, error) {
	info, err := s.fs.Stat(s.path(name))
	if os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("stat %q: %w", name, err)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	f, err := s.fs.Open(s.path(name))
	if err != nil {
		return nil, nil, fmt.Errorf("open %q: %w", name, err)
	}
	return f, info, nil
}

// Delete removes a stored file. Deleting an absent file returns
// ErrNotFound but leaves the store in the same state either way.
func (s *Store) Delete(name string) error {
	err := s.fs.Remove(s.path(name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return nil
}

// Save sanitizes name, resolves it against the directory under the
// given policy and writes the reader's bytes. Writes other than
// Overwrite use an exclusive create, so two concurrent uploads of the
// same new name cannot silently clobber each other: the loser of the
// race is treated exactly like a preexisting collision.
func (s *Store) Save(name string, r io.Reader, policy Policy) (SaveResult, error) {
	clean, ok := Sanitize(name)
	if !ok {
		return SaveResult{}, fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	for {
		target := clean
		if policy == Keep {
			free, err := s.freeName(clean)
			if err != nil {
				return SaveResult{}, err
			}
			target = free
		} else {
			exists, err := afero.Exists(s.fs, s.path(target))
			if err != nil {
				return SaveResult{}, fmt.Errorf("stat %q: %w", target, err)
			}
			if exists {
				switch policy {
				case Fail:
					return SaveResult{}, fmt.Errorf("%q: %w", clean, ErrExists)
				case Skip:
					return SaveResult{Name: clean, Skipped: true}, nil
				}
			}
		}

		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if policy != Overwrite {
			flags |= os.O_EXCL
		}
		f, err := s.fs.OpenFile(s.path(target), flags, 0o644)
		if err != nil {
			if os.IsExist(err) {
				switch policy {
				case Keep:
					// Lost a create race; resolve again.
					continue
				case Skip:
					return SaveResult{Name: clean, Skipped: true}, nil
				}
				return SaveResult{}, fmt.Errorf("%q: %w", target, ErrExists)
			}
			return SaveResult{}, fmt.Errorf("create %q: %w", target, err)
		}
		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			s.fs.Remove(s.path(target))
			return SaveResult{}, fmt.Errorf("write %q: %w", target, err)
		}
		if err := f.Close(); err != nil {
			return SaveResult{}, fmt.Errorf("close %q: %w", target, err)
		}
		return SaveResult{Name: target}, nil
	}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// freeName walks the increment rule from name until it lands on a name
// with no existing entry.
func (s *Store) freeName(name string) (string, error) {
	for {
		exists, err := afero.Exists(s.fs, s.path(name))
		if err != nil {
			return "", fmt.Errorf("stat %q: %w", name, err)
		}
		if !exists {
			return name, nil
		}
		name = incrementName(name)
	}
}

var stemSuffix = regexp.MustCompile(`_(\d+)$`)

// incrementName derives the next candidate name for the Keep policy:
// a trailing _<number> on the stem is incremented, otherwise _1 is
// appended. Suffixes grow past one digit, so report_9.txt advances to
// report_10.txt.
func incrementName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if m := stemSuffix.FindStringSubmatch(stem); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return stem[:len(stem)-len(m[0])] + "_" + strconv.Itoa(n+1) + ext
		}
	}
	return stem + "_1" + ext
}
