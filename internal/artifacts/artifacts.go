// Package artifacts keeps finished archives in the downloads directory until
// the browser saves them or the retention sweep removes them.
package artifacts

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/vrsandeep/stockpile-go/internal/archive"
)

var (
	ErrNotFound    = errors.New("artifact not found")
	ErrInvalidName = errors.New("invalid artifact name")
)

const extension = ".zip"

// Artifact describes a stored archive.
type Artifact struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

type Store struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// New stores artifacts in dir on the real filesystem.
func New(dir string) (*Store, error) {
	return NewWithFS(afero.NewOsFs(), dir)
}

func NewWithFS(fs afero.Fs, dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("downloads path cannot be empty")
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create downloads directory: %w", err)
	}
	return &Store{fs: fs, dir: dir, now: time.Now}, nil
}

// Save writes data under a free variant of name and returns the name used.
func (s *Store) Save(name string, data []byte) (string, error) {
	name = archive.SanitizeFilename(name)
	if !strings.HasSuffix(name, extension) {
		name += extension
	}
	name, err := s.freeName(name)
	if err != nil {
		return "", err
	}

	final := filepath.Join(s.dir, name)
	tmp := final + ".part"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := s.fs.Rename(tmp, final); err != nil {
		s.fs.Remove(tmp)
		return "", fmt.Errorf("failed to finalise artifact: %w", err)
	}
	log.Printf("Saved artifact %s (%d bytes)", name, len(data))
	return name, nil
}

func (s *Store) freeName(name string) (string, error) {
	base := strings.TrimSuffix(name, extension)
	candidate := name
	for i := 2; ; i++ {
		exists, err := afero.Exists(s.fs, filepath.Join(s.dir, candidate))
		if err != nil {
			return "", fmt.Errorf("failed to check artifact name: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, extension)
	}
}

// Open returns a stored artifact for reading. The caller closes the file.
func (s *Store) Open(name string) (afero.File, Artifact, error) {
	if err := validName(name); err != nil {
		return nil, Artifact{}, err
	}
	f, err := s.fs.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Artifact{}, ErrNotFound
		}
		return nil, Artifact{}, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Artifact{}, err
	}
	return f, Artifact{Name: name, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func validName(name string) error {
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `\/`) ||
		strings.HasPrefix(name, ".") || !strings.HasSuffix(name, extension) {
		return ErrInvalidName
	}
	return nil
}

// List returns the stored artifacts, newest first.
func (s *Store) List() ([]Artifact, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	out := make([]Artifact, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), extension) {
			continue
		}
		out = append(out, Artifact{Name: e.Name(), Size: e.Size(), ModTime: e.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

// Sweep removes artifacts older than retention and returns how many went.
func (s *Store) Sweep(retention time.Duration) (int, error) {
	list, err := s.List()
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-retention)
	removed := 0
	for _, a := range list {
		if a.ModTime.After(cutoff) {
			continue
		}
		if err := s.fs.Remove(filepath.Join(s.dir, a.Name)); err != nil {
			log.Printf("Warning: could not remove artifact %s: %v", a.Name, err)
			continue
		}
		removed++
	}
	return removed, nil
}
