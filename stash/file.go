// Package stash hands a search query from one run of the terminal client to
// the next one.
package stash

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const fileName = "stash.json"

type entry struct {
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
}

// File keeps at most one query in a JSON file. Take removes the file, so a
// stashed query is replayed once.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultPath returns ~/.cinescope/stash.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".cinescope", fileName), nil
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Take(_ context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read stash: %w", err)
	}

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", false, fmt.Errorf("clear stash: %w", err)
	}

	var e entry
	if err := json.Unmarshal(b, &e); err != nil {
		return "", false, fmt.Errorf("decode stash: %w", err)
	}
	q := strings.TrimSpace(e.Query)
	return q, q != "", nil
}

func (f *File) Put(_ context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return errors.New("stash: empty query")
	}

	b, err := json.Marshal(entry{Query: query, CreatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create stash dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write stash: %w", err)
	}
	return os.Rename(tmp, f.path)
}
