// Package checkpoint persists finished rows so an interrupted batch can resume.
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const cursorFile = "cursor.json"

// Entry is the stored result of one DONE row.
type Entry struct {
	RowID   string            `json:"row_id"`
	Outputs map[string]string `json:"outputs"`
	Gaps    []string          `json:"gaps,omitempty"`
	SavedAt time.Time         `json:"saved_at"`
}

// Cursor records batch progress for observability.
type Cursor struct {
	RunID string `json:"run_id"`
	// Completed is the number of leading rows that are finished, so rows [0, Completed) are done.
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps one JSON file per row key in a directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates a store in dir. An empty dir disables the store.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// KeyInput is everything that makes a row's generated output reproducible.
type KeyInput struct {
	Schema     string
	Engine     string
	Model      string
	Paraphrase bool
	Templates  map[string]string
	Row        map[string]string
}

// Key hashes the inputs that determine a row's outputs.
func Key(in KeyInput) (string, error) {
	h := sha256.New()

	for _, s := range []string{in.Schema, in.Engine, in.Model, fmt.Sprint(in.Paraphrase)} {
		if err := writeString(h, s); err != nil {
			return "", err
		}
	}
	if err := writeMap(h, in.Templates); err != nil {
		return "", fmt.Errorf("hashing templates: %w", err)
	}
	if err := writeMap(h, in.Row); err != nil {
		return "", fmt.Errorf("hashing row: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the stored entry for key, if any.
func (s *Store) Get(key string) (*Entry, bool) {
	if s.dir == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.entryPath(key))
	if err != nil {
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		// corrupt entry, regenerate the row
		return nil, false
	}
	return &e, true
}

// Put stores a DONE row.
func (s *Store) Put(key string, e *Entry) error {
	if s.dir == "" {
		return nil
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}
	return s.writeJSON(s.entryPath(key), e)
}

// SaveCursor overwrites the progress cursor.
func (s *Store) SaveCursor(c Cursor) error {
	if s.dir == "" {
		return nil
	}
	c.UpdatedAt = time.Now().UTC()
	return s.writeJSON(filepath.Join(s.dir, cursorFile), c)
}

// LoadCursor reads the progress cursor of the last run.
func (s *Store) LoadCursor() (*Cursor, error) {
	if s.dir == "" {
		return nil, os.ErrNotExist
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, cursorFile))
	if err != nil {
		return nil, err
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing cursor: %w", err)
	}
	return &c, nil
}

// Clear removes the store directory after checking it only holds checkpoint files.
func (s *Store) Clear() error {
	if s.dir == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading checkpoint directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isCheckpointFile(entry.Name()) {
			return fmt.Errorf("checkpoint directory %s contains non-checkpoint files - refusing to delete", s.dir)
		}
	}
	return os.RemoveAll(s.dir)
}

func (s *Store) writeJSON(path string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}

	// write then rename so an interrupted run never leaves a truncated file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return nil
}

// isCheckpointFile matches entries, the cursor and temp files left by an interrupted write.
func isCheckpointFile(name string) bool {
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.tmp")
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func writeString(w io.Writer, s string) error {
	// null byte delimiter prevents collisions between adjacent fields
	_, err := w.Write([]byte(s + "\x00"))
	return err
}

func writeMap(w io.Writer, m map[string]string) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeString(w, k); err != nil {
			return err
		}
		if err := writeString(w, m[k]); err != nil {
			return err
		}
	}
	return writeString(w, "")
}
