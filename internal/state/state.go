// Package state remembers where each viewed document was left off.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	stateFileName = "view_positions.json"
	hashBytes     = 8192 // First 8KB for content hash
)

// ViewState is the saved view of a single document.
type ViewState struct {
	Line     int       `json:"line"`
	Lines    int       `json:"lines"` // rendered line count when saved
	Name     string    `json:"name,omitempty"`
	ViewedAt time.Time `json:"viewed_at"`
}

// Offset maps the saved top line onto a rendering of total lines. Text wrapped at a
// different width has a different line count, so the position is scaled to keep the
// same relative place in the document.
func (v ViewState) Offset(total int) int {
	if v.Lines <= 0 || total <= 0 || v.Lines == total {
		return v.Line
	}
	return v.Line * total / v.Lines
}

// Store persists view state keyed by content hash.
type Store struct {
	path string
	data map[string]ViewState
	mu   sync.RWMutex
}

// NewStore creates or loads state from XDG_STATE_HOME/filetext/.
func NewStore() (*Store, error) {
	dir := stateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	store := &Store{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]ViewState),
	}
	if err := store.load(); err != nil {
		// Corrupt state starts empty.
		store.data = make(map[string]ViewState)
	}
	return store, nil
}

// stateDir returns XDG_STATE_HOME/filetext or ~/.local/state/filetext
func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "filetext")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "filetext")
}

// ComputeHash generates a content hash identifying a file across renames.
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}

	hash := sha256.Sum256(buf[:n])
	return hex.EncodeToString(hash[:16]), nil
}

// Get returns the saved view for hash.
func (s *Store) Get(hash string) (ViewState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[hash]
	return v, ok
}

// Save records the view for hash, stamping ViewedAt when unset.
func (s *Store) Save(hash string, v ViewState) error {
	if v.ViewedAt.IsZero() {
		v.ViewedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[hash] = v
	return s.save()
}

// Clear removes the saved state for hash.
func (s *Store) Clear(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, hash)
	return s.save()
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
