package score

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is one persisted high score
type Record struct {
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore keeps high scores in a single JSON file
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store, creating the parent directory if needed.
// The file itself is created on the first Put.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create high score directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Get returns the stored score for key, 0 when there is none
func (fs *FileStore) Get(ctx context.Context, key string) (int, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	records, err := fs.read()
	if err != nil {
		return 0, err
	}
	return records[key].Score, nil
}

// Put stores score for key if it beats the current record
func (fs *FileStore) Put(ctx context.Context, key string, score int) error {
	if key == "" {
		return ErrEmptyKey
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	records, err := fs.read()
	if err != nil {
		return err
	}
	if score <= records[key].Score {
		return nil
	}
	records[key] = Record{Score: score, UpdatedAt: time.Now().UTC()}

	return fs.write(records)
}

// Close is a no-op; every Put is written through
func (fs *FileStore) Close() error {
	return nil
}

func (fs *FileStore) read() (map[string]Record, error) {
	records := make(map[string]Record)

	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, fmt.Errorf("failed to read high score file: %w", err)
	}
	if len(data) == 0 {
		return records, nil
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal high scores: %w", err)
	}
	return records, nil
}

// write replaces the file atomically through a temp file in the same directory
func (fs *FileStore) write(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal high scores: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".highscores-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write high scores: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write high scores: %w", err)
	}

	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("failed to replace high score file: %w", err)
	}
	return nil
}
