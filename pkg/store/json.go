package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dailylesson/lessonmail/pkg/domain"
)

// JSONFile keeps the state in a single JSON document
type JSONFile struct {
	path string
}

// NewJSONFile makes a store over the file at path, the file is created on first save
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Load reads the document, a missing file is an empty state
func (j *JSONFile) Load(_ context.Context) (State, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read %s: %w", j.path, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("parse %s: %w", j.path, err)
	}
	return st, nil
}

// Save writes the document to a temp file and renames it over the old one
func (j *JSONFile) Save(_ context.Context, st State) error {
	if st.Subscribers == nil {
		st.Subscribers = []domain.Subscriber{}
	}
	if st.Topics == nil {
		st.Topics = []domain.Topic{}
	}
	if st.EmailLogs == nil {
		st.EmailLogs = []domain.DeliveryLogEntry{}
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(j.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // removed by rename on success

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), j.path); err != nil {
		return fmt.Errorf("rename to %s: %w", j.path, err)
	}
	return nil
}
