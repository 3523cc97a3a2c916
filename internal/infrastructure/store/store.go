// Package store reads and writes whole JSON documents under the
// configuration directory. It has no knowledge of session semantics.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

// ErrNotFound indicates the document does not exist on disk.
var ErrNotFound = errors.New("document not found")

// ParseError indicates a persisted document exists but is malformed.
// Callers recover by falling back to a freshly bootstrapped session.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed document %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Store persists JSON documents as whole-file overwrites.
type Store struct{}

// New creates a new document store.
func New() *Store {
	return &Store{}
}

// Load reads the document at path into v. It returns ErrNotFound if the
// file does not exist and *ParseError if it cannot be decoded.
func (s *Store) Load(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to read document %s: %w", path, err)
	}

	if err := sonic.Unmarshal(data, v); err != nil {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

// Save writes v as the whole document at path, creating the enclosing
// directory tree if absent. The write goes through a temporary file and
// rename so a crash never leaves a truncated document behind.
func (s *Store) Save(path string, v interface{}) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".worksets-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write document %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write document %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace document %s: %w", path, err)
	}
	return nil
}
