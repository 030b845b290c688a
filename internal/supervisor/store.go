package supervisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mcphost/pkg/logging"
)

// Store persists the servers document as a single JSON file.
// Reads tolerate a missing or corrupt file; writes replace the file atomically.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a Store for path, creating the directory and an empty
// document when they do not exist yet.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("servers file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	s := &Store{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.write(newConfigDocument()); err != nil {
			return nil, err
		}
		logging.Info("Store", "Created empty servers file at %s", path)
	}
	return s, nil
}

// Path returns the location of the servers file.
func (s *Store) Path() string {
	return s.path
}

// Load returns the current document. A file that cannot be read or parsed is
// logged and treated as empty.
func (s *Store) Load() *ConfigDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Save replaces the document on disk.
func (s *Store) Save(doc *ConfigDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(doc)
}

// Update runs fn against the current document and saves the result, holding the
// store lock for the whole read-modify-write. Nothing is written when fn fails.
func (s *Store) Update(fn func(doc *ConfigDocument) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	if err := fn(doc); err != nil {
		return err
	}
	return s.write(doc)
}

func (s *Store) read() *ConfigDocument {
	data, err := os.ReadFile(s.path)
	if err != nil {
		logging.Error("Store", err, "Failed to read servers file %s", s.path)
		return newConfigDocument()
	}

	doc := newConfigDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		logging.Error("Store", err, "Failed to parse servers file %s", s.path)
		return newConfigDocument()
	}
	if doc.Servers == nil {
		doc.Servers = make(map[string]*ServerSpec)
	}
	for name, spec := range doc.Servers {
		if spec == nil {
			delete(doc.Servers, name)
		}
	}
	return doc
}

func (s *Store) write(doc *ConfigDocument) error {
	if doc == nil {
		doc = newConfigDocument()
	}
	if doc.Servers == nil {
		doc.Servers = make(map[string]*ServerSpec)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode servers file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".mcp_config-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}

	logging.Debug("Store", "Saved %d server(s) to %s", len(doc.Servers), s.path)
	return nil
}
