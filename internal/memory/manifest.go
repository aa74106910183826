package memory

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// ManifestEntry summarizes one document without requiring a body read.
type ManifestEntry struct {
	ID   string   `json:"id"`
	Kind Kind     `json:"kind"`
	Path string   `json:"path"`
	Tags []string `json:"tags"`
}

// Manifest is the summary list the gardener and hygiene checker walk.
type Manifest struct {
	Docs []ManifestEntry `json:"docs"`
}

// ManifestStore guards the manifest.json file with a mutex, mirroring the
// config package's JSON-file-backed Store pattern.
type ManifestStore struct {
	mu   sync.RWMutex
	path string
}

// NewManifestStore returns a store rooted at path (typically
// paths.ManifestFile(workspaceRoot)). The file is created empty if absent.
func NewManifestStore(path string) (*ManifestStore, error) {
	s := &ManifestStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.save(Manifest{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ManifestStore) Load() (Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return Manifest{}, errs.Io("failed to read manifest", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, errs.Parse("failed to parse manifest json", err)
	}
	return m, nil
}

func (s *ManifestStore) save(m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errs.Io("failed to marshal manifest", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errs.Io("failed to write manifest", err)
	}
	return nil
}

func (s *ManifestStore) Save(m Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(m)
}

// Upsert inserts or replaces the entry with the same id, then persists.
func (s *ManifestStore) Upsert(entry ManifestEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := func() (Manifest, error) {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return Manifest{}, errs.Io("failed to read manifest", err)
		}
		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return Manifest{}, errs.Parse("failed to parse manifest json", err)
		}
		return m, nil
	}()
	if err != nil {
		return err
	}

	replaced := false
	for i, e := range m.Docs {
		if e.ID == entry.ID {
			m.Docs[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		m.Docs = append(m.Docs, entry)
	}

	return s.save(m)
}

// Remove deletes the entry with id, if present, then persists.
func (s *ManifestStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return errs.Io("failed to read manifest", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return errs.Parse("failed to parse manifest json", err)
	}

	for i, e := range m.Docs {
		if e.ID == id {
			m.Docs = append(m.Docs[:i], m.Docs[i+1:]...)
			break
		}
	}

	return s.save(m)
}
