// Package store implements the record, client and company-profile stores.
//
// Two backends are available:
//   - FirestoreStore reads the production collections through cloud.google.com/go/firestore
//   - FixtureStore keeps everything in a YAML file, for offline use and tests
//
// Both hand stored documents to the loose decoders in pkg/models, so missing or mistyped
// fields become zero values instead of errors.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"ledgerdoc/pkg/models"
)

// fixtureFile is the on-disk layout of a fixture.
type fixtureFile struct {
	Records         map[string]map[string]any `yaml:"records"`
	Clients         map[string]map[string]any `yaml:"clients"`
	CompanyProfiles []map[string]any          `yaml:"companyProfiles"`
}

// FixtureStore is a file-backed store. Updates are applied in memory and written back to the
// file when the store was loaded from one.
type FixtureStore struct {
	mu   sync.RWMutex
	path string
	data fixtureFile
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*FixtureStore, error) {
	const op = "LoadFixture"

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapStoreError(op, err, path)
	}
	s, err := ParseFixture(raw)
	if err != nil {
		return nil, WrapStoreError(op, err, path)
	}
	s.path = path
	return s, nil
}

// ParseFixture builds an in-memory store from YAML. Updates are not persisted anywhere.
func ParseFixture(raw []byte) (*FixtureStore, error) {
	var data fixtureFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	if data.Records == nil {
		data.Records = map[string]map[string]any{}
	}
	if data.Clients == nil {
		data.Clients = map[string]map[string]any{}
	}
	return &FixtureStore{data: data}, nil
}

// GetRecord implements services.RecordStore.
func (s *FixtureStore) GetRecord(_ context.Context, id string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data.Records[id]
	if !ok {
		return nil, WrapStoreError("GetRecord", ErrNotFound, "record "+id)
	}
	return models.RecordFromMap(id, doc), nil
}

// UpdateRecord implements services.RecordStore.
func (s *FixtureStore) UpdateRecord(_ context.Context, id string, fields map[string]any) error {
	const op = "UpdateRecord"

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.data.Records[id]
	if !ok {
		return WrapStoreError(op, ErrNotFound, "record "+id)
	}

	updated := make(map[string]any, len(doc)+len(fields))
	for key, value := range doc {
		updated[key] = value
	}
	for key, value := range fields {
		updated[key] = value
	}

	s.data.Records[id] = updated
	if s.path == "" {
		return nil
	}
	if err := s.writeLocked(); err != nil {
		// memory must keep matching the file
		s.data.Records[id] = doc
		return WrapStoreError(op, err, s.path)
	}
	return nil
}

// GetClient implements services.ClientStore.
func (s *FixtureStore) GetClient(_ context.Context, id string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data.Clients[id]
	if !ok {
		return nil, WrapStoreError("GetClient", ErrNotFound, "client "+id)
	}
	return models.ClientFromMap(id, doc), nil
}

// FindCompanyProfile implements services.CompanyProfileStore. Countries compare case-insensitively.
func (s *FixtureStore) FindCompanyProfile(_ context.Context, country string) (*models.CompanyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := strings.TrimSpace(country)
	for _, doc := range s.data.CompanyProfiles {
		p := models.CompanyProfileFromMap(doc)
		if strings.EqualFold(strings.TrimSpace(p.Country), want) {
			return p, nil
		}
	}
	return nil, nil
}

// RecordIDs lists the stored record ids in order.
func (s *FixtureStore) RecordIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data.Records))
	for id := range s.data.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// writeLocked replaces the fixture file atomically. The caller holds the write lock.
func (s *FixtureStore) writeLocked() error {
	raw, err := yaml.Marshal(&s.data)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".fixture-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
