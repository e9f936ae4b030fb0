package licensing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Store handles license persistence as JSON files on disk. It is the
// development fallback when no DATABASE_URL is configured, and doubles as
// the unit-test store. All writes happen under one mutex, which trivially
// serializes the first-use binding CAS.
type Store struct {
	dataDir  string
	licenses map[string]*License            // key: license key
	grants   map[string]map[string]struct{} // subject -> feature names
	order    []string                       // license keys in insertion order
	mu       sync.RWMutex
}

// NewStore creates a new file-backed license store
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	s := &Store{
		dataDir:  dataDir,
		licenses: make(map[string]*License),
		grants:   make(map[string]map[string]struct{}),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// CreateLicense stores a new license
func (s *Store) CreateLicense(_ context.Context, license *License) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.licenses[license.Key]; exists {
		return fmt.Errorf("license key already exists: %s", license.Key)
	}

	copied := *license
	s.licenses[license.Key] = &copied
	s.order = append(s.order, license.Key)

	return s.save()
}

// GetLicenseByKey retrieves a license by its key
func (s *Store) GetLicenseByKey(_ context.Context, key string) (*License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	license, ok := s.licenses[key]
	if !ok {
		return nil, ErrLicenseNotFound
	}

	copied := *license
	return &copied, nil
}

// SetExpiry overwrites the expiry date of an existing license
func (s *Store) SetExpiry(_ context.Context, key string, expiresOn time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	license, ok := s.licenses[key]
	if !ok {
		return ErrLicenseNotFound
	}

	license.ExpiresOn = DateOnly(expiresOn)
	return s.save()
}

// SetBoundDevice overwrites the bound device unconditionally (admin override)
func (s *Store) SetBoundDevice(_ context.Context, key, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	license, ok := s.licenses[key]
	if !ok {
		return ErrLicenseNotFound
	}

	license.BoundDevice = fingerprint
	return s.save()
}

// BindDevice sets the bound device only if the license is currently unbound
// and returns whatever device ends up bound. The mutex makes the
// read-then-write atomic.
func (s *Store) BindDevice(_ context.Context, key, fingerprint string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	license, ok := s.licenses[key]
	if !ok {
		return "", ErrLicenseNotFound
	}

	if license.BoundDevice == "" && fingerprint != "" {
		license.BoundDevice = fingerprint
		if err := s.save(); err != nil {
			return "", err
		}
	}

	return license.BoundDevice, nil
}

// DeleteLicense removes a license and the grants keyed by its license key
func (s *Store) DeleteLicense(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.licenses[key]; !ok {
		return ErrLicenseNotFound
	}

	delete(s.licenses, key)
	delete(s.grants, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return s.save()
}

// ListLicenses returns all licenses in insertion order
func (s *Store) ListLicenses(_ context.Context) ([]*License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	licenses := make([]*License, 0, len(s.order))
	for _, key := range s.order {
		if license, ok := s.licenses[key]; ok {
			copied := *license
			licenses = append(licenses, &copied)
		}
	}

	return licenses, nil
}

// CountLicenses returns the number of stored licenses
func (s *Store) CountLicenses(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.licenses), nil
}

// ReplaceGrants swaps the full grant set for a subject
func (s *Store) ReplaceGrants(_ context.Context, subject string, features []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	granted := dedupeFeatures(features)
	set := make(map[string]struct{}, len(granted))
	for _, name := range granted {
		set[name] = struct{}{}
	}
	s.grants[subject] = set

	if err := s.save(); err != nil {
		return nil, err
	}

	return granted, nil
}

// GrantsFor returns the feature names granted to a subject, sorted
func (s *Store) GrantsFor(_ context.Context, subject string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	features := []string{}
	for name := range s.grants[subject] {
		features = append(features, name)
	}
	sort.Strings(features)

	return features, nil
}

// storeState is the on-disk representation
type storeState struct {
	Licenses map[string]*License `json:"licenses"`
	Grants   map[string][]string `json:"grants"`
	Order    []string            `json:"order"`
}

// save persists state to disk. Callers hold the write lock.
func (s *Store) save() error {
	state := storeState{
		Licenses: s.licenses,
		Grants:   make(map[string][]string, len(s.grants)),
		Order:    s.order,
	}
	for subject, set := range s.grants {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		state.Grants[subject] = names
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(s.dataDir, "licenses.json")
	return os.WriteFile(path, data, 0600)
}

// load reads state from disk
func (s *Store) load() error {
	path := filepath.Join(s.dataDir, "licenses.json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No licenses yet
		}
		return err
	}

	var state storeState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	if state.Licenses != nil {
		s.licenses = state.Licenses
	}
	s.order = state.Order
	for subject, names := range state.Grants {
		set := make(map[string]struct{}, len(names))
		for _, name := range names {
			set[name] = struct{}{}
		}
		s.grants[subject] = set
	}

	// Rebuild insertion order for files written before order was recorded
	if len(s.order) != len(s.licenses) {
		s.order = s.order[:0]
		for key := range s.licenses {
			s.order = append(s.order, key)
		}
		sort.Slice(s.order, func(i, j int) bool {
			return s.licenses[s.order[i]].CreatedAt.Before(s.licenses[s.order[j]].CreatedAt)
		})
	}

	return nil
}

// Ping checks if store is accessible (always succeeds for file-based store)
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for file-based store
func (s *Store) Close() error {
	return nil
}
