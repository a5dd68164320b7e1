package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// PrefStore persists small UI preferences between invocations. Each key is
// stored as its own file under the store directory; a missing file means the
// preference is unset. Get returns ("", nil) for unset keys, Set overwrites,
// and Clear removes the key (clearing an unset key is not an error).
//
// The only preference currently stored is the last selected region.
type PrefStore struct {
	dir string
}

// RegionKey is the preference key for the last selected region.
const RegionKey = "region"

var prefKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)

// NewPrefStore returns a store rooted at dir. The directory is created on
// first Set, not here, so constructing a store never touches the filesystem.
func NewPrefStore(dir string) *PrefStore {
	return &PrefStore{dir: dir}
}

// DefaultPrefStore returns the store at the user-level preferences
// directory (~/.config/carelink on most systems).
func DefaultPrefStore() (*PrefStore, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving user config directory: %w", err)
	}
	return NewPrefStore(filepath.Join(base, "carelink")), nil
}

func (s *PrefStore) path(key string) (string, error) {
	if !prefKeyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid preference key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Get returns the stored value for key, or "" when unset.
func (s *PrefStore) Get(key string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading preference %s: %w", key, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Set stores value under key, creating the store directory if needed.
func (s *PrefStore) Set(key, value string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating preference directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(value+"\n"), 0600); err != nil {
		return fmt.Errorf("writing preference %s: %w", key, err)
	}
	return nil
}

// Clear removes the stored value for key. Clearing an unset key is a no-op.
func (s *PrefStore) Clear(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing preference %s: %w", key, err)
	}
	return nil
}

// LastRegion returns the last selected region, or "" when never set.
func (s *PrefStore) LastRegion() (string, error) {
	return s.Get(RegionKey)
}

// SetLastRegion validates and stores the region selection.
func (s *PrefStore) SetLastRegion(region string) error {
	canonical := CanonicalRegion(region)
	if canonical == "" {
		return fmt.Errorf("unknown region %q", region)
	}
	return s.Set(RegionKey, canonical)
}
