package builtin

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/modhost/internal/logging"
)

// DefaultStoreKey is the reload key a Store reports when none is configured.
const DefaultStoreKey = "kv"

// StoreSettings configures a Store.
type StoreSettings struct {
	// File is an optional YAML mapping of string keys to string values,
	// read on Load and on every Reload.
	File string `mapstructure:"file"`
	// Seed values are applied before the file's.
	Seed map[string]string `mapstructure:"seed"`
	// ReloadKey overrides DefaultStoreKey.
	ReloadKey string `mapstructure:"reload_key"`
}

// Store is an in-memory string map.
type Store struct {
	settings StoreSettings
	logger   *logging.Logger

	mu   sync.RWMutex
	data map[string]string
}

// NewStore creates a store from manifest settings.
func NewStore(settings map[string]any, logger *logging.Logger) (*Store, error) {
	var s StoreSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	if s.ReloadKey == "" {
		s.ReloadKey = DefaultStoreKey
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Store{settings: s, logger: logger, data: make(map[string]string)}, nil
}

// Load fills the store from its seed and file.
func (s *Store) Load(context.Context) error {
	data, err := s.read()
	if err != nil {
		return err
	}
	s.swap(data)
	s.logger.Info("store loaded", "keys", len(data))
	return nil
}

// Unload drops every value.
func (s *Store) Unload(context.Context) error {
	s.swap(make(map[string]string))
	return nil
}

// ReloadKey implements component.Reloadable.
func (s *Store) ReloadKey() string { return s.settings.ReloadKey }

// Reload re-reads the file. On failure the current values are kept.
func (s *Store) Reload(context.Context) error {
	data, err := s.read()
	if err != nil {
		return err
	}
	s.swap(data)
	s.logger.Info("store reloaded", "keys", len(data))
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores value under key until the next Load or Reload.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Keys returns the stored keys, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data))
}

// Len returns the number of stored values.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *Store) swap(data map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}

func (s *Store) read() (map[string]string, error) {
	data := maps.Clone(s.settings.Seed)
	if data == nil {
		data = make(map[string]string)
	}
	if s.settings.File == "" {
		return data, nil
	}

	raw, err := os.ReadFile(s.settings.File)
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	var fromFile map[string]string
	if err := yaml.Unmarshal(raw, &fromFile); err != nil {
		return nil, fmt.Errorf("parse store file %s: %w", s.settings.File, err)
	}
	maps.Copy(data, fromFile)
	return data, nil
}
