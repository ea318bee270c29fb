package storage

import (
	"context"
	"log"
	"sync"

	"github.com/jscorp/hostpanel/internal/plugins"
)

// MemoryStorage keeps every slot in a map. Contents are lost on restart.
type MemoryStorage struct {
	mu    sync.RWMutex
	slots map[string]string
}

func init() {
	plugins.RegisterGlobal(plugins.PluginTypeStorage, "memory", func() plugins.Plugin {
		return NewMemoryStorage()
	})
}

// NewMemoryStorage creates a new in-memory storage provider.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: make(map[string]string)}
}

// Name returns the plugin name.
func (s *MemoryStorage) Name() string {
	return "memory"
}

// Type returns the plugin type.
func (s *MemoryStorage) Type() plugins.PluginType {
	return plugins.PluginTypeStorage
}

// Version returns the plugin version.
func (s *MemoryStorage) Version() string {
	return "1.0.0"
}

// Description returns a human-readable description.
func (s *MemoryStorage) Description() string {
	return "In-memory storage provider for testing and development"
}

// Initialize sets up the plugin with configuration.
func (s *MemoryStorage) Initialize(ctx context.Context, config map[string]string) error {
	log.Printf("Memory storage initialized")
	return nil
}

// Healthy returns true if the plugin is operational.
func (s *MemoryStorage) Healthy(ctx context.Context) bool {
	return true
}

// Close drops all slots.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = make(map[string]string)
	return nil
}

// Get implements kv.Store.
func (s *MemoryStorage) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.slots[key]
	return v, ok, nil
}

// Set implements kv.Store.
func (s *MemoryStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = value
	return nil
}

// Remove implements kv.Store.
func (s *MemoryStorage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	return nil
}
