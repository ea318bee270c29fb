package storage

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dgraph-io/badger/v4"

	"github.com/jscorp/hostpanel/internal/plugins"
)

// BadgerStorage keeps slots in an embedded Badger database. An empty "dir"
// config value runs Badger fully in memory.
type BadgerStorage struct {
	db *badger.DB
}

func init() {
	plugins.RegisterGlobal(plugins.PluginTypeStorage, "badger", func() plugins.Plugin {
		return NewBadgerStorage()
	})
}

// NewBadgerStorage creates an uninitialized Badger provider.
func NewBadgerStorage() *BadgerStorage {
	return &BadgerStorage{}
}

// Name returns the plugin name.
func (s *BadgerStorage) Name() string {
	return "badger"
}

// Type returns the plugin type.
func (s *BadgerStorage) Type() plugins.PluginType {
	return plugins.PluginTypeStorage
}

// Version returns the plugin version.
func (s *BadgerStorage) Version() string {
	return "1.0.0"
}

// Description returns a human-readable description.
func (s *BadgerStorage) Description() string {
	return "Embedded Badger key-value storage provider"
}

// Initialize opens the Badger directory named by the "dir" config key.
func (s *BadgerStorage) Initialize(ctx context.Context, config map[string]string) error {
	dir := config["dir"]
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	database, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("%w: open badger: %v", plugins.ErrConnectionFailed, err)
	}
	s.db = database
	log.Printf("Badger storage initialized (dir=%q)", dir)
	return nil
}

// Healthy returns true while the database is open.
func (s *BadgerStorage) Healthy(ctx context.Context) bool {
	return s.db != nil && !s.db.IsClosed()
}

// Close closes the database.
func (s *BadgerStorage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Get implements kv.Store.
func (s *BadgerStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if s.db == nil {
		return "", false, plugins.ErrPluginNotReady
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(value), true, nil
}

// Set implements kv.Store.
func (s *BadgerStorage) Set(ctx context.Context, key, value string) error {
	if s.db == nil {
		return plugins.ErrPluginNotReady
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

// Remove implements kv.Store.
func (s *BadgerStorage) Remove(ctx context.Context, key string) error {
	if s.db == nil {
		return plugins.ErrPluginNotReady
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
