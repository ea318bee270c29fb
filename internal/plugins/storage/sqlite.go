package storage

import (
	"context"
	"errors"
	"log"

	"github.com/jscorp/hostpanel/internal/db"
	"github.com/jscorp/hostpanel/internal/plugins"
)

// SQLStorage stores slots in the kv_slots table through internal/db. The
// same type serves both the "sqlite" and "postgres" plugin names.
type SQLStorage struct {
	dbType string
	db     *db.DB
	owned  bool
}

func init() {
	plugins.RegisterGlobal(plugins.PluginTypeStorage, "sqlite", func() plugins.Plugin {
		return NewSQLStorage("sqlite")
	})
	plugins.RegisterGlobal(plugins.PluginTypeStorage, "postgres", func() plugins.Plugin {
		return NewSQLStorage("postgres")
	})
}

// NewSQLStorage creates an uninitialized provider for dbType. Initialize
// opens the database from the "dsn" config key.
func NewSQLStorage(dbType string) *SQLStorage {
	return &SQLStorage{dbType: dbType}
}

// NewSQLStorageWithDB wraps an already open database. Close leaves it open.
func NewSQLStorageWithDB(database *db.DB) *SQLStorage {
	return &SQLStorage{dbType: database.DBType(), db: database}
}

// Name returns the plugin name.
func (s *SQLStorage) Name() string {
	return s.dbType
}

// Type returns the plugin type.
func (s *SQLStorage) Type() plugins.PluginType {
	return plugins.PluginTypeStorage
}

// Version returns the plugin version.
func (s *SQLStorage) Version() string {
	return "1.0.0"
}

// Description returns a human-readable description.
func (s *SQLStorage) Description() string {
	if s.dbType == "postgres" {
		return "PostgreSQL database storage provider"
	}
	return "SQLite database storage provider"
}

// Initialize opens the database and applies migrations.
func (s *SQLStorage) Initialize(ctx context.Context, config map[string]string) error {
	if s.db != nil {
		return nil
	}
	dsn, err := requireConfig(config, "dsn")
	if err != nil {
		return err
	}
	database, err := db.OpenDB(s.dbType, dsn)
	if err != nil {
		return errors.Join(plugins.ErrConnectionFailed, err)
	}
	s.db = database
	s.owned = true
	log.Printf("%s storage plugin initialized", s.dbType)
	return nil
}

// Healthy returns true if the underlying database is reachable.
func (s *SQLStorage) Healthy(ctx context.Context) bool {
	if s.db == nil {
		return false
	}
	return s.db.Ping(ctx) == nil
}

// Close closes the database if this provider opened it.
func (s *SQLStorage) Close() error {
	if s.db == nil || !s.owned {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Get implements kv.Store.
func (s *SQLStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if s.db == nil {
		return "", false, plugins.ErrPluginNotReady
	}
	return s.db.Get(ctx, key)
}

// Set implements kv.Store.
func (s *SQLStorage) Set(ctx context.Context, key, value string) error {
	if s.db == nil {
		return plugins.ErrPluginNotReady
	}
	return s.db.Set(ctx, key, value)
}

// Remove implements kv.Store.
func (s *SQLStorage) Remove(ctx context.Context, key string) error {
	if s.db == nil {
		return plugins.ErrPluginNotReady
	}
	return s.db.Remove(ctx, key)
}
