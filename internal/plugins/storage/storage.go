// Package storage provides the StorageProvider plugins that back the
// key-value substrate.
//
// Built-in providers:
//   - sqlite: SQLite database through internal/db (default)
//   - postgres: PostgreSQL through internal/db
//   - badger: embedded Badger LSM store
//   - s3: one object per key in an S3-compatible bucket
//   - memory: in-process map (for testing and demos)
//
// To add a new storage provider:
//  1. Create a new file implementing plugins.StorageProvider
//  2. Register it in init() using plugins.RegisterGlobal()
//  3. Select it with HOSTPANEL_STORAGE
package storage

import (
	"fmt"

	"github.com/jscorp/hostpanel/internal/plugins"
)

func requireConfig(config map[string]string, key string) (string, error) {
	v := config[key]
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", plugins.ErrInvalidConfig, key)
	}
	return v, nil
}
