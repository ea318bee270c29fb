// Package db persists key-value slots in a relational database through bun.
// SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq) are supported; the
// schema is managed by golang-migrate from embedded SQL files.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"
)

// Slot is one key-value entry.
type Slot struct {
	bun.BaseModel `bun:"table:kv_slots"`

	Key       string    `bun:"slot,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// DB wraps a bun connection to the slots table.
type DB struct {
	bun    *bun.DB
	dbType string
}

// DBType returns "sqlite" or "postgres".
func (db *DB) DBType() string {
	return db.dbType
}

// Open opens a SQLite database at the given path.
func Open(dbPath string) (*DB, error) {
	return OpenDB("sqlite", dbPath)
}

// OpenDB connects to the database, applies pending migrations and wraps the
// connection with the matching bun dialect.
func OpenDB(dbType, dsn string) (*DB, error) {
	var driverName string
	switch dbType {
	case "sqlite":
		driverName = "sqlite"
	case "postgres":
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	// In-memory SQLite needs a shared cache so the migration connection
	// sees the same database.
	migrateDSN := dsn
	if dbType == "sqlite" && dsn == ":memory:" {
		dsn = "file::memory:?cache=shared"
		migrateDSN = dsn
	}

	if dbType == "sqlite" {
		dsn = withSQLitePragmas(dsn)
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbType == "sqlite" {
		// The open connection keeps a shared in-memory database alive while
		// migrations run on their own connection.
		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		// SQLite allows one writer at a time. A single pooled connection
		// serializes slot writes from the store, the gate and prefs.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	}

	if err := runMigrations(dbType, migrateDSN); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	var bunDB *bun.DB
	switch dbType {
	case "sqlite":
		bunDB = bun.NewDB(conn, sqlitedialect.New())
	case "postgres":
		bunDB = bun.NewDB(conn, pgdialect.New())
	}

	return &DB{bun: bunDB, dbType: dbType}, nil
}

// sqlitePragmas are applied by the driver to every new connection.
var sqlitePragmas = []string{
	"_pragma=busy_timeout(5000)",
	"_pragma=journal_mode(WAL)",
}

// withSQLitePragmas appends the connection pragmas to a modernc.org/sqlite
// DSN, keeping any query parameters already present.
func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(sqlitePragmas, "&")
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.bun.Close()
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.bun.PingContext(ctx)
}

// Get returns the value stored under key. A missing key reports ok=false.
func (db *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var slot Slot
	err := db.bun.NewSelect().Model(&slot).Where("slot = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return slot.Value, true, nil
}

// Set inserts or replaces the value under key.
func (db *DB) Set(ctx context.Context, key, value string) error {
	slot := Slot{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := db.bun.NewInsert().
		Model(&slot).
		On("CONFLICT (slot) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// Remove deletes key. Removing a missing key is not an error.
func (db *DB) Remove(ctx context.Context, key string) error {
	_, err := db.bun.NewDelete().Model((*Slot)(nil)).Where("slot = ?", key).Exec(ctx)
	return err
}

// Keys lists every stored key in ascending order.
func (db *DB) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := db.bun.NewSelect().Model((*Slot)(nil)).Column("slot").Order("slot").Scan(ctx, &keys)
	return keys, err
}

// Truncate removes every slot.
func (db *DB) Truncate(ctx context.Context) error {
	_, err := db.bun.NewTruncateTable().Model((*Slot)(nil)).Exec(ctx)
	return err
}
