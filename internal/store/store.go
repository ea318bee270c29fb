// Package store implements CRUD over named record collections. Each
// collection is persisted as one JSON array under its collection name in a
// kv.Store. Every operation reads the whole array, modifies it in memory, and
// writes the whole array back.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jscorp/hostpanel/internal/kv"
)

// Collection names.
const (
	Packages  = "packages"
	Customers = "customers"
	Orders    = "orders"
)

// TimestampLayout is the ISO-8601 form used for created_at and updated_at.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrUnknownCollection is returned when a collection name is not one of
// Packages, Customers or Orders.
var ErrUnknownCollection = errors.New("unknown collection")

// Notifier receives change notifications for the packages collection. The
// payload is the full serialized collection after the write.
type Notifier interface {
	Publish(topic string, payload []byte)
}

// WriteObserver is told about every persisted write.
type WriteObserver interface {
	ObserveWrite(collection, op string)
}

// Store is the shared state behind every Collection: the substrate, the
// change notifier, the clock, and a mutex serializing read-modify-write
// cycles within this process.
type Store struct {
	kv       kv.Store
	notifier Notifier
	observer WriteObserver
	now      func() time.Time
	suffix   func() string

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the packages change notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithObserver sets the write observer.
func WithObserver(o WriteObserver) Option {
	return func(s *Store) { s.observer = o }
}

// WithClock overrides time.Now for id generation and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store over the given substrate.
func New(substrate kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:     substrate,
		now:    time.Now,
		suffix: randomSuffix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KnownCollection reports whether name is one of the managed collections.
func KnownCollection(name string) bool {
	switch name {
	case Packages, Customers, Orders:
		return true
	}
	return false
}

// Clear removes the named collection's slot entirely.
func (s *Store) Clear(ctx context.Context, collection string) error {
	if !KnownCollection(collection) {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Remove(ctx, collection); err != nil {
		return fmt.Errorf("clear %s: %w", collection, err)
	}
	s.observe(collection, "clear")
	return nil
}

// load reads and decodes a collection. A missing slot is an empty
// collection; so is malformed content, which is logged and otherwise ignored.
func load[T any](ctx context.Context, s *Store, collection string) ([]T, error) {
	raw, ok, err := s.kv.Get(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		slog.Warn("Ignoring malformed collection content", "collection", collection, "error", err)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// save encodes and writes a collection, then notifies observers. Only
// package creates and updates are published; deletes are not.
func save[T any](ctx context.Context, s *Store, collection, op string, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := s.kv.Set(ctx, collection, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}
	s.observe(collection, op)
	if collection == Packages && op != "delete" && s.notifier != nil {
		s.notifier.Publish(Packages, raw)
	}
	return nil
}

func (s *Store) observe(collection, op string) {
	if s.observer != nil {
		s.observer.ObserveWrite(collection, op)
	}
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(TimestampLayout)
}
