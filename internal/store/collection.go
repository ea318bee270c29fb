package store

import (
	"context"
	"fmt"

	"github.com/jscorp/hostpanel/internal/domain"
)

// Entity is satisfied by pointers to the domain records: they expose their
// record header and can validate themselves.
type Entity[T any] interface {
	*T
	Meta() *domain.Record
	Validate() error
}

// Patch merges a partial update into a record. Implementations validate the
// merged result and leave the record untouched on error.
type Patch[T any] interface {
	Apply(*T) error
}

// Collection is a typed view of one named collection.
type Collection[T any, P Entity[T]] struct {
	store *Store
	name  string
}

// Typed collections for the three managed entities.
type (
	PackageCollection  = Collection[domain.Package, *domain.Package]
	CustomerCollection = Collection[domain.Customer, *domain.Customer]
	OrderCollection    = Collection[domain.Order, *domain.Order]
)

// NewCollection returns a typed view of the named collection.
func NewCollection[T any, P Entity[T]](s *Store, name string) *Collection[T, P] {
	return &Collection[T, P]{store: s, name: name}
}

// PackagesOf returns the packages collection of s.
func PackagesOf(s *Store) *PackageCollection {
	return NewCollection[domain.Package](s, Packages)
}

// CustomersOf returns the customers collection of s.
func CustomersOf(s *Store) *CustomerCollection {
	return NewCollection[domain.Customer](s, Customers)
}

// OrdersOf returns the orders collection of s.
func OrdersOf(s *Store) *OrderCollection {
	return NewCollection[domain.Order](s, Orders)
}

// Name returns the collection name.
func (c *Collection[T, P]) Name() string { return c.name }

// GetAll returns every record in insertion order.
func (c *Collection[T, P]) GetAll(ctx context.Context) ([]T, error) {
	return load[T](ctx, c.store, c.name)
}

// GetByID returns the first record with the given id, or nil when there is
// none.
func (c *Collection[T, P]) GetByID(ctx context.Context, id string) (*T, error) {
	items, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if P(&items[i]).Meta().ID == id {
			return &items[i], nil
		}
	}
	return nil, nil
}

// Create validates item, stamps a fresh id and timestamps into it, appends it
// and persists the collection. Any id or timestamps already on item are
// overwritten.
func (c *Collection[T, P]) Create(ctx context.Context, item T) (*T, error) {
	if err := P(&item).Validate(); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	items, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now := c.store.now()
	meta := P(&item).Meta()
	meta.ID = c.newID(now, items)
	meta.CreatedAt = now.UTC().Format(TimestampLayout)
	meta.UpdatedAt = meta.CreatedAt

	items = append(items, item)
	if err := save(ctx, c.store, c.name, "create", items); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update applies patch to the record with the given id and refreshes its
// updated_at. An unknown id returns nil without error and writes nothing.
func (c *Collection[T, P]) Update(ctx context.Context, id string, patch Patch[T]) (*T, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	items, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range items {
		meta := P(&items[i]).Meta()
		if meta.ID != id {
			continue
		}
		header := *meta
		if err := patch.Apply(&items[i]); err != nil {
			return nil, err
		}
		// Patches cannot move a record's identity or creation time.
		meta = P(&items[i]).Meta()
		meta.ID = header.ID
		meta.CreatedAt = header.CreatedAt
		meta.UpdatedAt = c.store.timestamp()

		if err := save(ctx, c.store, c.name, "update", items); err != nil {
			return nil, err
		}
		updated := items[i]
		return &updated, nil
	}
	return nil, nil
}

// Delete removes the record with the given id. Deleting an unknown id is a
// no-op that still reports true. No referencing record is touched.
func (c *Collection[T, P]) Delete(ctx context.Context, id string) (bool, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	items, err := c.GetAll(ctx)
	if err != nil {
		return false, err
	}

	kept := items[:0]
	for i := range items {
		if P(&items[i]).Meta().ID != id {
			kept = append(kept, items[i])
		}
	}
	if len(kept) == len(items) {
		return true, nil
	}
	if err := save(ctx, c.store, c.name, "delete", kept); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes the whole collection.
func (c *Collection[T, P]) Clear(ctx context.Context) error {
	return c.store.Clear(ctx, c.name)
}

// Search returns the records where any of fields, rendered as text, contains
// query case-insensitively. An empty query returns everything.
func (c *Collection[T, P]) Search(ctx context.Context, query string, fields []string) ([]T, error) {
	items, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return items, nil
	}

	m := newMatcher(query)
	out := make([]T, 0, len(items))
	for i := range items {
		ok, err := m.matchRecord(&items[i], fields)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", c.name, err)
		}
		if ok {
			out = append(out, items[i])
		}
	}
	return out, nil
}
