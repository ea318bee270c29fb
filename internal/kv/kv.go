// Package kv defines the key-value substrate that every persisted collection,
// the admin session, and the theme preference live in. Each key holds one
// serialized string value; there are no transactions and no key listing.
package kv

import "context"

// Store is a flat string-keyed value store.
//
// Get reports ok=false for a missing key; that is not an error. Remove on a
// missing key is a no-op.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
