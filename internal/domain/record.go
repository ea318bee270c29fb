// Package domain holds the entities the admin panel manages: hosting
// packages, customers, and the orders linking them.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is wrapped by every entity and patch validation failure.
var ErrValidation = errors.New("validation failed")

// Record carries the identity and audit timestamps stamped by the record store.
type Record struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Meta returns the embedded record header.
func (r *Record) Meta() *Record { return r }

// Status values shared across entities.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
	StatusSuspended = "suspended"
)

// Billing cycles.
const (
	CycleMonthly = "monthly"
	CycleYearly  = "yearly"
)

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, fmt.Sprintf(format, args...))
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalid(field, "must be one of %s, got %q", strings.Join(allowed, ", "), value)
}
