// Package prefs stores display preferences as plain strings in the
// key-value substrate.
package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jscorp/hostpanel/internal/kv"
)

// ThemeSlot is the key holding the theme preference.
const ThemeSlot = "theme"

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ErrInvalidTheme is returned by Set for values other than light and
// dark.
var ErrInvalidTheme = errors.New("theme must be light or dark")

// Themes reads and writes the theme preference.
type Themes struct {
	store kv.Store
}

// NewThemes creates a Themes over store.
func NewThemes(store kv.Store) *Themes {
	return &Themes{store: store}
}

// Get returns the stored theme, or light when none is stored or the stored
// value is unrecognized.
func (t *Themes) Get(ctx context.Context) (string, error) {
	v, ok, err := t.store.Get(ctx, ThemeSlot)
	if err != nil {
		return "", fmt.Errorf("read theme: %w", err)
	}
	if !ok || (v != ThemeLight && v != ThemeDark) {
		return ThemeLight, nil
	}
	return v, nil
}

// Set stores theme.
func (t *Themes) Set(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	if err := t.store.Set(ctx, ThemeSlot, theme); err != nil {
		return fmt.Errorf("write theme: %w", err)
	}
	return nil
}

// Toggle flips between light and dark and returns the new theme.
func (t *Themes) Toggle(ctx context.Context) (string, error) {
	current, err := t.Get(ctx)
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if current == ThemeDark {
		next = ThemeLight
	}
	return next, t.Set(ctx, next)
}
