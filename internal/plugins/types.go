// Package plugins provides the plugin architecture used to select the
// key-value substrate at startup without modifying core code.
//
// Plugin Types:
//   - StorageProvider: a kv.Store backend (memory, sqlite, postgres, badger, s3)
//
// Adding new plugins:
//  1. Implement StorageProvider
//  2. Register the plugin with the Registry in an init() function
//  3. Select it via HOSTPANEL_STORAGE
package plugins

import (
	"context"
	"errors"
	"time"

	"github.com/jscorp/hostpanel/internal/kv"
)

// Common errors returned by plugins.
var (
	ErrPluginNotFound   = errors.New("plugin not found")
	ErrPluginNotReady   = errors.New("plugin not ready")
	ErrInvalidConfig    = errors.New("invalid plugin configuration")
	ErrConnectionFailed = errors.New("connection failed")
)

// PluginType represents the category of a plugin.
type PluginType string

const (
	PluginTypeStorage PluginType = "storage"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns the unique identifier for this plugin.
	Name() string

	// Type returns the plugin type.
	Type() PluginType

	// Version returns the plugin version.
	Version() string

	// Description returns a human-readable description.
	Description() string

	// Initialize sets up the plugin with the given configuration.
	// Called once during application startup.
	Initialize(ctx context.Context, config map[string]string) error

	// Healthy returns true if the plugin is operational.
	Healthy(ctx context.Context) bool

	// Close releases any resources held by the plugin.
	Close() error
}

// StorageProvider is a Plugin that serves as the key-value substrate.
type StorageProvider interface {
	Plugin
	kv.Store
}

// PluginInfo contains metadata about a registered plugin.
type PluginInfo struct {
	Name        string     `json:"name"`
	Type        PluginType `json:"type"`
	Version     string     `json:"version"`
	Description string     `json:"description"`
}

// HealthStatus represents the health check result for a plugin.
type HealthStatus struct {
	PluginName string     `json:"plugin_name"`
	PluginType PluginType `json:"plugin_type"`
	Healthy    bool       `json:"healthy"`
	Message    string     `json:"message,omitempty"`
	CheckedAt  time.Time  `json:"checked_at"`
}

// PluginFactory is a function that creates a new instance of a plugin.
type PluginFactory func() Plugin
