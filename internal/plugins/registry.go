package plugins

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides access to the active
// storage provider.
type Registry struct {
	mu sync.RWMutex

	// factories stores plugin factories by type and name
	factories map[PluginType]map[string]PluginFactory

	activeStorage StorageProvider
}

// RegistryConfig holds configuration for the plugin registry.
type RegistryConfig struct {
	// Storage is the name of the storage plugin to use.
	Storage string

	// PluginConfigs holds configuration for individual plugins.
	// Key format: "type.name" (e.g., "storage.sqlite", "storage.s3")
	PluginConfigs map[string]map[string]string
}

// DefaultRegistryConfig returns the default registry configuration.
func DefaultRegistryConfig() *RegistryConfig {
	return &RegistryConfig{
		Storage:       "sqlite",
		PluginConfigs: make(map[string]map[string]string),
	}
}

// SetStorageConfig stores the configuration map for the named storage plugin.
func (c *RegistryConfig) SetStorageConfig(name string, config map[string]string) {
	if c.PluginConfigs == nil {
		c.PluginConfigs = make(map[string]map[string]string)
	}
	c.PluginConfigs[configKey(PluginTypeStorage, name)] = config
}

func configKey(pluginType PluginType, name string) string {
	return fmt.Sprintf("%s.%s", pluginType, name)
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: map[PluginType]map[string]PluginFactory{
			PluginTypeStorage: make(map[string]PluginFactory),
		},
	}
}

// Register adds a plugin factory to the registry.
// This should be called during init() in plugin packages.
func (r *Registry) Register(pluginType PluginType, name string, factory PluginFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[pluginType]; !exists {
		return fmt.Errorf("unknown plugin type: %s", pluginType)
	}

	if _, exists := r.factories[pluginType][name]; exists {
		return fmt.Errorf("plugin already registered: %s.%s", pluginType, name)
	}

	r.factories[pluginType][name] = factory
	log.Printf("Registered plugin: %s.%s", pluginType, name)
	return nil
}

// Initialize creates and initializes the configured storage plugin.
func (r *Registry) Initialize(ctx context.Context, cfg *RegistryConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.initStorage(ctx, strings.ToLower(cfg.Storage), cfg.PluginConfigs); err != nil {
		return fmt.Errorf("failed to initialize storage plugin: %w", err)
	}
	return nil
}

func (r *Registry) initStorage(ctx context.Context, name string, configs map[string]map[string]string) error {
	factory, exists := r.factories[PluginTypeStorage][name]
	if !exists {
		return fmt.Errorf("%w: storage.%s", ErrPluginNotFound, name)
	}

	plugin := factory()
	storage, ok := plugin.(StorageProvider)
	if !ok {
		return fmt.Errorf("plugin %s does not implement StorageProvider", name)
	}

	pluginConfig := configs[configKey(PluginTypeStorage, name)]
	if pluginConfig == nil {
		pluginConfig = make(map[string]string)
	}

	if err := storage.Initialize(ctx, pluginConfig); err != nil {
		return fmt.Errorf("failed to initialize %s: %w", name, err)
	}

	r.activeStorage = storage
	log.Printf("Initialized storage plugin: %s", name)
	return nil
}

// Storage returns the active storage plugin, or nil before Initialize.
func (r *Registry) Storage() StorageProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeStorage
}

// ListPluginsByType returns information about plugins of a specific type,
// sorted by name.
func (r *Registry) ListPluginsByType(pluginType PluginType) []PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var plugins []PluginInfo

	if factories, exists := r.factories[pluginType]; exists {
		for name, factory := range factories {
			plugin := factory()
			plugins = append(plugins, PluginInfo{
				Name:        name,
				Type:        pluginType,
				Version:     plugin.Version(),
				Description: plugin.Description(),
			})
		}
	}

	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name < plugins[j].Name })
	return plugins
}

// HealthCheck performs health checks on all active plugins.
func (r *Registry) HealthCheck(ctx context.Context) []HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var statuses []HealthStatus
	if r.activeStorage != nil {
		statuses = append(statuses, checkHealth(ctx, r.activeStorage))
	}
	return statuses
}

func checkHealth(ctx context.Context, plugin Plugin) HealthStatus {
	healthy := plugin.Healthy(ctx)
	status := HealthStatus{
		PluginName: plugin.Name(),
		PluginType: plugin.Type(),
		Healthy:    healthy,
		CheckedAt:  time.Now(),
	}

	if healthy {
		status.Message = "OK"
	} else {
		status.Message = "Unhealthy"
	}

	return status
}

// Close releases resources for all active plugins.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeStorage != nil {
		if err := r.activeStorage.Close(); err != nil {
			return fmt.Errorf("storage close: %w", err)
		}
		r.activeStorage = nil
	}
	return nil
}

// Global registry instance
var globalRegistry *Registry
var globalRegistryOnce sync.Once

// Global returns the global plugin registry.
func Global() *Registry {
	globalRegistryOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// RegisterGlobal registers a plugin with the global registry.
// This is a convenience function for use in plugin init() functions.
func RegisterGlobal(pluginType PluginType, name string, factory PluginFactory) {
	if err := Global().Register(pluginType, name, factory); err != nil {
		log.Printf("Warning: failed to register plugin %s.%s: %v", pluginType, name, err)
	}
}
