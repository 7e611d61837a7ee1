package storage

import (
	"fmt"
	"sort"
	"sync"

	"webhook-ratelimiter/internal/common/errors"
)

// Registry maps backend type names to factories.
type Registry struct {
	factories map[string]BackendFactory
	mu        sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]BackendFactory),
	}
}

func (r *Registry) Register(backendType string, factory BackendFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[backendType] = factory
}

// Create builds a backend of the given type. config is validated first.
func (r *Registry) Create(backendType string, config BackendConfig) (Backend, error) {
	r.mu.RLock()
	factory, exists := r.factories[backendType]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.ConfigError(fmt.Sprintf("storage type %s not registered", backendType))
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("invalid %s storage config: %v", backendType, err))
	}

	return factory.Create(config)
}

// GetAvailableTypes returns the registered type names in sorted order.
func (r *Registry) GetAvailableTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for backendType := range r.factories {
		types = append(types, backendType)
	}
	sort.Strings(types)
	return types
}

func (r *Registry) IsRegistered(backendType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[backendType]
	return exists
}

var DefaultRegistry = NewRegistry()

func Register(backendType string, factory BackendFactory) {
	DefaultRegistry.Register(backendType, factory)
}

func Create(backendType string, config BackendConfig) (Backend, error) {
	return DefaultRegistry.Create(backendType, config)
}

func GetAvailableTypes() []string {
	return DefaultRegistry.GetAvailableTypes()
}
