package services

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrInvalidService is returned when a registration has no name or no value.
	ErrInvalidService = errors.New("invalid service")
	// ErrDuplicateService is returned when a name is registered twice.
	ErrDuplicateService = errors.New("service already registered")
	// ErrServiceNotFound is returned when resolving an unknown name.
	ErrServiceNotFound = errors.New("service not found")
	// ErrServiceType is returned when a service does not have the requested type.
	ErrServiceType = errors.New("service has unexpected type")
)

// Container is the registry hosts resolve shared services from.
// The zero value is not usable; call NewContainer.
type Container struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{services: make(map[string]any)}
}

// Register adds svc under name.
func (c *Container) Register(name string, svc any) error {
	if name == "" || svc == nil {
		return fmt.Errorf("%w: name and value are required", ErrInvalidService)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.services[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateService, name)
	}
	c.services[name] = svc
	return nil
}

// Resolve returns the service registered under name.
func (c *Container) Resolve(name string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	svc, ok := c.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return svc, nil
}

// Len returns the number of registered services.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.services)
}

// Names returns the registered names in sorted order.
func (c *Container) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	c.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Resolve looks up name in c and asserts it to T.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T

	svc, err := c.Resolve(name)
	if err != nil {
		return zero, err
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrServiceType, name, svc)
	}
	return typed, nil
}
