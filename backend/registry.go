package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/texstream"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// Native > Software (Software is the fallback).
	backendPriority = []string{NameNative, NameSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get creates a backend instance by name.
func Get(name string) (texstream.Backend, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", ErrBackendNotAvailable, name)
	}
	b, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendNotAvailable, name, err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s returned no backend", ErrBackendNotAvailable, name)
	}
	return b, nil
}

// Default returns the best available backend based on priority, then any
// other registered backend in name order. It returns the backend's name
// alongside it.
func Default() (texstream.Backend, string, error) {
	names := Available()
	ordered := make([]string, 0, len(names))
	for _, name := range backendPriority {
		if IsRegistered(name) {
			ordered = append(ordered, name)
		}
	}
	for _, name := range names {
		if !isPriority(name) {
			ordered = append(ordered, name)
		}
	}

	for _, name := range ordered {
		b, err := Get(name)
		if err == nil {
			return b, name, nil
		}
		texstream.Logger().Info("backend: skipping unavailable backend", "name", name, "err", err)
	}
	return nil, "", ErrBackendNotAvailable
}

// MustDefault returns the default backend or panics.
func MustDefault() texstream.Backend {
	b, _, err := Default()
	if err != nil {
		panic("backend: no backend available")
	}
	return b
}

func isPriority(name string) bool {
	for _, p := range backendPriority {
		if p == name {
			return true
		}
	}
	return false
}
