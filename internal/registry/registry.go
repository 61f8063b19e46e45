// Package registry provides a global registry for environment factories.
// Environments are registered by id from init() functions, allowing the CLI,
// agent runner and web stream to instantiate them without hardcoded
// dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/flappy-gym/internal/config"
	"github.com/vovakirdan/flappy-gym/internal/env"
	"github.com/vovakirdan/flappy-gym/internal/games/flappy"
)

// Options carries everything a factory needs to build an environment.
type Options struct {
	Config    config.FlappyConfig
	Geometry  flappy.Geometry // Zero value means the config's world geometry
	Seed      int64           // 0 = time based
	Normalize bool            // Simple observations divided by world size
	Cols      int             // Screen observation width, 0 = default
	Rows      int             // Screen observation height, 0 = default
}

// DefaultOptions returns options for the given config with normalized
// simple observations.
func DefaultOptions(cfg config.FlappyConfig) Options {
	return Options{
		Config:    cfg,
		Geometry:  flappy.DefaultGeometry(cfg),
		Normalize: true,
	}
}

// EnvInfo contains metadata about a registered environment.
type EnvInfo struct {
	ID          string
	Description string
}

// Factory creates a new environment instance.
type Factory func(opts Options) env.Env

type entry struct {
	factory     Factory
	description string
}

var (
	entries = make(map[string]entry)
	mu      sync.RWMutex
)

// Register adds an environment factory to the registry.
// Panics if an environment with the same id is already registered.
func Register(id, description string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := entries[id]; exists {
		panic(fmt.Sprintf("registry: env %q already registered", id))
	}
	entries[id] = entry{factory: f, description: description}
}

// List returns information about all registered environments, sorted by id.
func List() []EnvInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]EnvInfo, 0, len(entries))
	for id, e := range entries {
		result = append(result, EnvInfo{
			ID:          id,
			Description: e.description,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Make instantiates a new environment by its id.
// Returns an error if the id is not registered.
func Make(id string, opts Options) (env.Env, error) {
	mu.RLock()
	e, ok := entries[id]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: unknown env %q", id)
	}
	if opts.Geometry == (flappy.Geometry{}) {
		opts.Geometry = flappy.DefaultGeometry(opts.Config)
	}
	return e.factory(opts), nil
}

// Exists checks if an environment with the given id is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := entries[id]
	return ok
}
