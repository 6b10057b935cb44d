// Copyright 2026 The Warden Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package warden

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Factory builds the controller for one service kind.  It is invoked at
// most once per registry; the result is the kind's singleton.
type Factory func(name string) *Controller

// ServiceKind describes one registrable service: its name, the factory for
// its controller, and its configuration schema fragment.  Kinds are
// registered explicitly at start-up; there is no reflective discovery.
type ServiceKind struct {
	Name string
	New  Factory

	// Schema maps configuration property names to their JSON-Schema
	// fragments.  The aggregator merges it under the kind's stanza,
	// next to the reserved "active" property.
	Schema map[string]interface{}
}

// Registry maps service names to their kinds and to singleton controller
// instances.  Lookups are idempotent: loading the same name twice returns
// the same controller.  The registry is mutex guarded because supervision
// here runs on real goroutines, not a single reactor thread.
type Registry struct {
	mx        sync.Mutex
	kinds     map[string]ServiceKind
	instances map[string]*Controller
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		kinds:     make(map[string]ServiceKind),
		instances: make(map[string]*Controller),
	}
}

// Register adds a service kind.  Re-registering an already known name is a
// no-op, so registration at package init and at daemon boot can overlap
// safely.
func (r *Registry) Register(k ServiceKind) {
	r.mx.Lock()
	defer r.mx.Unlock()
	if _, ok := r.kinds[k.Name]; ok {
		return
	}
	r.kinds[k.Name] = k
}

// KindNames returns every registered kind name, sorted.
func (r *Registry) KindNames() []string {
	r.mx.Lock()
	defer r.mx.Unlock()
	names := make([]string, 0, len(r.kinds))
	for n := range r.kinds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadServiceModule instantiates the singleton controller for a registered
// kind.  Loading an already loaded name returns the existing singleton.
func (r *Registry) LoadServiceModule(name string) (*Controller, error) {
	r.mx.Lock()
	defer r.mx.Unlock()
	if c, ok := r.instances[name]; ok {
		return c, nil
	}
	k, ok := r.kinds[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownService, name)
	}
	c := k.New(name)
	r.instances[name] = c
	return c, nil
}

// GetServiceInstance returns the singleton for a loaded service name.
func (r *Registry) GetServiceInstance(name string) (*Controller, error) {
	r.mx.Lock()
	defer r.mx.Unlock()
	c, ok := r.instances[name]
	if !ok {
		return nil, errors.Wrap(ErrNotLoaded, name)
	}
	return c, nil
}

// GetAllServiceNames returns every loaded service name, sorted.
func (r *Registry) GetAllServiceNames() []string {
	r.mx.Lock()
	defer r.mx.Unlock()
	names := make([]string, 0, len(r.instances))
	for n := range r.instances {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FindInstancesWithProperty returns the loaded controllers that declare
// the given property, for capability discovery.
func (r *Registry) FindInstancesWithProperty(n PropertyName) []*Controller {
	r.mx.Lock()
	instances := make([]*Controller, 0, len(r.instances))
	for _, c := range r.instances {
		instances = append(instances, c)
	}
	r.mx.Unlock()

	var out []*Controller
	for _, c := range instances {
		if _, ok := c.Property(n); ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name() < out[j].Name()
	})
	return out
}

// StopAll concurrently stops every loaded service and waits for all of
// them, used at server shutdown.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mx.Lock()
	instances := make([]*Controller, 0, len(r.instances))
	for _, c := range r.instances {
		instances = append(instances, c)
	}
	r.mx.Unlock()

	futures := make([]*Future, 0, len(instances))
	for _, c := range instances {
		futures = append(futures, c.Stop())
	}
	return waitAll(ctx, futures)
}

// The process-wide registry, populated lazily on first use through the
// package-level wrappers below.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a kind to the process-wide registry.
func Register(k ServiceKind) {
	defaultRegistry.Register(k)
}

// LoadServiceModule loads a kind from the process-wide registry.
func LoadServiceModule(name string) (*Controller, error) {
	return defaultRegistry.LoadServiceModule(name)
}

// GetServiceInstance looks up a loaded singleton in the process-wide
// registry.
func GetServiceInstance(name string) (*Controller, error) {
	return defaultRegistry.GetServiceInstance(name)
}

// GetAllServiceNames lists the loaded names in the process-wide registry.
func GetAllServiceNames() []string {
	return defaultRegistry.GetAllServiceNames()
}
