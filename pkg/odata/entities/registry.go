// Package entities holds the runtime representation of the entity types
// described by a service metadata document.
package entities

import (
	"sync"

	"github.com/diwise/odata-client/pkg/odata/codec"
	"github.com/diwise/odata-client/pkg/odata/errors"
	"github.com/diwise/odata-client/pkg/odata/metadata"
)

// Kind creates entities of the entity type exposed by one entity set
type Kind struct {
	set *metadata.EntitySet
}

func (k *Kind) EntitySet() *metadata.EntitySet {
	return k.set
}

// New returns an empty entity, owned by the caller, to be created in the service
func (k *Kind) New() *Entity {
	return &Entity{
		kind:   k,
		values: map[string]any{},
	}
}

// Materialize builds an entity from raw values decoded from a response.
// Values for properties the entity type does not declare are ignored.
func (k *Kind) Materialize(values map[string]codec.Value) (*Entity, error) {
	coerced, err := k.coerceAll(values)
	if err != nil {
		return nil, err
	}

	for _, p := range k.set.EntityType.Properties() {
		if _, ok := coerced[p.Name]; !ok {
			coerced[p.Name] = nil
		}
	}

	return &Entity{
		kind:         k,
		values:       coerced,
		materialized: true,
	}, nil
}

func (k *Kind) coerceAll(values map[string]codec.Value) (map[string]any, error) {
	coerced := make(map[string]any, len(values))

	for name, raw := range values {
		p, ok := k.set.EntityType.Property(name)
		if !ok {
			continue
		}

		v, err := FromWire(p, raw)
		if err != nil {
			return nil, err
		}

		coerced[name] = v
	}

	return coerced, nil
}

type Registry struct {
	mu     sync.Mutex
	kinds  map[string]*Kind
	closed bool
}

func NewRegistry(model *metadata.Model) *Registry {
	r := &Registry{
		kinds: map[string]*Kind{},
	}

	for name, set := range model.EntitySets() {
		r.kinds[name] = &Kind{set: set}
	}

	return r
}

func (r *Registry) Kind(entitySet string) (*Kind, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.ErrRegistryClosed
	}

	k, ok := r.kinds[entitySet]
	if !ok {
		return nil, errors.NewUnknownEntitySetError(entitySet)
	}

	return k, nil
}

func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.kinds = map[string]*Kind{}
}
