package entities

import (
	"encoding/json"
	"fmt"

	"github.com/diwise/odata-client/pkg/odata/codec"
	"github.com/diwise/odata-client/pkg/odata/errors"
	"github.com/diwise/odata-client/pkg/odata/metadata"
)

type State int

const (
	Unchanged State = iota
	PendingUpdate
	PendingCreate
	PendingDelete
	// Deleted marks an entity that has been removed from the service
	Deleted
)

func (s State) String() string {
	switch s {
	case Unchanged:
		return "unchanged"
	case PendingUpdate:
		return "update"
	case PendingCreate:
		return "create"
	case PendingDelete:
		return "delete"
	case Deleted:
		return "deleted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type KeyValue struct {
	Name  string
	Type  string
	Value any
}

type PropertyValue struct {
	metadata.Property
	Value any
}

// Entity is an instance of an entity type, either materialized from a
// service response or created locally for insertion.
//
// An Entity is not safe for concurrent use.
type Entity struct {
	kind         *Kind
	values       map[string]any
	etag         string
	state        State
	materialized bool
}

func (e *Entity) EntitySet() *metadata.EntitySet {
	return e.kind.set
}

func (e *Entity) EntityType() *metadata.EntityType {
	return e.kind.set.EntityType
}

func (e *Entity) Materialized() bool {
	return e.materialized
}

func (e *Entity) State() State {
	return e.state
}

func (e *Entity) SetState(s State) {
	e.state = s
}

// ETag returns the concurrency token, or an empty string when it is unknown
func (e *Entity) ETag() string {
	return e.etag
}

func (e *Entity) SetETag(token string) {
	e.etag = token
}

func (e *Entity) property(name string) (metadata.Property, error) {
	p, ok := e.kind.set.EntityType.Property(name)
	if !ok {
		return metadata.Property{}, errors.NewUnknownPropertyError(e.kind.set.EntityType.QualifiedName(), name)
	}
	return p, nil
}

func (e *Entity) Get(name string) (any, error) {
	if _, err := e.property(name); err != nil {
		return nil, err
	}
	return e.values[name], nil
}

// String returns the wire representation of a property value, or an empty
// string for unknown or null properties.
func (e *Entity) String(name string) string {
	p, err := e.property(name)
	if err != nil {
		return ""
	}

	v := e.values[name]
	if v == nil {
		return ""
	}

	return format(p.Type, v)
}

// Set coerces value to the declared type of the property and stores it. Key
// properties of a materialized entity can not be changed.
func (e *Entity) Set(name string, value any) error {
	p, err := e.property(name)
	if err != nil {
		return err
	}

	if e.materialized && e.kind.set.EntityType.IsKey(name) {
		return errors.NewImmutableKeyError(e.kind.set.EntityType.QualifiedName(), name)
	}

	v, err := Coerce(p, value)
	if err != nil {
		return err
	}

	e.values[name] = v
	return nil
}

// Keys returns the key property values in declared key order
func (e *Entity) Keys() []KeyValue {
	keys := []KeyValue{}

	for _, name := range e.kind.set.EntityType.Key() {
		p, _ := e.kind.set.EntityType.Property(name)
		keys = append(keys, KeyValue{
			Name:  name,
			Type:  p.Type,
			Value: e.values[name],
		})
	}

	return keys
}

func (e *Entity) Properties() []PropertyValue {
	props := e.kind.set.EntityType.Properties()
	result := make([]PropertyValue, 0, len(props))

	for _, p := range props {
		result = append(result, PropertyValue{Property: p, Value: e.values[p.Name]})
	}

	return result
}

// Refresh replaces the property values with those in values, as returned by
// the service after a write. Properties missing from values keep their
// current value.
func (e *Entity) Refresh(values map[string]codec.Value) error {
	coerced, err := e.kind.coerceAll(values)
	if err != nil {
		return err
	}

	for name, v := range coerced {
		e.values[name] = v
	}

	e.materialized = true
	return nil
}

// Entry builds the payload used to create or update the entity
func (e *Entity) Entry(id string) codec.Entry {
	entry := codec.Entry{
		ID:       id,
		TypeName: e.kind.set.EntityType.QualifiedName(),
	}

	for _, p := range e.kind.set.EntityType.Properties() {
		v, ok := e.values[p.Name]
		if !ok {
			continue
		}

		entry.Properties = append(entry.Properties, codec.Property{
			Name:  p.Name,
			Type:  p.Type,
			Value: ToWire(p, v),
		})
	}

	return entry
}

func (e *Entity) MarshalJSON() ([]byte, error) {
	m := map[string]any{}

	for _, p := range e.Properties() {
		if p.Value == nil {
			m[p.Name] = nil
			continue
		}
		m[p.Name] = format(p.Type, p.Value)
	}

	m["@odata.etag"] = e.etag

	return json.Marshal(m)
}
