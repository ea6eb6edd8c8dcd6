// Package metadata turns an OData service metadata document (EDMX) into an
// immutable model of entity types, their properties and keys, and the entity
// sets that expose them.
package metadata

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/diwise/odata-client/pkg/odata/errors"
)

const (
	EdmString         string = "Edm.String"
	EdmBoolean        string = "Edm.Boolean"
	EdmByte           string = "Edm.Byte"
	EdmSByte          string = "Edm.SByte"
	EdmInt16          string = "Edm.Int16"
	EdmInt32          string = "Edm.Int32"
	EdmInt64          string = "Edm.Int64"
	EdmDecimal        string = "Edm.Decimal"
	EdmDouble         string = "Edm.Double"
	EdmSingle         string = "Edm.Single"
	EdmGuid           string = "Edm.Guid"
	EdmDateTime       string = "Edm.DateTime"
	EdmDateTimeOffset string = "Edm.DateTimeOffset"
	EdmTime           string = "Edm.Time"
	EdmBinary         string = "Edm.Binary"
)

type Property struct {
	Name     string
	Type     string
	Nullable bool
	// Complex is set when Type refers to a complex type declared in the schema
	Complex bool
}

type EntityType struct {
	Name      string
	Namespace string
	BaseType  string

	properties []Property
	byName     map[string]int
	key        []string
}

func (et *EntityType) QualifiedName() string {
	if et.Namespace == "" {
		return et.Name
	}
	return et.Namespace + "." + et.Name
}

// Properties returns the declared properties, inherited ones first.
func (et *EntityType) Properties() []Property {
	props := make([]Property, len(et.properties))
	copy(props, et.properties)
	return props
}

func (et *EntityType) Property(name string) (Property, bool) {
	idx, ok := et.byName[name]
	if !ok {
		return Property{}, false
	}
	return et.properties[idx], true
}

// Key returns the names of the key properties in declared order.
func (et *EntityType) Key() []string {
	k := make([]string, len(et.key))
	copy(k, et.key)
	return k
}

func (et *EntityType) IsKey(name string) bool {
	for _, k := range et.key {
		if k == name {
			return true
		}
	}
	return false
}

type EntitySet struct {
	Name       string
	Path       string
	EntityType *EntityType
}

type Model struct {
	entityTypes map[string]*EntityType
	entitySets  map[string]*EntitySet
}

func (m *Model) EntitySet(name string) (*EntitySet, error) {
	es, ok := m.entitySets[name]
	if !ok {
		return nil, errors.NewUnknownEntitySetError(name)
	}
	return es, nil
}

func (m *Model) EntitySets() map[string]*EntitySet {
	sets := make(map[string]*EntitySet, len(m.entitySets))
	for k, v := range m.entitySets {
		sets[k] = v
	}
	return sets
}

func (m *Model) EntitySetNames() []string {
	names := make([]string, 0, len(m.entitySets))
	for name := range m.entitySets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EntityType looks up a type by its qualified name or, failing that, by its
// short name.
func (m *Model) EntityType(name string) (*EntityType, bool) {
	if et, ok := m.entityTypes[name]; ok {
		return et, true
	}

	for _, et := range m.entityTypes {
		if et.Name == name {
			return et, true
		}
	}

	return nil, false
}

func Parse(r io.Reader) (*Model, error) {
	doc := edmx{}

	err := xml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, errors.NewMetadataParseError(fmt.Sprintf("failed to decode document: %s", err.Error()))
	}

	if len(doc.DataServices.Schema) == 0 {
		return nil, errors.NewMetadataParseError("document contains no schema")
	}

	declared := map[string]entityType{}
	namespaceOf := map[string]string{}
	complexTypes := map[string]bool{}
	aliases := map[string]string{}

	for _, s := range doc.DataServices.Schema {
		if s.Alias != "" {
			aliases[s.Alias] = s.Namespace
		}

		for _, ct := range s.ComplexType {
			complexTypes[qualify(s.Namespace, ct.Name)] = true
		}

		for _, et := range s.EntityType {
			if et.Name == "" {
				return nil, errors.NewMetadataParseError(fmt.Sprintf("entity type without a name in schema %s", s.Namespace))
			}

			qn := qualify(s.Namespace, et.Name)
			declared[qn] = et
			namespaceOf[qn] = s.Namespace
		}
	}

	resolveName := func(name string) string {
		if idx := strings.LastIndex(name, "."); idx > 0 {
			if ns, ok := aliases[name[:idx]]; ok {
				return qualify(ns, name[idx+1:])
			}
		}
		return name
	}

	m := &Model{
		entityTypes: map[string]*EntityType{},
		entitySets:  map[string]*EntitySet{},
	}

	var build func(qn string, visiting map[string]bool) (*EntityType, error)
	build = func(qn string, visiting map[string]bool) (*EntityType, error) {
		if et, ok := m.entityTypes[qn]; ok {
			return et, nil
		}

		raw, ok := declared[qn]
		if !ok {
			return nil, errors.NewMetadataParseError(fmt.Sprintf("reference to undeclared entity type %s", qn))
		}

		if visiting[qn] {
			return nil, errors.NewMetadataParseError(fmt.Sprintf("entity type %s inherits from itself", qn))
		}
		visiting[qn] = true

		et := &EntityType{
			Name:      raw.Name,
			Namespace: namespaceOf[qn],
			BaseType:  resolveName(raw.BaseType),
			byName:    map[string]int{},
		}

		if et.BaseType != "" {
			base, err := build(et.BaseType, visiting)
			if err != nil {
				return nil, err
			}

			et.properties = append(et.properties, base.properties...)
			et.key = append(et.key, base.key...)
		}

		for _, p := range raw.Property {
			if p.Name == "" {
				return nil, errors.NewMetadataParseError(fmt.Sprintf("property without a name in entity type %s", qn))
			}
			if strings.TrimSpace(p.Type) == "" {
				return nil, errors.NewMetadataParseError(fmt.Sprintf("property %s of entity type %s has no type", p.Name, qn))
			}

			nullable := true
			if p.Nullable != nil {
				nullable = *p.Nullable
			}

			propType := strings.TrimSpace(p.Type)
			if inner, ok := strings.CutPrefix(propType, "Collection("); ok && strings.HasSuffix(inner, ")") {
				propType = "Collection(" + resolveName(strings.TrimSuffix(inner, ")")) + ")"
			} else {
				propType = resolveName(propType)
			}
			if !knownType(propType, complexTypes) {
				return nil, errors.NewMetadataParseError(fmt.Sprintf("property %s of entity type %s has unknown type %q", p.Name, qn, p.Type))
			}

			et.properties = append(et.properties, Property{
				Name:     p.Name,
				Type:     propType,
				Nullable: nullable,
				Complex:  complexTypes[propType],
			})
		}

		for idx, p := range et.properties {
			if _, dup := et.byName[p.Name]; dup {
				return nil, errors.NewMetadataParseError(fmt.Sprintf("property %s declared twice in entity type %s", p.Name, qn))
			}
			et.byName[p.Name] = idx
		}

		if raw.Key != nil {
			if len(raw.Key.PropertyRef) == 0 {
				return nil, errors.NewMetadataParseError(fmt.Sprintf("empty key declaration in entity type %s", qn))
			}

			et.key = et.key[:0:0]
			for _, ref := range raw.Key.PropertyRef {
				if _, ok := et.byName[ref.Name]; !ok {
					return nil, errors.NewMetadataParseError(fmt.Sprintf("key of entity type %s refers to undeclared property %q", qn, ref.Name))
				}
				et.key = append(et.key, ref.Name)
			}
		}

		// abstract types may leave the key to their derived types
		if len(et.key) == 0 && !raw.Abstract {
			return nil, errors.NewMetadataParseError(fmt.Sprintf("entity type %s declares no key", qn))
		}

		m.entityTypes[qn] = et
		return et, nil
	}

	for qn := range declared {
		if _, err := build(qn, map[string]bool{}); err != nil {
			return nil, err
		}
	}

	for _, s := range doc.DataServices.Schema {
		for _, container := range s.EntityContainer {
			for _, set := range container.EntitySet {
				if set.Name == "" {
					return nil, errors.NewMetadataParseError(fmt.Sprintf("entity set without a name in container %s", container.Name))
				}

				et, ok := m.entityTypes[resolveName(set.EntityType)]
				if !ok {
					return nil, errors.NewMetadataParseError(fmt.Sprintf("entity set %s refers to unknown entity type %q", set.Name, set.EntityType))
				}

				if len(et.key) == 0 {
					return nil, errors.NewMetadataParseError(fmt.Sprintf("entity set %s exposes entity type %s which has no key", set.Name, et.QualifiedName()))
				}

				m.entitySets[set.Name] = &EntitySet{
					Name:       set.Name,
					Path:       set.Name,
					EntityType: et,
				}
			}
		}
	}

	return m, nil
}

var primitiveTypes = map[string]bool{
	EdmString: true, EdmBoolean: true, EdmByte: true, EdmSByte: true,
	EdmInt16: true, EdmInt32: true, EdmInt64: true, EdmDecimal: true,
	EdmDouble: true, EdmSingle: true, EdmGuid: true, EdmDateTime: true,
	EdmDateTimeOffset: true, EdmTime: true, EdmBinary: true,
}

// knownType reports whether t is a primitive type, a declared complex type
// or a collection of either
func knownType(t string, complexTypes map[string]bool) bool {
	if inner, ok := strings.CutPrefix(t, "Collection("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		return ok && !strings.HasPrefix(inner, "Collection(") && knownType(inner, complexTypes)
	}
	return primitiveTypes[t] || complexTypes[t]
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}
