package client

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/diwise/odata-client/pkg/odata/entities"
	odataerrors "github.com/diwise/odata-client/pkg/odata/errors"
	"github.com/diwise/odata-client/pkg/odata/metadata"
)

// KeyPredicate addresses a single entity within an entity set.
type KeyPredicate interface {
	segment(et *metadata.EntityType) (string, error)
}

type scalarKey struct {
	value any
}

type compositeKey map[string]any

type literalKey string

// Key addresses an entity by the value of its only key property
func Key(value any) KeyPredicate {
	return scalarKey{value: value}
}

// Keys addresses an entity by name and value of every key property
func Keys(values map[string]any) KeyPredicate {
	return compositeKey(values)
}

// Literal addresses an entity exactly as given, the literal is placed
// between the parentheses of the key segment without any formatting.
func Literal(literal string) KeyPredicate {
	return literalKey(literal)
}

func (k scalarKey) segment(et *metadata.EntityType) (string, error) {
	key := et.Key()
	if len(key) != 1 {
		return "", odataerrors.NewInvalidKeyError(
			fmt.Sprintf("entity type %s has a composite key (%s), a single value can not address it", et.QualifiedName(), strings.Join(key, ",")),
		)
	}

	p, _ := et.Property(key[0])
	literal, err := entities.FormatKeyLiteral(p, k.value)
	if err != nil {
		return "", err
	}

	return "(" + literal + ")", nil
}

func (k compositeKey) segment(et *metadata.EntityType) (string, error) {
	names := make([]string, 0, len(k))
	for name := range k {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !et.IsKey(name) {
			return "", odataerrors.NewInvalidKeyError(
				fmt.Sprintf("%s is not a key property of %s", name, et.QualifiedName()),
			)
		}
	}

	return keySegment(et, map[string]any(k))
}

func (k literalKey) segment(*metadata.EntityType) (string, error) {
	if k == "" {
		return "", odataerrors.NewInvalidKeyError("empty key literal")
	}
	return "(" + string(k) + ")", nil
}

// keySegment renders the parenthesized key from values, in declared key
// order. Single keys use the short form without the property name.
func keySegment(et *metadata.EntityType, values map[string]any) (string, error) {
	key := et.Key()
	parts := make([]string, 0, len(key))

	for _, name := range key {
		v, ok := values[name]
		if !ok {
			return "", odataerrors.NewInvalidKeyError(
				fmt.Sprintf("missing value for key property %s of %s", name, et.QualifiedName()),
			)
		}

		p, _ := et.Property(name)
		literal, err := entities.FormatKeyLiteral(p, v)
		if err != nil {
			return "", err
		}

		if len(key) == 1 {
			return "(" + literal + ")", nil
		}

		parts = append(parts, name+"="+literal)
	}

	return "(" + strings.Join(parts, ",") + ")", nil
}

// EntityPath returns the path, relative to the service root, that addresses e
func EntityPath(e *entities.Entity) (string, error) {
	values := map[string]any{}
	for _, kv := range e.Keys() {
		if kv.Value != nil {
			values[kv.Name] = kv.Value
		}
	}

	segment, err := keySegment(e.EntityType(), values)
	if err != nil {
		return "", err
	}

	return e.EntitySet().Path + segment, nil
}

type queryParams struct {
	filter      string
	orderBy     []string
	top         *uint64
	skip        *uint64
	expand      []string
	selection   []string
	inlineCount bool
}

type QueryOption func(*queryParams)

func Filter(expression string) QueryOption {
	return func(p *queryParams) {
		p.filter = expression
	}
}

func OrderBy(fields ...string) QueryOption {
	return func(p *queryParams) {
		p.orderBy = append(p.orderBy, fields...)
	}
}

func Top(n uint64) QueryOption {
	return func(p *queryParams) {
		p.top = &n
	}
}

func Skip(n uint64) QueryOption {
	return func(p *queryParams) {
		p.skip = &n
	}
}

func Expand(paths ...string) QueryOption {
	return func(p *queryParams) {
		p.expand = append(p.expand, paths...)
	}
}

func Select(fields ...string) QueryOption {
	return func(p *queryParams) {
		p.selection = append(p.selection, fields...)
	}
}

func InlineCount() QueryOption {
	return func(p *queryParams) {
		p.inlineCount = true
	}
}

func (p queryParams) encode() string {
	params := []string{}

	if p.filter != "" {
		params = append(params, "$filter="+escape(p.filter))
	}
	if len(p.orderBy) > 0 {
		params = append(params, "$orderby="+escape(strings.Join(p.orderBy, ",")))
	}
	if p.top != nil {
		params = append(params, "$top="+strconv.FormatUint(*p.top, 10))
	}
	if p.skip != nil {
		params = append(params, "$skip="+strconv.FormatUint(*p.skip, 10))
	}
	if len(p.expand) > 0 {
		params = append(params, "$expand="+escape(strings.Join(p.expand, ",")))
	}
	if len(p.selection) > 0 {
		params = append(params, "$select="+escape(strings.Join(p.selection, ",")))
	}
	if p.inlineCount {
		params = append(params, "$inlinecount=allpages")
	}

	return strings.Join(params, "&")
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// PendingQuery is a query recorded by BeginQuery, waiting to be executed
type PendingQuery struct {
	EntitySet *metadata.EntitySet
	// Path is relative to the service root and includes the key segment
	Path  string
	Query string

	kind   *entities.Kind
	single bool
}

func (q PendingQuery) resource() string {
	if q.Query == "" {
		return q.Path
	}
	return q.Path + "?" + q.Query
}

// BeginQuery records the query to run on the next call to Execute, replacing
// any query recorded before. On error the previously recorded query is kept.
func (s *Service) BeginQuery(entitySet string, key KeyPredicate, options ...QueryOption) error {
	kind, err := s.registry.Kind(entitySet)
	if errors.Is(err, odataerrors.ErrUnknownEntitySet) {
		return fmt.Errorf("can not query %s: %w (%w)", entitySet, odataerrors.ErrInvalidKey, err)
	} else if err != nil {
		return err
	}

	set := kind.EntitySet()
	path := set.Path

	if key != nil {
		segment, err := key.segment(set.EntityType)
		if err != nil {
			return err
		}
		path += segment
	}

	params := queryParams{}
	for _, option := range options {
		option(&params)
	}

	s.pending = &PendingQuery{
		EntitySet: set,
		Path:      path,
		Query:     params.encode(),
		kind:      kind,
		single:    key != nil,
	}

	return nil
}

// QueryPath returns the resource of the pending query relative to the
// service root, or an empty string when no query is pending.
func (s *Service) QueryPath() string {
	if s.pending == nil {
		return ""
	}
	return s.pending.resource()
}
