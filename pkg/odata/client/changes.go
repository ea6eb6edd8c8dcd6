package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/diwise/odata-client/pkg/odata/entities"
	odataerrors "github.com/diwise/odata-client/pkg/odata/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PendingMutation struct {
	Entity *entities.Entity
	Kind   entities.State
}

type MutationResult struct {
	Entity     *entities.Entity
	Kind       entities.State
	Method     string
	Resource   string
	StatusCode int
	Err        error
}

type FlushReport struct {
	Applied int
	Results []MutationResult
}

// Track records a pending change of the given kind for e. Tracking an entity
// that is already pending replaces the kind but keeps its position.
func (s *Service) Track(e *entities.Entity, kind entities.State) error {
	if e == nil {
		return odataerrors.NewInvalidValueError("can not track a nil entity")
	}

	switch kind {
	case entities.PendingUpdate, entities.PendingCreate, entities.PendingDelete:
	default:
		return odataerrors.NewInvalidValueError(fmt.Sprintf("%s is not a change that can be tracked", kind.String()))
	}

	if _, err := s.registry.Kind(e.EntitySet().Name); err != nil {
		return err
	}

	e.SetState(kind)

	for _, m := range s.mutations {
		if m.Entity == e {
			m.Kind = kind
			return nil
		}
	}

	s.mutations = append(s.mutations, &PendingMutation{Entity: e, Kind: kind})

	return nil
}

func (s *Service) UpdateObject(e *entities.Entity) error {
	return s.Track(e, entities.PendingUpdate)
}

func (s *Service) DeleteObject(e *entities.Entity) error {
	return s.Track(e, entities.PendingDelete)
}

// AddTo tracks e for creation in entitySet
func (s *Service) AddTo(entitySet string, e *entities.Entity) error {
	if e == nil {
		return odataerrors.NewInvalidValueError("can not add a nil entity")
	}

	if e.EntitySet().Name != entitySet {
		return odataerrors.NewInvalidValueError(
			fmt.Sprintf("entity of type %s does not belong to entity set %s", e.EntityType().QualifiedName(), entitySet),
		)
	}

	return s.Track(e, entities.PendingCreate)
}

// Pending returns the changes that have not been saved yet, in tracked order
func (s *Service) Pending() []PendingMutation {
	pending := make([]PendingMutation, 0, len(s.mutations))
	for _, m := range s.mutations {
		pending = append(pending, *m)
	}
	return pending
}

// SaveChanges writes every pending change to the service in tracked order.
// Changes that fail stay pending and are reported together in a FlushError.
func (s *Service) SaveChanges(ctx context.Context) (*FlushReport, error) {
	report := &FlushReport{Results: []MutationResult{}}

	if len(s.mutations) == 0 {
		return report, nil
	}

	var err error

	ctx, span := tracer.Start(ctx, "save-changes",
		trace.WithAttributes(attribute.Int(TraceAttributePending, len(s.mutations))),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)

	remaining := []*PendingMutation{}
	failures := []error{}

	for _, m := range s.mutations {
		result := s.write(ctx, m)
		report.Results = append(report.Results, result)

		if result.Err != nil {
			log.Warn("failed to save change", "kind", m.Kind.String(), "resource", result.Resource, "err", result.Err.Error())
			remaining = append(remaining, m)
			failures = append(failures, result.Err)
			continue
		}

		report.Applied++
	}

	s.mutations = remaining

	if len(failures) > 0 {
		err = &odataerrors.FlushError{Errors: failures}
		return report, err
	}

	return report, nil
}

func (s *Service) write(ctx context.Context, m *PendingMutation) MutationResult {
	e := m.Entity
	result := MutationResult{Entity: e, Kind: m.Kind}

	var err error

	switch m.Kind {
	case entities.PendingCreate:
		result.Method = http.MethodPost
		result.Resource = e.EntitySet().Path
	case entities.PendingUpdate:
		result.Method = s.updateMethod
		result.Resource, err = EntityPath(e)
	case entities.PendingDelete:
		result.Method = http.MethodDelete
		result.Resource, err = EntityPath(e)
	}

	ctx, span := tracer.Start(ctx, "write-entity",
		trace.WithAttributes(attribute.String(TraceAttributeEntitySet, e.EntitySet().Name)),
		trace.WithAttributes(attribute.String(TraceAttributeResource, result.Resource)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if err != nil {
		result.Err = err
		return result
	}

	headers := map[string]string{}

	if m.Kind != entities.PendingCreate {
		if e.ETag() == "" {
			err = odataerrors.NewConcurrencyTokenMissingError(result.Resource)
			result.Err = err
			return result
		}
		headers[HeaderIfMatch] = e.ETag()
	}

	var body []byte

	if m.Kind != entities.PendingDelete {
		id := ""
		if m.Kind == entities.PendingUpdate {
			id = s.root + "/" + result.Resource
		}

		body, err = s.codec.EncodeEntity(e.Entry(id))
		if err != nil {
			err = fmt.Errorf("failed to encode %s: %w", result.Resource, err)
			result.Err = err
			return result
		}
		headers["Content-Type"] = s.codec.ContentType()
	}

	resp, err := s.call(ctx, result.Method, s.root+"/"+result.Resource, body, headers)
	if err != nil {
		result.Err = err
		return result
	}

	result.StatusCode = resp.StatusCode

	if resp.StatusCode == http.StatusPreconditionFailed {
		detail, _ := s.codec.DecodeError(resp.Body)
		err = odataerrors.NewConcurrencyConflictError(result.Resource, e.ETag(), detail.Code, detail.Message, resp.Body)
		result.Err = err
		return result
	}

	if !isSuccess(resp.StatusCode) {
		err = s.serviceError(resp)
		result.Err = err
		return result
	}

	if m.Kind == entities.PendingDelete {
		e.SetState(entities.Deleted)
		return result
	}

	e.SetState(entities.Unchanged)
	s.refresh(ctx, e, resp)

	return result
}

// refresh updates e from the body and headers of a successful write. The
// write has been applied at this point so problems are only logged.
func (s *Service) refresh(ctx context.Context, e *entities.Entity, resp *Response) {
	log := logging.GetFromContext(ctx)

	if len(bytes.TrimSpace(resp.Body)) > 0 {
		records, err := s.codec.DecodeCollection(resp.Body)
		if err != nil {
			log.Warn("failed to decode response to write", "entity-set", e.EntitySet().Name, "err", err.Error())
		} else if len(records) == 1 {
			if err = e.Refresh(records[0].Values); err != nil {
				log.Warn("failed to refresh entity after write", "entity-set", e.EntitySet().Name, "err", err.Error())
			}
			if records[0].ETag != "" {
				e.SetETag(records[0].ETag)
				return
			}
		}
	}

	if token := resp.Header.Get(HeaderETag); token != "" {
		e.SetETag(token)
	}
}
