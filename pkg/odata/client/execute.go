package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/diwise/odata-client/pkg/odata/entities"
	odataerrors "github.com/diwise/odata-client/pkg/odata/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Execute runs the pending query and returns the entities in the order the
// service sent them. The pending query is consumed even if the call fails.
func (s *Service) Execute(ctx context.Context) ([]*entities.Entity, error) {
	q := s.pending
	s.pending = nil

	if q == nil {
		return nil, odataerrors.ErrNoQueryPending
	}

	var err error

	ctx, span := tracer.Start(ctx, "execute-query",
		trace.WithAttributes(attribute.String(TraceAttributeEntitySet, q.EntitySet.Name)),
		trace.WithAttributes(attribute.String(TraceAttributeResource, q.Path)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	resp, err := s.call(ctx, http.MethodGet, s.root+"/"+q.resource(), nil, nil)
	if err != nil {
		return nil, err
	}

	if !isSuccess(resp.StatusCode) {
		err = s.serviceError(resp)
		return nil, err
	}

	records, err := s.codec.DecodeCollection(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to decode response to %s: %w", q.Path, err)
		return nil, err
	}

	result := make([]*entities.Entity, 0, len(records))

	for _, r := range records {
		var e *entities.Entity

		e, err = q.kind.Materialize(r.Values)
		if err != nil {
			err = fmt.Errorf("failed to materialize %s: %w", q.EntitySet.Name, err)
			return nil, err
		}

		token := r.ETag
		if token == "" && q.single && len(records) == 1 {
			token = resp.Header.Get(HeaderETag)
		}
		e.SetETag(token)

		result = append(result, e)
	}

	return result, nil
}
