// Package client implements an OData service client: queries against the
// entity sets described by the service metadata and tracked changes that are
// written back with optimistic concurrency.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/diwise/odata-client/pkg/odata/codec"
	"github.com/diwise/odata-client/pkg/odata/codec/atom"
	"github.com/diwise/odata-client/pkg/odata/entities"
	odataerrors "github.com/diwise/odata-client/pkg/odata/errors"
	"github.com/diwise/odata-client/pkg/odata/metadata"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	TraceAttributeEntitySet string = "entity-set"
	TraceAttributeResource  string = "resource"
	TraceAttributePending   string = "pending-changes"
)

const (
	HeaderAccept                string = "Accept"
	HeaderDataServiceVersion    string = "DataServiceVersion"
	HeaderMaxDataServiceVersion string = "MaxDataServiceVersion"
	HeaderIfMatch               string = "If-Match"
	HeaderETag                  string = "ETag"

	acceptedContentTypes  string = "application/atom+xml,application/xml"
	dataServiceVersion    string = "2.0"
	maxDataServiceVersion string = "3.0"
)

var tracer = otel.Tracer("odata-client")

// Service talks to a single OData service root. It holds at most one pending
// query and an ordered list of pending changes.
//
// A Service is not safe for concurrent use, callers must serialize access.
type Service struct {
	root         string
	username     string
	password     string
	verifySSL    bool
	timeout      time.Duration
	transport    Transport
	codec        codec.Codec
	metadataDoc  io.Reader
	updateMethod string
	debug        bool

	model     *metadata.Model
	registry  *entities.Registry
	pending   *PendingQuery
	mutations []*PendingMutation
}

func Credentials(username, password string) func(*Service) {
	return func(s *Service) {
		s.username = username
		s.password = password
	}
}

func VerifySSL(enabled bool) func(*Service) {
	return func(s *Service) {
		s.verifySSL = enabled
	}
}

func Timeout(d time.Duration) func(*Service) {
	return func(s *Service) {
		s.timeout = d
	}
}

func WithTransport(t Transport) func(*Service) {
	return func(s *Service) {
		s.transport = t
	}
}

func WithCodec(c codec.Codec) func(*Service) {
	return func(s *Service) {
		s.codec = c
	}
}

// WithMetadata makes the service parse the metadata document read from r
// instead of fetching it from the service root.
func WithMetadata(r io.Reader) func(*Service) {
	return func(s *Service) {
		s.metadataDoc = r
	}
}

// UpdateMethod sets the HTTP method used to write updates, PUT by default.
// PATCH and MERGE send the same entry but let the service merge it.
func UpdateMethod(method string) func(*Service) {
	return func(s *Service) {
		s.updateMethod = strings.ToUpper(method)
	}
}

func Debug(enabled bool) func(*Service) {
	return func(s *Service) {
		s.debug = enabled
	}
}

func NewService(ctx context.Context, serviceRoot string, options ...func(*Service)) (*Service, error) {
	s := &Service{
		root:         strings.TrimSuffix(serviceRoot, "/"),
		verifySSL:    true,
		timeout:      DefaultTimeout,
		codec:        atom.New(),
		updateMethod: http.MethodPut,
	}

	for _, option := range options {
		option(s)
	}

	if s.transport == nil {
		s.transport = newHTTPTransport(s.verifySSL, s.timeout, s.debug)
	}

	model, err := s.loadMetadata(ctx)
	if err != nil {
		return nil, err
	}

	s.model = model
	s.registry = entities.NewRegistry(model)

	return s, nil
}

func (s *Service) loadMetadata(ctx context.Context) (*metadata.Model, error) {
	if s.metadataDoc != nil {
		return metadata.Parse(s.metadataDoc)
	}

	var err error

	ctx, span := tracer.Start(ctx, "load-metadata",
		trace.WithAttributes(attribute.String(TraceAttributeResource, "$metadata")),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	resp, err := s.call(ctx, http.MethodGet, s.root+"/$metadata", nil, nil)
	if err != nil {
		return nil, err
	}

	if !isSuccess(resp.StatusCode) {
		err = s.serviceError(resp)
		return nil, err
	}

	model, err := metadata.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, err
	}

	return model, nil
}

func (s *Service) Root() string {
	return s.root
}

func (s *Service) Model() *metadata.Model {
	return s.model
}

// New returns an empty entity of the type exposed by entitySet, to be filled
// in and passed to AddTo.
func (s *Service) New(entitySet string) (*entities.Entity, error) {
	kind, err := s.registry.Kind(entitySet)
	if err != nil {
		return nil, err
	}
	return kind.New(), nil
}

// Close releases the entity registry and drops any pending query or change.
// The service can not be used afterwards.
func (s *Service) Close() {
	s.registry.Close()
	s.pending = nil
	s.mutations = nil
}

func (s *Service) call(ctx context.Context, method, endpoint string, body []byte, headers map[string]string) (*Response, error) {
	req := &Request{
		Method: method,
		URL:    endpoint,
		Header: http.Header{},
		Body:   body,
	}

	if s.username != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(s.username + ":" + s.password))
		req.Header.Set("Authorization", "Basic "+credentials)
	}

	req.Header.Set(HeaderAccept, acceptedContentTypes)
	req.Header.Set(HeaderDataServiceVersion, dataServiceVersion)
	req.Header.Set(HeaderMaxDataServiceVersion, maxDataServiceVersion)

	for header, value := range headers {
		req.Header.Set(header, value)
	}

	log := logging.GetFromContext(ctx)
	log.Debug("sending request", "method", method, "url", endpoint)

	resp, err := s.transport.Do(ctx, req)
	if err != nil {
		log.Debug("request failed", "method", method, "url", endpoint, "err", err.Error())
		return nil, err
	}

	log.Debug("received response", "method", method, "url", endpoint, "status", resp.StatusCode)

	return resp, nil
}

func (s *Service) serviceError(resp *Response) error {
	detail, err := s.codec.DecodeError(resp.Body)
	if err != nil {
		detail = codec.ErrorDetail{}
	}

	return odataerrors.NewServiceError(resp.StatusCode, detail.Code, detail.Message, resp.Body)
}

func isSuccess(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}
