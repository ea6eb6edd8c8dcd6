// Package test provides fixtures and an in process stub of an OData service
// for exercising clients over real HTTP.
package test

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/riandyrn/otelchi"
)

type Reply struct {
	Code    int
	Headers map[string]string
	Body    string
}

type Responder func(r *http.Request, body []byte) Reply

func Returns(code int, body string, headers ...string) Responder {
	h := map[string]string{}
	for i := 0; i+1 < len(headers); i += 2 {
		h[headers[i]] = headers[i+1]
	}

	return func(*http.Request, []byte) Reply {
		return Reply{Code: code, Headers: h, Body: body}
	}
}

type RecordedRequest struct {
	Method   string
	Resource string
	Header   http.Header
	Body     []byte
}

type StubService struct {
	server        *httptest.Server
	basePath      string
	authorization string

	mu         sync.Mutex
	responders map[string]Responder
	requests   []RecordedRequest
}

// NewStubService starts a service below basePath that answers 401 to any
// request without the expected basic credentials and 404 to resources that
// have no registered responder.
func NewStubService(basePath, username, password string) *StubService {
	s := &StubService{
		basePath:      basePath,
		authorization: "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password)),
		responders:    map[string]Responder{},
	}

	r := chi.NewRouter()
	r.Use(otelchi.Middleware("odata-stub", otelchi.WithChiRoutes(r)))

	r.Route(basePath, func(r chi.Router) {
		r.Use(s.requireAuthorization)
		r.Get("/$metadata", s.handle("$metadata"))
		r.HandleFunc("/{resource}", func(w http.ResponseWriter, r *http.Request) {
			s.handle(chi.URLParam(r, "resource"))(w, r)
		})
	})

	s.server = httptest.NewServer(r)

	return s
}

// NewNAVService returns a stub with the responses of a Dynamics NAV service
// holding one customer and one sales order.
func NewNAVService(username, password string) *StubService {
	s := NewStubService(NAVBasePath, username, password)

	s.On(http.MethodGet, "$metadata", Returns(http.StatusOK, EdmxMSDynamicsNAV, "Content-Type", "application/xml"))
	s.On(http.MethodGet, "Customer", Returns(http.StatusOK, ResultCustomers, "Content-Type", "application/atom+xml"))
	s.On(http.MethodGet, "Customer('10000')", Returns(http.StatusOK, ResultCustomer, "Content-Type", "application/atom+xml", "ETag", CustomerETag))
	s.On(http.MethodGet, "Customer(10000)", Returns(http.StatusBadRequest, ResultCustomerError, "Content-Type", "application/xml"))
	s.On(http.MethodGet, "SalesOrder(Document_Type='Order',No='AB-1600013')", Returns(http.StatusOK, ResultSalesOrder, "Content-Type", "application/atom+xml", "ETag", "ETAG_WILL_BE_IGNORED"))
	s.On(http.MethodGet, "Item_Ledger_Entry", Returns(http.StatusOK, ResultItemLedgerEntries, "Content-Type", "application/atom+xml"))

	s.On(http.MethodPut, "Customer('10000')", func(r *http.Request, _ []byte) Reply {
		if r.Header.Get("If-Match") == CustomerETag {
			return Reply{Code: http.StatusNoContent}
		}
		return Reply{Code: http.StatusPreconditionFailed, Body: ResultUpdateErrorETag, Headers: map[string]string{"Content-Type": "application/xml"}}
	})

	return s
}

// On registers (or replaces) the responder for method and resource. The
// resource is the path segment below the base path, as sent on the wire.
func (s *StubService) On(method, resource string, responder Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.responders[method+" "+resource] = responder
}

// URL returns the service root
func (s *StubService) URL() string {
	return s.server.URL + s.basePath
}

func (s *StubService) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqs := make([]RecordedRequest, len(s.requests))
	copy(reqs, s.requests)
	return reqs
}

func (s *StubService) RequestCount(method string) int {
	count := 0
	for _, r := range s.Requests() {
		if method == "" || r.Method == method {
			count++
		}
	}
	return count
}

func (s *StubService) Close() {
	s.server.Close()
}

func (s *StubService) requireAuthorization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != s.authorization {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *StubService) handle(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		defer r.Body.Close()

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:   r.Method,
			Resource: resource,
			Header:   r.Header.Clone(),
			Body:     body,
		})
		responder, ok := s.responders[r.Method+" "+resource]
		s.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		reply := responder(r, body)
		for k, v := range reply.Headers {
			w.Header().Set(k, v)
		}

		w.WriteHeader(reply.Code)
		w.Write([]byte(reply.Body))
	}
}
