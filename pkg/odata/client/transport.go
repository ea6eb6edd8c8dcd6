package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"time"

	odataerrors "github.com/diwise/odata-client/pkg/odata/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//go:generate moq -rm -out transport_mock.go . Transport

type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

const DefaultTimeout time.Duration = 30 * time.Second

// NewHTTPTransport returns a Transport that sends requests over net/http.
// Certificate verification is skipped when verifySSL is false and requests
// taking longer than timeout fail with a TransportTimeoutError.
func NewHTTPTransport(verifySSL bool, timeout time.Duration) Transport {
	return newHTTPTransport(verifySSL, timeout, false)
}

type httpTransport struct {
	client *http.Client
	debug  bool
}

func newHTTPTransport(verifySSL bool, timeout time.Duration, debug bool) *httpTransport {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if !verifySSL {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &httpTransport{
		client: &http.Client{
			Transport: otelhttp.NewTransport(base),
			Timeout:   timeout,
		},
		debug: debug,
	}
}

func (t *httpTransport) Do(ctx context.Context, r *Request) (*Response, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, odataerrors.NewTransportError(fmt.Sprintf("failed to create request: %s", err.Error()))
	}

	for header, values := range r.Header {
		for _, val := range values {
			req.Header.Add(header, val)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, odataerrors.NewTransportTimeoutError(fmt.Sprintf("request %s %s timed out: %s", r.Method, r.URL, err.Error()))
		}
		return nil, odataerrors.NewTransportError(fmt.Sprintf("failed to send request: %s", err.Error()))
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, odataerrors.NewTransportTimeoutError(fmt.Sprintf("reading response to %s %s timed out: %s", r.Method, r.URL, err.Error()))
		}
		return nil, odataerrors.NewTransportError(fmt.Sprintf("failed to read response body: %s", err.Error()))
	}

	if t.debug && resp.StatusCode >= http.StatusBadRequest {
		reqbytes, _ := httputil.DumpRequest(req, false)
		respbytes, _ := httputil.DumpResponse(resp, false)

		log := logging.GetFromContext(ctx)
		log.Error("request failed", "request", string(reqbytes), "response", string(respbytes), "body", string(respBody))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
