package framework

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/trainingportal/rest-contract-tests/logging"
)

const incomingRequestBuffer = 100

// MockEndpoint represents an endpoint on the harness's own listener that can
// receive requests. Tests use these to simulate service behaviors - such as a
// sequence of 429 responses - that the real service cannot be made to produce
// on demand.
type MockEndpoint struct {
	owner    *TestHarness
	id       string
	basePath string
	handler  http.Handler
	requests chan IncomingRequestInfo
	logger   logging.Logger
	lock     sync.Mutex
	closed   bool
	closing  sync.Once
}

// IncomingRequestInfo contains information about an HTTP request received by
// a mock endpoint.
type IncomingRequestInfo struct {
	Headers http.Header
	Method  string
	Path    string
	Body    []byte
}

// NewMockEndpoint adds a new endpoint that can receive requests.
//
// The specified handler is called for all incoming requests to the endpoint's
// base URL or any subpath of it. For instance, if the base URL (as reported
// by MockEndpoint.BaseURL()) is http://localhost:8111/endpoints/3, it also
// receives requests to http://localhost:8111/endpoints/3/members/1. The
// harness rewrites the request URL first so the handler sees only the
// subpath.
func (h *TestHarness) NewMockEndpoint(handler http.Handler, logger logging.Logger) *MockEndpoint {
	if logger == nil {
		logger = h.logger
	}
	e := &MockEndpoint{
		owner:    h,
		handler:  handler,
		requests: make(chan IncomingRequestInfo, incomingRequestBuffer),
		logger:   logger,
	}
	h.lock.Lock()
	h.lastEndpointID++
	e.id = strconv.Itoa(h.lastEndpointID)
	e.basePath = endpointPathPrefix + e.id
	h.endpoints[e.id] = e
	h.lock.Unlock()

	return e
}

// BaseURL returns the full URL of the mock endpoint on the harness listener.
func (e *MockEndpoint) BaseURL() string {
	return e.owner.externalBaseURL + e.basePath
}

// AwaitRequest waits for an incoming request to the endpoint.
func (e *MockEndpoint) AwaitRequest(timeout time.Duration) (IncomingRequestInfo, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case req, ok := <-e.requests:
		if !ok {
			return IncomingRequestInfo{}, fmt.Errorf("mock endpoint %s was closed", e.basePath)
		}
		return req, nil
	case <-deadline.C:
		return IncomingRequestInfo{}, fmt.Errorf("timed out waiting for an incoming request to %s", e.basePath)
	}
}

// RequestCount returns the number of received requests not yet consumed by
// AwaitRequest.
func (e *MockEndpoint) RequestCount() int {
	return len(e.requests)
}

// Close unregisters the endpoint. Any subsequent requests to it receive 404s.
func (e *MockEndpoint) Close() {
	e.closing.Do(func() {
		e.owner.lock.Lock()
		delete(e.owner.endpoints, e.id)
		e.owner.lock.Unlock()

		e.lock.Lock()
		e.closed = true
		close(e.requests)
		e.lock.Unlock()
	})
}

func (e *MockEndpoint) serveHTTP(w http.ResponseWriter, req *http.Request, subPath string) {
	var body []byte
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			e.logger.Printf("Unexpected error trying to read request body: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body = data
	}

	incoming := IncomingRequestInfo{
		Headers: req.Header,
		Method:  req.Method,
		Path:    subPath,
		Body:    body,
	}
	e.lock.Lock()
	if !e.closed {
		select { // non-blocking push
		case e.requests <- incoming:
			break
		default:
			e.logger.Printf("Incoming request channel was full for %s", req.URL)
		}
	}
	e.lock.Unlock()

	transformedReq := *req
	url := *req.URL
	url.Path = subPath
	transformedReq.URL = &url
	if body != nil {
		transformedReq.Body = io.NopCloser(bytes.NewBuffer(body))
	}

	e.handler.ServeHTTP(w, &transformedReq)
}
