package framework

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainingportal/rest-contract-tests/logging"
)

func newHarnessForEndpointTests() *TestHarness {
	return &TestHarness{
		externalBaseURL: "http://localhost:8111",
		endpoints:       make(map[string]*MockEndpoint),
		logger:          logging.NullLogger(),
	}
}

func TestMockEndpointDeliversRequestInfo(t *testing.T) {
	h := newHarnessForEndpointTests()
	e := h.NewMockEndpoint(http.NotFoundHandler(), nil)
	defer e.Close()

	req := httptest.NewRequest("POST", "http://test/endpoints/1/members", strings.NewReader(`{"x":1}`))
	req.Header.Set("X-Env", "staging")
	e.serveHTTP(httptest.NewRecorder(), req, "/members")

	info, err := e.AwaitRequest(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "POST", info.Method)
	assert.Equal(t, "/members", info.Path)
	assert.Equal(t, "staging", info.Headers.Get("X-Env"))
	assert.Equal(t, `{"x":1}`, string(info.Body))
}

func TestMockEndpointServeAfterCloseDoesNotPanic(t *testing.T) {
	h := newHarnessForEndpointTests()
	e := h.NewMockEndpoint(http.NotFoundHandler(), nil)
	e.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "http://test/endpoints/1/members", nil)
	assert.NotPanics(t, func() {
		e.serveHTTP(rec, req, "/members")
	})
}

func TestMockEndpointCloseIsSafeDuringIncomingRequests(t *testing.T) {
	h := newHarnessForEndpointTests()
	e := h.NewMockEndpoint(http.NotFoundHandler(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest("GET", "http://test/endpoints/1/members", nil)
			e.serveHTTP(httptest.NewRecorder(), req, "/members")
		}()
	}
	e.Close()
	wg.Wait()

	// any requests delivered before the close are still readable; once the
	// channel drains, AwaitRequest reports the closed endpoint
	for {
		if _, err := e.AwaitRequest(time.Millisecond * 10); err != nil {
			assert.Contains(t, err.Error(), "closed")
			break
		}
	}
}
