package apitests

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trainingportal/rest-contract-tests/config"
	"github.com/trainingportal/rest-contract-tests/framework"
	"github.com/trainingportal/rest-contract-tests/rest"
	"github.com/trainingportal/rest-contract-tests/servicedef"
)

const requestContextTimeout = time.Minute

// T represents a test or subtest in the API contract-test suite.
//
// It implements the same basic functionality as Go's testing.T, but in an
// environment outside of the Go test runner, with extra features such as
// per-test debug logging. Those features come from the lower-level framework
// package.
//
// Every T owns a fresh rest.Client (and therefore a fresh metrics collector)
// pointed at the service under test, so rate-limit bookkeeping never leaks
// between tests. To make assertions, use the assert and require packages,
// passing the *T as if it were a *testing.T, or use the fluent validator via
// Validate.
type T struct {
	context  *framework.Context
	harness  *framework.TestHarness
	cfg      config.Config
	client   *rest.Client
	cleanups []func()
}

func newTestScope(c *framework.Context, harness *framework.TestHarness, cfg config.Config) *T {
	t := &T{
		context: c,
		harness: harness,
		cfg:     cfg,
	}
	t.client = t.newServiceClient(t.serviceRetryPolicy())
	return t
}

func (t *T) close() {
	for i := len(t.cleanups) - 1; i >= 0; i-- {
		t.cleanups[i]()
	}
	t.cleanups = nil
}

// Errorf is called by assertions to log a test failure. It does not cause an
// immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately
// exit. The methods in the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest with its own T and its own service client.
func (t *T) Run(name string, action func(*T)) {
	var t1 *T
	t.context.Run(name, func(c *framework.Context) {
		t1 = newTestScope(c, t.harness, t.cfg)
		action(t1)
	})
	if t1 != nil {
		t1.close()
	}
}

// Defer registers a cleanup to run when this test scope ends, even if the
// test failed. Cleanups run in reverse registration order.
func (t *T) Defer(cleanup func()) {
	t.cleanups = append(t.cleanups, cleanup)
}

// Debug logs debug output for the test, shown by the runner according to its
// debug flags.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// RequireResource skips this test if the service's startup probe did not find
// the named resource collection.
func (t *T) RequireResource(name string) {
	if !t.harness.ServiceHasResource(name) {
		t.context.SkipWithReason(fmt.Sprintf("service does not expose the %q collection", name))
	}
}

// SkipWithReason marks the test as skipped.
func (t *T) SkipWithReason(reason string) {
	t.context.SkipWithReason(reason)
}

// Client returns this test's client against the live service.
func (t *T) Client() *rest.Client {
	return t.client
}

// Validate wraps a response in the fluent validator, failing this test when
// an assertion in the chain does not hold.
func (t *T) Validate(resp *rest.Response) *rest.Validator {
	return rest.Validate(t, resp)
}

func (t *T) serviceRetryPolicy() rest.RetryPolicy {
	return rest.RetryPolicy{
		MaxRetries:              t.cfg.Retry.MaxRetries,
		InitialBackoff:          t.cfg.Retry.InitialBackoff,
		MaxBackoff:              t.cfg.Retry.MaxBackoff,
		BackoffMultiplier:       t.cfg.Retry.BackoffMultiplier,
		Jitter:                  !t.cfg.Retry.DisableJitter,
		CircuitBreakerThreshold: t.cfg.Retry.CircuitBreakerThreshold,
	}
}

func (t *T) newServiceClient(policy rest.RetryPolicy) *rest.Client {
	headers := map[string]string{}
	if t.cfg.Auth.BearerToken != "" {
		headers["Authorization"] = "Bearer " + t.cfg.Auth.BearerToken
	}
	client, err := rest.NewClient(rest.Config{
		BaseURL:        t.harness.ServiceBaseURL(),
		APIPrefix:      t.harness.APIPrefix(),
		RequestTimeout: t.cfg.Service.RequestTimeout,
		DefaultHeaders: headers,
		Retry:          policy,
		Logger:         t.context.DebugLogger(),
	})
	if err != nil {
		panic(fmt.Sprintf("invalid client configuration for test suite: %s", err))
	}
	return client
}

// NewMockEndpoint registers a mock endpoint on the harness listener and
// arranges for it to close when this test scope ends.
func (t *T) NewMockEndpoint(handler http.Handler) *framework.MockEndpoint {
	endpoint := t.harness.NewMockEndpoint(handler, t.context.DebugLogger())
	t.Defer(endpoint.Close)
	return endpoint
}

// NewClientForEndpoint builds a client that treats a mock endpoint as the
// whole service, with the given retry policy. Used by the rate-limit tests,
// which need deterministic 429 sequences.
func (t *T) NewClientForEndpoint(endpoint *framework.MockEndpoint, policy rest.RetryPolicy) *rest.Client {
	client, err := rest.NewClient(rest.Config{
		BaseURL:        endpoint.BaseURL(),
		APIPrefix:      "",
		RequestTimeout: t.cfg.Service.RequestTimeout,
		Retry:          policy,
		Logger:         t.context.DebugLogger(),
	})
	require.NoError(t, err)
	return client
}

func (t *T) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestContextTimeout)
}

// MustGet issues a GET through this test's client and fails the test on a
// transport error.
func (t *T) MustGet(endpoint string, opts ...rest.RequestOption) *rest.Response {
	ctx, cancel := t.requestContext()
	defer cancel()
	resp, err := t.client.Get(ctx, endpoint, opts...)
	require.NoError(t, err, "GET %s failed at the transport level", endpoint)
	return resp
}

// MustPost issues a POST through this test's client and fails the test on a
// transport error.
func (t *T) MustPost(endpoint string, body interface{}, opts ...rest.RequestOption) *rest.Response {
	ctx, cancel := t.requestContext()
	defer cancel()
	resp, err := t.client.Post(ctx, endpoint, body, opts...)
	require.NoError(t, err, "POST %s failed at the transport level", endpoint)
	return resp
}

// MustPut issues a PUT through this test's client and fails the test on a
// transport error.
func (t *T) MustPut(endpoint string, body interface{}, opts ...rest.RequestOption) *rest.Response {
	ctx, cancel := t.requestContext()
	defer cancel()
	resp, err := t.client.Put(ctx, endpoint, body, opts...)
	require.NoError(t, err, "PUT %s failed at the transport level", endpoint)
	return resp
}

// MustPatch issues a PATCH through this test's client and fails the test on a
// transport error.
func (t *T) MustPatch(endpoint string, body interface{}, opts ...rest.RequestOption) *rest.Response {
	ctx, cancel := t.requestContext()
	defer cancel()
	resp, err := t.client.Patch(ctx, endpoint, body, opts...)
	require.NoError(t, err, "PATCH %s failed at the transport level", endpoint)
	return resp
}

// MustDelete issues a DELETE through this test's client and fails the test on
// a transport error.
func (t *T) MustDelete(endpoint string, opts ...rest.RequestOption) *rest.Response {
	ctx, cancel := t.requestContext()
	defer cancel()
	resp, err := t.client.Delete(ctx, endpoint, opts...)
	require.NoError(t, err, "DELETE %s failed at the transport level", endpoint)
	return resp
}

// CreateMember creates a member record, fails the test unless the service
// answers 201 with a positive id, and schedules a best-effort delete for the
// end of the test scope. It returns the new id.
func (t *T) CreateMember(params servicedef.MemberParams) int {
	resp := t.MustPost(servicedef.MembersCollection, params)
	t.Validate(resp).StatusCode(201).HasKey("id")
	id := resp.Body.GetByKey("id").IntValue()
	require.Greater(t, id, 0, "created member id should be positive, body: %s",
		resp.Body.JSONString())
	t.Defer(func() {
		t.bestEffortDelete(servicedef.DetailEndpoint(servicedef.MembersCollection, id))
	})
	return id
}

// bestEffortDelete removes a record created by a test, ignoring failures;
// used for end-of-scope cleanup where the record may already be gone.
func (t *T) bestEffortDelete(endpoint string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestContextTimeout)
	defer cancel()
	_, _ = t.client.Delete(ctx, endpoint)
}
