// Package framework contains the low-level test harness infrastructure that
// is not specific to any one API under test.
//
// The general model is:
//
// 1. The test harness points at a live resource service and, at startup,
// waits for it to come up and probes which resource collections it serves.
//
// 2. The test harness can expose any number of mock endpoints on its own
// listener. Tests use these to simulate service behaviors, such as
// rate-limit sequences, that cannot be provoked deterministically against
// the real service.
//
// 3. There is a general notion of a test context which is similar to Go's
// *testing.T, allowing pieces of test logic to be associated with a test
// identifier and to accumulate success/failure results.
//
// The domain-specific code that knows what is being tested - the endpoints,
// payloads, and assertions - lives in the higher-level apitests package.
package framework
