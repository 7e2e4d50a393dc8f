// Package apitests contains the REST API contract tests themselves and their
// supporting test API.
//
// Harness infrastructure that is not specific to this service, such as the
// test context/filter/result machinery and the mock endpoint listener, is in
// the lower-level framework package. The HTTP client core being exercised is
// in the rest package.
package apitests
