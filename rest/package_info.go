// Package rest contains the HTTP client core used by the API contract tests.
//
// The client issues one "logical request" per call (Get, Post, etc.), which may
// involve several physical attempts when the service answers with 429 Too Many
// Requests. Rate limiting is an expected, testable outcome: the client never
// converts an exhausted retry budget into an error, it returns the final
// Response with WasRateLimited set so a test can assert on it. Transport-level
// failures, by contrast, are returned as errors and are never retried here.
//
// Response bodies are represented as ldvalue.Value so assertions about body
// shape (object vs. array vs. scalar vs. absent) can be made against the
// value's type tag rather than by duck typing.
package rest
