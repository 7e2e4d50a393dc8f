package rest

import (
	"strings"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Validator wraps a Response with chainable assertions for use in test
// bodies. Every method returns the validator so checks can be written as one
// chain:
//
//	rest.Validate(t, resp).
//		StatusCode(201).
//		HasKeys("id", "first_name").
//		KeyEquals("first_name", ldvalue.String("API_Test"))
//
// Assertions go through testify's require package, so the first failing link
// calls FailNow on the test and the rest of the chain never runs. Any
// require.TestingT works here: a *testing.T, or the suite's own test context.
type Validator struct {
	t    require.TestingT
	resp *Response
}

// Validate creates a Validator over a response.
func Validate(t require.TestingT, resp *Response) *Validator {
	require.NotNil(t, resp, "cannot validate a nil response")
	return &Validator{t: t, resp: resp}
}

// Response returns the underlying response, for checks the fluent surface
// does not cover.
func (v *Validator) Response() *Response {
	return v.resp
}

// StatusCode asserts the exact response status.
func (v *Validator) StatusCode(expected int) *Validator {
	require.Equalf(v.t, expected, v.resp.StatusCode,
		"expected status %d, got %d; body: %s", expected, v.resp.StatusCode, v.bodyForMessage())
	return v
}

// Success asserts the status is 2xx.
func (v *Validator) Success() *Validator {
	require.Truef(v.t, v.resp.IsSuccess(),
		"expected 2xx status, got %d; body: %s", v.resp.StatusCode, v.bodyForMessage())
	return v
}

// ClientError asserts the status is 4xx.
func (v *Validator) ClientError() *Validator {
	require.Truef(v.t, v.resp.IsClientError(),
		"expected 4xx status, got %d; body: %s", v.resp.StatusCode, v.bodyForMessage())
	return v
}

// ServerError asserts the status is 5xx.
func (v *Validator) ServerError() *Validator {
	require.Truef(v.t, v.resp.IsServerError(),
		"expected 5xx status, got %d; body: %s", v.resp.StatusCode, v.bodyForMessage())
	return v
}

// RateLimited asserts the status is 429.
func (v *Validator) RateLimited() *Validator {
	require.Truef(v.t, v.resp.IsRateLimited(),
		"expected 429 rate limit, got %d", v.resp.StatusCode)
	return v
}

// NotRateLimited asserts the status is not 429.
func (v *Validator) NotRateLimited() *Validator {
	if v.resp.IsRateLimited() {
		retryAfter, _ := v.resp.RetryAfter()
		require.Failf(v.t, "request was rate limited",
			"got 429 with Retry-After %v after %d retries", retryAfter, v.resp.RetryCount)
	}
	return v
}

// HasKey asserts the body is an object containing the key.
func (v *Validator) HasKey(key string) *Validator {
	v.requireObject()
	_, found := v.resp.Body.TryGetByKey(key)
	require.Truef(v.t, found,
		"expected key %q in response body; available keys: %v", key, v.resp.Body.Keys())
	return v
}

// HasKeys asserts the body is an object containing every key.
func (v *Validator) HasKeys(keys ...string) *Validator {
	for _, key := range keys {
		v.HasKey(key)
	}
	return v
}

// KeyEquals asserts the body key holds exactly the expected value.
func (v *Validator) KeyEquals(key string, expected ldvalue.Value) *Validator {
	v.HasKey(key)
	actual := v.resp.Body.GetByKey(key)
	require.Truef(v.t, expected.Equal(actual),
		"expected %s=%s, got %s=%s", key, expected.JSONString(), key, actual.JSONString())
	return v
}

// KeyContains asserts the body key's value, rendered as a string, contains
// the substring, case-insensitively.
func (v *Validator) KeyContains(key, substring string) *Validator {
	v.HasKey(key)
	actual := v.resp.Body.GetByKey(key)
	var text string
	if actual.Type() == ldvalue.StringType {
		text = actual.StringValue()
	} else {
		text = actual.JSONString()
	}
	require.Truef(v.t, strings.Contains(strings.ToLower(text), strings.ToLower(substring)),
		"expected %q to contain %q, got: %s", key, substring, text)
	return v
}

// IsList asserts the whole body is a JSON array.
func (v *Validator) IsList() *Validator {
	require.Equalf(v.t, ldvalue.ArrayType, v.resp.Body.Type(),
		"expected body to be a list, got %s: %s", v.resp.Body.Type(), v.bodyForMessage())
	return v
}

// IsListAt asserts the body key holds a JSON array.
func (v *Validator) IsListAt(key string) *Validator {
	v.HasKey(key)
	target := v.resp.Body.GetByKey(key)
	require.Equalf(v.t, ldvalue.ArrayType, target.Type(),
		"expected %q to be a list, got %s: %s", key, target.Type(), target.JSONString())
	return v
}

// ListLength asserts the body is an array of exactly the expected length.
func (v *Validator) ListLength(expected int) *Validator {
	v.IsList()
	require.Equalf(v.t, expected, v.resp.Body.Count(),
		"expected list length %d, got %d", expected, v.resp.Body.Count())
	return v
}

// ListLengthAt asserts the body key is an array of exactly the expected length.
func (v *Validator) ListLengthAt(key string, expected int) *Validator {
	v.IsListAt(key)
	count := v.resp.Body.GetByKey(key).Count()
	require.Equalf(v.t, expected, count,
		"expected %q length %d, got %d", key, expected, count)
	return v
}

// MinListLength asserts the body is an array of at least min elements.
func (v *Validator) MinListLength(min int) *Validator {
	v.IsList()
	require.GreaterOrEqualf(v.t, v.resp.Body.Count(), min,
		"expected list length >= %d, got %d", min, v.resp.Body.Count())
	return v
}

// MinListLengthAt asserts the body key is an array of at least min elements.
func (v *Validator) MinListLengthAt(key string, min int) *Validator {
	v.IsListAt(key)
	count := v.resp.Body.GetByKey(key).Count()
	require.GreaterOrEqualf(v.t, count, min,
		"expected %q length >= %d, got %d", key, min, count)
	return v
}

// HeaderPresent asserts the response carries the header.
func (v *Validator) HeaderPresent(name string) *Validator {
	require.NotEmptyf(v.t, v.resp.Headers.Get(name),
		"expected header %q; available headers: %v", name, headerNames(v.resp.Headers))
	return v
}

// ResponseTimeUnder asserts the final attempt completed within max.
func (v *Validator) ResponseTimeUnder(max time.Duration) *Validator {
	require.LessOrEqualf(v.t, v.resp.AttemptElapsed.Nanoseconds(), max.Nanoseconds(),
		"expected response time <= %v, got %v", max, v.resp.AttemptElapsed)
	return v
}

func (v *Validator) requireObject() {
	require.Equalf(v.t, ldvalue.ObjectType, v.resp.Body.Type(),
		"expected body to be an object, got %s: %s", v.resp.Body.Type(), v.bodyForMessage())
}

func (v *Validator) bodyForMessage() string {
	if v.resp.Body.IsNull() {
		return "(no body)"
	}
	return v.resp.Body.JSONString()
}

func headerNames(headers map[string][]string) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	return names
}
