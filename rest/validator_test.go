package rest

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// mockTestingT stands in for the test context so validator failures can be
// observed instead of failing the real test. FailNow panics with a sentinel,
// matching how the suite's own context aborts a test.
type mockTestingT struct {
	failed   bool
	messages []string
}

type mockFailNow struct{}

func (m *mockTestingT) Errorf(format string, args ...interface{}) {
	m.failed = true
	m.messages = append(m.messages, fmt.Sprintf(format, args...))
}

func (m *mockTestingT) FailNow() {
	panic(mockFailNow{})
}

// runValidation applies fn to a validator over resp, absorbing the FailNow
// panic, and reports whether the validation failed.
func runValidation(resp *Response, fn func(*Validator)) *mockTestingT {
	m := &mockTestingT{}
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(mockFailNow); !ok {
					panic(r)
				}
			}
		}()
		fn(Validate(m, resp))
	}()
	return m
}

func objectResponse(status int, body string) *Response {
	return &Response{
		StatusCode: status,
		Body:       ldvalue.Parse([]byte(body)),
		Headers:    make(http.Header),
	}
}

func TestValidatorStatusAssertions(t *testing.T) {
	t.Run("StatusCode", func(t *testing.T) {
		resp := objectResponse(201, `{"id": 1}`)
		assert.False(t, runValidation(resp, func(v *Validator) { v.StatusCode(201) }).failed)
		assert.True(t, runValidation(resp, func(v *Validator) { v.StatusCode(200) }).failed)
	})

	t.Run("Success", func(t *testing.T) {
		assert.False(t, runValidation(objectResponse(200, `{}`), func(v *Validator) { v.Success() }).failed)
		assert.True(t, runValidation(objectResponse(500, `{}`), func(v *Validator) { v.Success() }).failed)
	})

	t.Run("ClientError and ServerError", func(t *testing.T) {
		assert.False(t, runValidation(objectResponse(404, `{}`), func(v *Validator) { v.ClientError() }).failed)
		assert.True(t, runValidation(objectResponse(200, `{}`), func(v *Validator) { v.ClientError() }).failed)
		assert.False(t, runValidation(objectResponse(503, `{}`), func(v *Validator) { v.ServerError() }).failed)
	})

	t.Run("RateLimited and NotRateLimited", func(t *testing.T) {
		assert.False(t, runValidation(objectResponse(429, `{}`), func(v *Validator) { v.RateLimited() }).failed)
		assert.True(t, runValidation(objectResponse(429, `{}`), func(v *Validator) { v.NotRateLimited() }).failed)
		assert.False(t, runValidation(objectResponse(200, `{}`), func(v *Validator) { v.NotRateLimited() }).failed)
	})
}

func TestValidatorBodyAssertions(t *testing.T) {
	resp := objectResponse(200, `{"id": 7, "firstname": "Ada", "tags": ["a", "b"]}`)

	t.Run("HasKey", func(t *testing.T) {
		assert.False(t, runValidation(resp, func(v *Validator) { v.HasKey("id") }).failed)
		m := runValidation(resp, func(v *Validator) { v.HasKey("missing") })
		assert.True(t, m.failed)
	})

	t.Run("HasKey on a non-object body", func(t *testing.T) {
		list := objectResponse(200, `[1, 2]`)
		assert.True(t, runValidation(list, func(v *Validator) { v.HasKey("id") }).failed)
	})

	t.Run("HasKeys", func(t *testing.T) {
		assert.False(t, runValidation(resp, func(v *Validator) { v.HasKeys("id", "firstname") }).failed)
		assert.True(t, runValidation(resp, func(v *Validator) { v.HasKeys("id", "missing") }).failed)
	})

	t.Run("KeyEquals", func(t *testing.T) {
		assert.False(t, runValidation(resp, func(v *Validator) {
			v.KeyEquals("firstname", ldvalue.String("Ada"))
		}).failed)
		assert.True(t, runValidation(resp, func(v *Validator) {
			v.KeyEquals("firstname", ldvalue.String("Grace"))
		}).failed)
		assert.True(t, runValidation(resp, func(v *Validator) {
			v.KeyEquals("id", ldvalue.String("7")) // number vs string must not match
		}).failed)
	})

	t.Run("KeyContains is case-insensitive", func(t *testing.T) {
		assert.False(t, runValidation(resp, func(v *Validator) { v.KeyContains("firstname", "ADA") }).failed)
		assert.True(t, runValidation(resp, func(v *Validator) { v.KeyContains("firstname", "xyz") }).failed)
	})

	t.Run("list assertions", func(t *testing.T) {
		assert.False(t, runValidation(resp, func(v *Validator) { v.IsListAt("tags").ListLengthAt("tags", 2) }).failed)
		assert.True(t, runValidation(resp, func(v *Validator) { v.ListLengthAt("tags", 3) }).failed)
		assert.False(t, runValidation(resp, func(v *Validator) { v.MinListLengthAt("tags", 1) }).failed)

		list := objectResponse(200, `[1, 2, 3]`)
		assert.False(t, runValidation(list, func(v *Validator) { v.IsList().ListLength(3).MinListLength(2) }).failed)
		assert.True(t, runValidation(resp, func(v *Validator) { v.IsList() }).failed)
	})
}

func TestValidatorHeaderAndTiming(t *testing.T) {
	headers := make(http.Header)
	headers.Set("Cache-Control", "max-age=60")
	resp := &Response{
		StatusCode:     200,
		Body:           ldvalue.Parse([]byte(`{}`)),
		Headers:        headers,
		AttemptElapsed: 40 * time.Millisecond,
	}

	assert.False(t, runValidation(resp, func(v *Validator) { v.HeaderPresent("Cache-Control") }).failed)
	assert.True(t, runValidation(resp, func(v *Validator) { v.HeaderPresent("ETag") }).failed)

	assert.False(t, runValidation(resp, func(v *Validator) { v.ResponseTimeUnder(500 * time.Millisecond) }).failed)
	assert.True(t, runValidation(resp, func(v *Validator) { v.ResponseTimeUnder(time.Millisecond) }).failed)
}

func TestValidatorChainStopsAtFirstFailure(t *testing.T) {
	resp := objectResponse(500, `{"detail": "boom"}`)
	m := runValidation(resp, func(v *Validator) {
		v.Success().HasKey("missing").KeyEquals("missing", ldvalue.String("x"))
	})
	require.True(t, m.failed)
	// only the first link should have reported; the rest never ran
	assert.Len(t, m.messages, 1)
}

func TestValidatorResponseAccessor(t *testing.T) {
	resp := objectResponse(200, `{}`)
	m := &mockTestingT{}
	assert.Same(t, resp, Validate(m, resp).Response())
}
