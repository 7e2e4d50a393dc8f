package apitests

import (
	"net/http"
	"strings"

	"github.com/stretchr/testify/assert"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/trainingportal/rest-contract-tests/rest"
	"github.com/trainingportal/rest-contract-tests/servicedef"
)

func DoCachingTests(t *T) {
	t.RequireResource(servicedef.MembersCollection)

	t.Run("list response advertises a cache policy", func(t *T) {
		resp := t.MustGet(servicedef.MembersCollection)
		rest.Validate(t, resp).Success()

		cacheControl := resp.Headers.Get("Cache-Control")
		if cacheControl == "" {
			t.SkipWithReason("service does not send Cache-Control on list responses")
		}
		t.Debug("Cache-Control: %s", cacheControl)
		if strings.Contains(cacheControl, "max-age") {
			assert.Regexp(t, `max-age=\d+`, cacheControl)
		}
	})

	t.Run("detail response cache policy matches the list policy shape", func(t *T) {
		id := t.CreateMember(servicedef.MemberParams{
			FirstName: "Cache", LastName: "Probe", Designation: "Instructor",
		})
		resp := t.MustGet(servicedef.DetailEndpoint(servicedef.MembersCollection, id))
		rest.Validate(t, resp).Success()

		if resp.Headers.Get("Cache-Control") == "" {
			t.SkipWithReason("service does not send Cache-Control on detail responses")
		}
	})

	t.Run("ETag revalidation returns 304 for an unchanged resource", func(t *T) {
		id := t.CreateMember(servicedef.MemberParams{
			FirstName: "Etag", LastName: "Probe", Designation: "Instructor",
		})
		endpoint := servicedef.DetailEndpoint(servicedef.MembersCollection, id)

		first := t.MustGet(endpoint)
		rest.Validate(t, first).Success()
		etag := first.Headers.Get("ETag")
		if etag == "" {
			t.SkipWithReason("service does not send ETag on detail responses")
		}

		second := t.MustGet(endpoint, rest.WithHeader("If-None-Match", etag))
		assert.Equal(t, http.StatusNotModified, second.StatusCode,
			"an unchanged resource should answer a matching If-None-Match with 304")
	})

	t.Run("ETag changes after the resource is modified", func(t *T) {
		id := t.CreateMember(servicedef.MemberParams{
			FirstName: "Etag", LastName: "Rotation", Designation: "Instructor",
		})
		endpoint := servicedef.DetailEndpoint(servicedef.MembersCollection, id)

		first := t.MustGet(endpoint)
		rest.Validate(t, first).Success()
		etag := first.Headers.Get("ETag")
		if etag == "" {
			t.SkipWithReason("service does not send ETag on detail responses")
		}

		patch := t.MustPatch(endpoint, map[string]interface{}{"designation": "Professor"})
		rest.Validate(t, patch).Success()

		revalidated := t.MustGet(endpoint, rest.WithHeader("If-None-Match", etag))
		assert.NotEqual(t, http.StatusNotModified, revalidated.StatusCode,
			"a stale ETag must not be treated as current")
		rest.Validate(t, revalidated).Success().KeyEquals("designation", ldvalue.String("Professor"))
	})
}
