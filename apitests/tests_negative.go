package apitests

import (
	"github.com/stretchr/testify/assert"

	"github.com/trainingportal/rest-contract-tests/rest"
	"github.com/trainingportal/rest-contract-tests/servicedef"
)

func DoNegativeTests(t *T) {
	t.RequireResource(servicedef.MembersCollection)

	t.Run("creating a member with an empty payload is rejected", func(t *T) {
		resp := t.MustPost(servicedef.MembersCollection, map[string]interface{}{})
		rest.Validate(t, resp).ClientError().NotRateLimited()
	})

	t.Run("reading a missing member returns 404", func(t *T) {
		resp := t.MustGet(servicedef.DetailEndpoint(servicedef.MembersCollection, 99999999))
		rest.Validate(t, resp).StatusCode(404)
	})

	t.Run("a non-numeric member id is a client error", func(t *T) {
		resp := t.MustGet(servicedef.MembersCollection + "/not-a-number")
		rest.Validate(t, resp).ClientError()
	})

	t.Run("deleting a missing member returns 404", func(t *T) {
		resp := t.MustDelete(servicedef.DetailEndpoint(servicedef.MembersCollection, 99999999))
		rest.Validate(t, resp).StatusCode(404)
	})

	t.Run("updating a missing member returns 404", func(t *T) {
		resp := t.MustPut(servicedef.DetailEndpoint(servicedef.MembersCollection, 99999999),
			servicedef.MemberParams{
				FirstName: "Nobody", LastName: "Home", Designation: "Ghost",
			})
		rest.Validate(t, resp).StatusCode(404)
	})

	t.Run("error responses are not misreported as rate limited", func(t *T) {
		resp := t.MustGet(servicedef.DetailEndpoint(servicedef.MembersCollection, 99999999))
		assert.False(t, resp.WasRateLimited)
		assert.Equal(t, 0, resp.RetryCount)
	})
}
