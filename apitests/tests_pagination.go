package apitests

import (
	"encoding/json"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/trainingportal/rest-contract-tests/servicedef"
)

func DoPaginationTests(t *T) {
	t.RequireResource(servicedef.MembersCollection)

	t.Run("envelope decodes into the documented shape", func(t *T) {
		resp := t.MustGet(servicedef.MembersCollection)
		t.Validate(resp).Success()

		var page servicedef.Page
		require.NoError(t, json.Unmarshal([]byte(resp.Body.JSONString()), &page),
			"pagination envelope did not match the documented shape")
		assert.GreaterOrEqual(t, page.Count, len(page.Results),
			"count must cover at least the returned page")
	})

	t.Run("count is consistent with results", func(t *T) {
		// Make sure there is at least one record to page over.
		t.CreateMember(servicedef.MemberParams{
			FirstName:   "Paged",
			LastName:    "Member",
			Designation: "Trainer",
		})

		resp := t.MustGet(servicedef.MembersCollection)
		t.Validate(resp).
			Success().
			MinListLengthAt("results", 1)

		count := resp.Body.GetByKey("count").IntValue()
		results := resp.Body.GetByKey("results").Count()
		assert.GreaterOrEqual(t, count, results)
	})

	t.Run("link fields are null or strings", func(t *T) {
		resp := t.MustGet(servicedef.MembersCollection)
		t.Validate(resp).Success().HasKeys("next", "previous")

		for _, key := range []string{"next", "previous"} {
			link := resp.Body.GetByKey(key)
			assert.Contains(t,
				[]ldvalue.ValueType{ldvalue.NullType, ldvalue.StringType}, link.Type(),
				"%q must be null or a URL string, got %s", key, link.JSONString())
		}
	})

	t.Run("every result row carries an id", func(t *T) {
		t.CreateMember(servicedef.MemberParams{
			FirstName:   "RowCheck",
			LastName:    "Member",
			Designation: "Trainer",
		})

		resp := t.MustGet(servicedef.MembersCollection)
		t.Validate(resp).Success().MinListLengthAt("results", 1)

		results := resp.Body.GetByKey("results")
		for i := 0; i < results.Count(); i++ {
			row := results.GetByIndex(i)
			require.Equal(t, ldvalue.ObjectType, row.Type(),
				"result %d is not an object: %s", i, row.JSONString())
			assert.Greater(t, row.GetByKey("id").IntValue(), 0,
				"result %d has no positive id: %s", i, row.JSONString())
		}
	})
}
