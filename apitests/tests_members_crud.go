package apitests

import (
	"github.com/stretchr/testify/assert"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/trainingportal/rest-contract-tests/servicedef"
)

func DoMembersCRUDTests(t *T) {
	t.RequireResource(servicedef.MembersCollection)

	t.Run("create returns the new member", func(t *T) {
		id := t.CreateMember(servicedef.MemberParams{
			FirstName:   "API_Test",
			LastName:    "Member",
			Designation: "Test Trainer",
		})

		resp := t.MustGet(servicedef.DetailEndpoint(servicedef.MembersCollection, id))
		t.Validate(resp).
			StatusCode(200).
			HasKeys("id", "firstname", "lastname", "designation").
			KeyEquals("firstname", ldvalue.String("API_Test")).
			KeyEquals("lastname", ldvalue.String("Member"))
	})

	t.Run("list includes created member", func(t *T) {
		id := t.CreateMember(servicedef.MemberParams{
			FirstName:   "Listed",
			LastName:    "Member",
			Designation: "Trainer",
		})

		resp := t.MustGet(servicedef.MembersCollection)
		t.Validate(resp).
			Success().
			HasKey("results").
			IsListAt("results").
			MinListLengthAt("results", 1)

		found := false
		results := resp.Body.GetByKey("results")
		for i := 0; i < results.Count(); i++ {
			if results.GetByIndex(i).GetByKey("id").IntValue() == id {
				found = true
				break
			}
		}
		assert.True(t, found, "created member %d not present in list", id)
	})

	t.Run("full update with PUT", func(t *T) {
		id := t.CreateMember(servicedef.MemberParams{
			FirstName:   "Before",
			LastName:    "Update",
			Designation: "Trainer",
		})

		resp := t.MustPut(servicedef.DetailEndpoint(servicedef.MembersCollection, id),
			servicedef.MemberParams{
				FirstName:   "After",
				LastName:    "Update",
				Designation: "Senior Trainer",
			})
		t.Validate(resp).
			Success().
			KeyEquals("firstname", ldvalue.String("After")).
			KeyEquals("designation", ldvalue.String("Senior Trainer"))
	})

	t.Run("partial update with PATCH", func(t *T) {
		id := t.CreateMember(servicedef.MemberParams{
			FirstName:   "Partial",
			LastName:    "Update",
			Designation: "Trainer",
		})

		resp := t.MustPatch(servicedef.DetailEndpoint(servicedef.MembersCollection, id),
			map[string]string{"designation": "Lead Trainer"})
		t.Validate(resp).
			Success().
			KeyEquals("designation", ldvalue.String("Lead Trainer")).
			// Fields not named in the patch must be untouched.
			KeyEquals("firstname", ldvalue.String("Partial"))
	})

	t.Run("delete then read returns 404", func(t *T) {
		id := t.CreateMember(servicedef.MemberParams{
			FirstName:   "Doomed",
			LastName:    "Member",
			Designation: "Temporary",
		})

		endpoint := servicedef.DetailEndpoint(servicedef.MembersCollection, id)
		deleteResp := t.MustDelete(endpoint)
		assert.Contains(t, []int{200, 204}, deleteResp.StatusCode,
			"unexpected delete status, body: %s", deleteResp.Body.JSONString())

		t.Validate(t.MustGet(endpoint)).StatusCode(404)
	})

	t.Run("detail responds within SLA", func(t *T) {
		id := t.CreateMember(servicedef.MemberParams{
			FirstName:   "Timed",
			LastName:    "Member",
			Designation: "Trainer",
		})

		resp := t.MustGet(servicedef.DetailEndpoint(servicedef.MembersCollection, id))
		t.Validate(resp).
			Success().
			ResponseTimeUnder(t.cfg.Service.SLAResponseTime)
	})
}
