package apitests

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/trainingportal/rest-contract-tests/rest"
	"github.com/trainingportal/rest-contract-tests/servicedef"
)

func DoConcurrencyTests(t *T) {
	t.Run("concurrent full updates leave one writer's record", func(t *T) {
		t.RequireResource(servicedef.MembersCollection)

		id := t.CreateMember(servicedef.MemberParams{
			FirstName: "Race", LastName: "Subject", Designation: "Instructor",
		})
		endpoint := servicedef.DetailEndpoint(servicedef.MembersCollection, id)

		const writers = 3
		names := make(map[string]bool, writers)
		var wg sync.WaitGroup
		errs := make([]error, writers)
		for i := 0; i < writers; i++ {
			name := fmt.Sprintf("Writer%d", i)
			names[name] = true
			wg.Add(1)
			go func(i int, name string) {
				defer wg.Done()
				ctx, cancel := t.requestContext()
				defer cancel()
				_, errs[i] = t.client.Put(ctx, endpoint, servicedef.MemberParams{
					FirstName: name, LastName: "Subject", Designation: "Instructor",
				})
			}(i, name)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		final := t.MustGet(endpoint)
		rest.Validate(t, final).Success()
		got := final.Body.GetByKey("firstname").StringValue()
		assert.True(t, names[got],
			"final firstname %q should belong to one of the concurrent writers", got)
	})

	t.Run("concurrent partial updates of the same field converge", func(t *T) {
		t.RequireResource(servicedef.MembersCollection)

		id := t.CreateMember(servicedef.MemberParams{
			FirstName: "Patch", LastName: "Subject", Designation: "Instructor",
		})
		endpoint := servicedef.DetailEndpoint(servicedef.MembersCollection, id)

		titles := []string{"Lecturer", "Professor", "Dean"}
		var wg sync.WaitGroup
		for _, title := range titles {
			wg.Add(1)
			go func(title string) {
				defer wg.Done()
				ctx, cancel := t.requestContext()
				defer cancel()
				_, _ = t.client.Patch(ctx, endpoint,
					map[string]interface{}{"designation": title})
			}(title)
		}
		wg.Wait()

		final := t.MustGet(endpoint)
		rest.Validate(t, final).Success()
		got := final.Body.GetByKey("designation").StringValue()
		assert.Contains(t, titles, got)
		// The untouched fields must survive whichever patch landed last.
		rest.Validate(t, final).KeyEquals("firstname", ldvalue.String("Patch"))
	})

	t.Run("reads during a write never see a malformed record", func(t *T) {
		t.RequireResource(servicedef.MembersCollection)

		id := t.CreateMember(servicedef.MemberParams{
			FirstName: "Reader", LastName: "Subject", Designation: "Instructor",
		})
		endpoint := servicedef.DetailEndpoint(servicedef.MembersCollection, id)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := t.requestContext()
			defer cancel()
			_, _ = t.client.Put(ctx, endpoint, servicedef.MemberParams{
				FirstName: "Rewritten", LastName: "Subject", Designation: "Professor",
			})
		}()

		const readers = 5
		responses := make([]*rest.Response, readers)
		wg.Add(readers)
		for i := 0; i < readers; i++ {
			go func(i int) {
				defer wg.Done()
				ctx, cancel := t.requestContext()
				defer cancel()
				responses[i], _ = t.client.Get(ctx, endpoint)
			}(i)
		}
		wg.Wait()

		for _, resp := range responses {
			if resp == nil {
				continue
			}
			rest.Validate(t, resp).Success().
				HasKeys("id", "firstname", "lastname", "designation")
		}
	})

	t.Run("shared metrics lose no updates under contention", func(t *T) {
		endpoint := t.NewMockEndpoint(rateLimitedHandler(""))
		policy := fastRetryPolicy()
		policy.MaxRetries = 0
		policy.CircuitBreakerThreshold = 1000
		client := t.NewClientForEndpoint(endpoint, policy)

		const callers = 20
		var wg sync.WaitGroup
		wg.Add(callers)
		for i := 0; i < callers; i++ {
			go func() {
				defer wg.Done()
				_, _ = client.Get(context.Background(), servicedef.MembersCollection)
			}()
		}
		wg.Wait()

		assert.Equal(t, callers, client.Metrics().TotalRateLimited())
		assert.Equal(t, 0, client.Metrics().TotalRetries())
		assert.Equal(t, callers, len(client.Metrics().Timestamps()))
	})
}
