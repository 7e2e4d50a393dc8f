package apitests

import (
	"github.com/trainingportal/rest-contract-tests/servicedef"
)

// DoCollectionTests smoke-tests every collection endpoint the service
// exposes: each must answer a list request with the standard pagination
// envelope.
func DoCollectionTests(t *T) {
	for _, collection := range servicedef.AllCollections {
		collection := collection
		t.Run(collection+" list", func(t *T) {
			t.RequireResource(collection)

			resp := t.MustGet(collection)
			t.Validate(resp).
				Success().
				NotRateLimited().
				HasKeys("count", "next", "previous", "results").
				IsListAt("results")
		})
	}
}
