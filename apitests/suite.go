package apitests

import (
	"github.com/trainingportal/rest-contract-tests/config"
	"github.com/trainingportal/rest-contract-tests/framework"
	"github.com/trainingportal/rest-contract-tests/servicedef"
)

// AllResources lists the collections the suite knows how to test. The runner
// passes these to the harness probe and to the filter description.
var AllResources = servicedef.AllCollections

// RunTestSuite runs the whole contract-test suite against the service the
// harness points at, returning accumulated results.
func RunTestSuite(
	harness *framework.TestHarness,
	cfg config.Config,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, harness, cfg)

		t.Run("members CRUD", DoMembersCRUDTests)
		t.Run("courses", DoCourseTests)
		t.Run("students", DoStudentTests)
		t.Run("collections", DoCollectionTests)
		t.Run("pagination", DoPaginationTests)
		t.Run("rate limiting", DoRateLimitTests)
		t.Run("caching", DoCachingTests)
		t.Run("concurrency", DoConcurrencyTests)
		t.Run("negative cases", DoNegativeTests)
	})
}
