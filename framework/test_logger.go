package framework

// TestLogger receives progress events as the test suite runs. The console
// runner implements this to print per-test status lines; the Context calls it
// for every subtest in the tree.
type TestLogger interface {
	// TestStarted is called when a test or subtest begins.
	TestStarted(id TestID)
	// TestError is called for each failure recorded within a test. It may be
	// called multiple times for one test, or not at all.
	TestError(id TestID, err error)
	// TestFinished is called when a test ends, with any debug output that was
	// captured while it ran.
	TestFinished(id TestID, failed bool, debugOutput CapturedOutput)
	// TestSkipped is called instead of TestFinished when a test opts out,
	// for instance because the service does not serve the resource it needs.
	TestSkipped(id TestID, reason string)
}

type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(TestID)                        {}
func (n nullTestLogger) TestError(TestID, error)                   {}
func (n nullTestLogger) TestFinished(TestID, bool, CapturedOutput) {}
func (n nullTestLogger) TestSkipped(TestID, string)                {}
