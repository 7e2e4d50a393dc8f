package framework

import (
	"fmt"
	"io"

	"github.com/trainingportal/rest-contract-tests/logging"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// CapturedOutput is the debug output collected while one test ran.
type CapturedOutput []logging.CapturedMessage

func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		fmt.Fprintf(dest, "%s[%s] %s\n",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
}
