package output

import (
	"fmt"
	"io"
	"time"

	"github.com/abdul-hamid-achik/reqchain/packages/core/runner"
)

// Formatter renders calls as they finish and each queue once it completes.
type Formatter interface {
	FormatHeader(version string)
	FormatCall(call *runner.CallResult)
	FormatResult(result *runner.RunResult)
	FormatError(err error)
}

// Flushable is implemented by formatters that buffer until the end.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Formats lists the names accepted by New.
var Formats = []string{"console", "json", "junit", "tap"}

// New returns the formatter for format writing to w.
func New(format string, w io.Writer, verbose, noColor bool) (Formatter, error) {
	switch format {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor)), nil
	case "json":
		return NewJSONFormatter(JSONWithWriter(w)), nil
	case "junit":
		return NewJUnitFormatter(JUnitWithWriter(w)), nil
	case "tap":
		return NewTAPFormatter(TAPWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %v)", format, Formats)
	}
}

// suiteName labels a queue result for formats that need a name.
func suiteName(result *runner.RunResult) string {
	if result.Label != "" {
		return result.Label
	}
	return "queue"
}

// responseStatus returns the HTTP status of a call, zero without a response.
func responseStatus(c *runner.CallResult) int {
	if c.Response == nil {
		return 0
	}
	return c.Response.StatusCode
}
