package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/reqchain/packages/core/runner"
)

// TAPFormatter formats call results in TAP (Test Anything Protocol) format
type TAPFormatter struct {
	writer    io.Writer
	testCount int
	results   []tapResult
}

type tapResult struct {
	number   int
	name     string
	skipped  bool
	error    string
	failedAt string
	status   int
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer:  os.Stdout,
		results: make([]tapResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatCall(*runner.CallResult) {
	// Calls are written with their queue
}

func (f *TAPFormatter) FormatResult(result *runner.RunResult) {
	prefix := suiteName(result)
	for _, c := range result.Calls {
		f.testCount++
		tr := tapResult{
			number:  f.testCount,
			name:    prefix + " > " + c.Name,
			skipped: c.Skipped,
			status:  responseStatus(c),
		}
		if c.Err != nil {
			tr.error = c.Err.Error()
			tr.failedAt = c.FailedAt.String()
		}
		f.results = append(f.results, tr)
	}
}

func (f *TAPFormatter) FormatError(err error) {
	// Errors are included in individual call results
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	fmt.Fprintf(f.writer, "TAP version 13\n")
	fmt.Fprintf(f.writer, "1..%d\n", f.testCount)

	for _, r := range f.results {
		if r.skipped {
			fmt.Fprintf(f.writer, "ok %d - %s # SKIP earlier call failed\n", r.number, r.name)
			continue
		}

		if r.error != "" {
			fmt.Fprintf(f.writer, "not ok %d - %s\n", r.number, r.name)
			fmt.Fprintf(f.writer, "  ---\n")
			fmt.Fprintf(f.writer, "  message: %s\n", escapeYAML(r.error))
			fmt.Fprintf(f.writer, "  failed_after: %s\n", r.failedAt)
			if r.status != 0 {
				fmt.Fprintf(f.writer, "  status: %d\n", r.status)
			}
			fmt.Fprintf(f.writer, "  ...\n")
			continue
		}

		fmt.Fprintf(f.writer, "ok %d - %s\n", r.number, r.name)
	}

	fmt.Fprintf(f.writer, "# time %dms\n", totalDuration.Milliseconds())
	return nil
}

func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":\n\"'[]{}#&*!|>%@`") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		return "\"" + s + "\""
	}
	return s
}
