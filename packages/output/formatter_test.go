package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/reqchain/packages/core/runner"
	"github.com/abdul-hamid-achik/reqchain/packages/http"
)

func sampleResult() *runner.RunResult {
	ok := &runner.CallResult{
		Name:     "login",
		State:    runner.StateDone,
		Request:  &http.Request{Method: "POST", URL: "http://api.test/login"},
		Response: &http.Response{StatusCode: 200, Status: "200 OK", Duration: 12 * time.Millisecond},
		Duration: 15 * time.Millisecond,
	}
	failed := &runner.CallResult{
		Name:     "profile",
		State:    runner.StateFailed,
		FailedAt: runner.StateScriptPost,
		Request:  &http.Request{Method: "GET", URL: "http://api.test/profile"},
		Response: &http.Response{StatusCode: 500, Status: "500 Internal Server Error", Duration: 30 * time.Millisecond},
		Duration: 31 * time.Millisecond,
		Err:      errors.New("post-request script: unexpected status"),
	}
	skipped := &runner.CallResult{Name: "orders", State: runner.StateIdle, Skipped: true}

	return &runner.RunResult{
		Label:    "orders",
		Queue:    []string{"login", "profile", "orders"},
		Calls:    []*runner.CallResult{ok, failed, skipped},
		Duration: 50 * time.Millisecond,
		Passed:   1,
		Failed:   1,
		Skipped:  1,
		Err:      failed.Err,
	}
}

func TestNew(t *testing.T) {
	for _, format := range Formats {
		f, err := New(format, &bytes.Buffer{}, false, true)
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}

	_, err := New("html", &bytes.Buffer{}, false, true)
	assert.Error(t, err)
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	result := sampleResult()
	f.FormatHeader("v1.0.0")
	for _, c := range result.Calls {
		f.FormatCall(c)
	}
	f.FormatResult(result)
	f.FormatError(errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "reqchain v1.0.0")
	assert.Contains(t, out, "✓ login")
	assert.Contains(t, out, "POST http://api.test/login")
	assert.Contains(t, out, "✗ profile (script-post)")
	assert.Contains(t, out, "unexpected status")
	assert.Contains(t, out, "- orders (skipped after failure)")
	assert.Contains(t, out, "1 passed, 1 failed, 1 skipped, 3 total")
	assert.Contains(t, out, "Latency: p50")
	assert.Contains(t, out, "Error: boom")
}

func TestConsoleFormatter_VerboseResponse(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatCall(&runner.CallResult{
		Name:  "list",
		State: runner.StateDone,
		Response: &http.Response{
			StatusCode: 200,
			Status:     "200 OK",
			Headers:    map[string]string{"content-type": "application/json; charset=utf-8"},
			Body:       []byte(`{"items": [], "total": 0}`),
		},
	})
	f.FormatCall(&runner.CallResult{
		Name:  "missing",
		State: runner.StateDone,
		Response: &http.Response{
			StatusCode: 404,
			Status:     "404 Not Found",
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       []byte(`not json`),
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Type:   application/json; charset=utf-8")
	assert.Contains(t, out, "Body:   {object with 2 keys}")
	assert.Contains(t, out, "Status: 404 Not Found")
	assert.Contains(t, out, "Body:   not json")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf), JSONWithRunID("run-1"))

	f.FormatResult(sampleResult())
	f.FormatError(errors.New("boom"))
	require.NoError(t, f.Flush(time.Second))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, JSONSummary{Total: 3, Passed: 1, Failed: 1, Skipped: 1}, out.Summary)
	assert.Equal(t, []string{"boom"}, out.Errors)
	assert.Equal(t, float64(1000), out.Duration)

	require.Len(t, out.Queues, 1)
	q := out.Queues[0]
	assert.Equal(t, "orders", q.Name)
	require.Len(t, q.Calls, 3)
	assert.Equal(t, "done", q.Calls[0].State)
	assert.Equal(t, 200, q.Calls[0].Response.StatusCode)
	assert.Equal(t, "script-post", q.Calls[1].FailedAt)
	assert.True(t, q.Calls[2].Skipped)
	require.NotNil(t, q.Latency)
	assert.InDelta(t, 30, q.Latency.Max, 0.1)
}

func TestJSONFormatter_GeneratesRunID(t *testing.T) {
	a := NewJSONFormatter()
	b := NewJSONFormatter()
	assert.NotEmpty(t, a.runID)
	assert.NotEqual(t, a.runID, b.runID)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))

	result := sampleResult()
	result.Calls = append(result.Calls, &runner.CallResult{
		Name:     "down",
		State:    runner.StateFailed,
		FailedAt: runner.StateBuilt,
		Err:      &runner.TransportError{Request: "down", Err: errors.New("connection refused")},
	})
	f.FormatResult(result)
	require.NoError(t, f.Flush(time.Second))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "<?xml"))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))
	assert.Equal(t, "reqchain", suites.Name)
	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	assert.Equal(t, 1, suites.Skipped)

	cases := suites.TestSuites[0].TestCases
	require.Len(t, cases, 4)
	assert.Nil(t, cases[0].Failure)
	require.NotNil(t, cases[1].Failure)
	assert.Equal(t, "script-post", cases[1].Failure.Type)
	assert.Contains(t, cases[1].Failure.Content, "status 500")
	assert.NotNil(t, cases[2].Skipped)
	require.NotNil(t, cases[3].Error)
	assert.Equal(t, "TransportError", cases[3].Error.Type)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))

	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "TAP version 13", lines[0])
	assert.Equal(t, "1..3", lines[1])
	assert.Equal(t, "ok 1 - orders > login", lines[2])
	assert.Equal(t, "not ok 2 - orders > profile", lines[3])
	assert.Contains(t, buf.String(), `message: "post-request script: unexpected status"`)
	assert.Contains(t, buf.String(), "failed_after: script-post")
	assert.Contains(t, buf.String(), "status: 500")
	assert.Contains(t, buf.String(), "ok 3 - orders > orders # SKIP")
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Latency{}, Summarize(nil))

	lat := Summarize(sampleResult().Calls)
	assert.Equal(t, int64(2), lat.Count)
	assert.InDelta(t, float64(12*time.Millisecond), float64(lat.Min), float64(50*time.Microsecond))
	assert.InDelta(t, float64(30*time.Millisecond), float64(lat.Max), float64(50*time.Microsecond))
	assert.LessOrEqual(t, lat.P50, lat.P99)
}

func TestEscapeYAML(t *testing.T) {
	assert.Equal(t, "plain", escapeYAML("plain"))
	assert.Equal(t, `"a: \"b\""`, escapeYAML(`a: "b"`))
}
