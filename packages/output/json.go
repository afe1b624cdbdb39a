package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/reqchain/packages/core/runner"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	RunID    string      `json:"runId"`
	Summary  JSONSummary `json:"summary"`
	Queues   []JSONQueue `json:"queues"`
	Errors   []string    `json:"errors,omitempty"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the run summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONQueue is one executed call queue
type JSONQueue struct {
	Name    string       `json:"name"`
	Queue   []string     `json:"queue"`
	Calls   []JSONCall   `json:"calls"`
	Latency *JSONLatency `json:"latency,omitempty"`
}

// JSONCall represents a single call result
type JSONCall struct {
	Name     string        `json:"name"`
	State    string        `json:"state"`
	FailedAt string        `json:"failedAt,omitempty"`
	Skipped  bool          `json:"skipped,omitempty"`
	Duration float64       `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Request  *JSONRequest  `json:"request,omitempty"`
	Response *JSONResponse `json:"response,omitempty"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration"`
}

// JSONLatency holds percentiles in milliseconds
type JSONLatency struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

// JSONFormatter formats run results as JSON
type JSONFormatter struct {
	writer io.Writer
	runID  string
	queues []JSONQueue
	errors []string
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		runID:  uuid.NewString(),
		queues: make([]JSONQueue, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// JSONWithRunID fixes the run identifier instead of generating one.
func JSONWithRunID(id string) JSONOption {
	return func(f *JSONFormatter) {
		f.runID = id
	}
}

func (f *JSONFormatter) FormatCall(*runner.CallResult) {
	// Calls are written with their queue
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	q := JSONQueue{
		Name:  suiteName(result),
		Queue: result.Queue,
		Calls: make([]JSONCall, 0, len(result.Calls)),
	}

	for _, c := range result.Calls {
		call := JSONCall{
			Name:     c.Name,
			State:    c.State.String(),
			Skipped:  c.Skipped,
			Duration: millis(c.Duration),
		}

		if c.Err != nil {
			call.Error = c.Err.Error()
			call.FailedAt = c.FailedAt.String()
		}

		if c.Request != nil {
			call.Request = &JSONRequest{
				Method:  c.Request.Method,
				URL:     c.Request.URL,
				Headers: c.Request.Headers,
			}
		}

		if c.Response != nil {
			call.Response = &JSONResponse{
				StatusCode: c.Response.StatusCode,
				Status:     c.Response.Status,
				Headers:    c.Response.Headers,
				Duration:   millis(c.Response.Duration),
			}
		}

		q.Calls = append(q.Calls, call)
	}

	if lat := Summarize(result.Calls); lat.Count > 0 {
		q.Latency = &JSONLatency{
			P50: millis(lat.P50),
			P95: millis(lat.P95),
			P99: millis(lat.P99),
			Max: millis(lat.Max),
		}
	}

	f.queues = append(f.queues, q)
}

func (f *JSONFormatter) FormatError(err error) {
	f.errors = append(f.errors, err.Error())
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var summary JSONSummary
	for _, q := range f.queues {
		for _, c := range q.Calls {
			summary.Total++
			switch {
			case c.Skipped:
				summary.Skipped++
			case c.Error != "":
				summary.Failed++
			default:
				summary.Passed++
			}
		}
	}

	output := JSONOutput{
		RunID:    f.runID,
		Summary:  summary,
		Queues:   f.queues,
		Errors:   f.errors,
		Duration: millis(totalDuration),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
