package output

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/abdul-hamid-achik/reqchain/packages/core/runner"
)

// Latency summarizes transport round-trip times of the executed calls.
type Latency struct {
	Count int64
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// Summarize records the response duration of every call that reached the
// transport. Durations are tracked in microseconds from 1us to 60s.
func Summarize(calls []*runner.CallResult) Latency {
	h := hdrhistogram.New(1, 60_000_000, 3)
	for _, c := range calls {
		if c.Response == nil {
			continue
		}
		us := c.Response.Duration.Microseconds()
		if us < 1 {
			us = 1
		}
		_ = h.RecordValue(us)
	}

	if h.TotalCount() == 0 {
		return Latency{}
	}

	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return Latency{
		Count: h.TotalCount(),
		Min:   us(h.Min()),
		Max:   us(h.Max()),
		Mean:  us(int64(h.Mean())),
		P50:   us(h.ValueAtQuantile(50)),
		P95:   us(h.ValueAtQuantile(95)),
		P99:   us(h.ValueAtQuantile(99)),
	}
}
