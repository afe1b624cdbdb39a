package runner

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/reqchain/packages/http"
)

// CallState is a step of a single call.
type CallState int

const (
	StateIdle CallState = iota
	StateScriptPre
	StateBuilt
	StateExecuted
	StateScriptPost
	StateDone
	StateFailed
)

var callStateNames = map[CallState]string{
	StateIdle:       "idle",
	StateScriptPre:  "script-pre",
	StateBuilt:      "built",
	StateExecuted:   "executed",
	StateScriptPost: "script-post",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s CallState) String() string {
	if name, ok := callStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("CallState(%d)", int(s))
}

// CallResult records one call. When State is StateFailed, FailedAt is the
// last state reached before the failing step.
type CallResult struct {
	Name     string
	State    CallState
	FailedAt CallState
	Visited  []CallState
	Skipped  bool
	Request  *http.Request
	Response *http.Response
	Duration time.Duration
	Err      error
}

func (c *CallResult) advance(s CallState) {
	c.Visited = append(c.Visited, s)
	c.State = s
}

// Passed reports whether the call reached StateDone.
func (c *CallResult) Passed() bool {
	return c.State == StateDone
}
