package runner

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/abdul-hamid-achik/reqchain/packages/core/env"
)

const (
	DefaultWaitTimeout  = 30 * time.Second
	DefaultWaitInterval = 500 * time.Millisecond
)

// WaitForConfig describes a readiness probe run before a queue.
type WaitForConfig struct {
	URL      string
	Status   int
	Timeout  time.Duration
	Interval time.Duration
}

// WaitFor polls cfg.URL until it answers with cfg.Status or the timeout
// passes. The URL may reference environment variables.
func (r *Runner) WaitFor(ctx context.Context, cfg WaitForConfig) error {
	vars, err := r.Env()
	if err != nil {
		return err
	}
	url, err := env.InterpolateString(cfg.URL, vars, env.ModeStrict)
	if err != nil {
		return fmt.Errorf("wait-for url: %w", err)
	}

	if cfg.Status == 0 {
		cfg.Status = nethttp.StatusOK
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultWaitTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultWaitInterval
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client := &nethttp.Client{
		Timeout: 5 * time.Second,
	}

	var lastErr error
	var lastStatus int

	for {
		req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("wait-for url %q: %w", url, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() == nil {
				lastErr = err
			}
		} else {
			lastErr = nil
			lastStatus = resp.StatusCode
			resp.Body.Close()
			if resp.StatusCode == cfg.Status {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("service %s not ready after %v: %v", url, cfg.Timeout, lastErr)
			}
			return fmt.Errorf("service %s not ready after %v: got status %d, expected %d",
				url, cfg.Timeout, lastStatus, cfg.Status)
		case <-time.After(cfg.Interval):
		}
	}
}
