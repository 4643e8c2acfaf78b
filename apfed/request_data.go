package apfed

import (
	"context"
	"fmt"
	"sync/atomic"
)

// RequestData is a per-operation handle derived from a Config. It is
// created at the entry point of each inbound HTTP request, or at each
// application-initiated operation, and carries an exclusive fetch-request
// budget: every outbound GET performed through it decrements the counter,
// and hitting zero fails further fetches with ErrBudgetExceeded.
type RequestData struct {
	ctx     context.Context
	config  *Config
	appData any
	budget  int32
}

// NewRequestData derives a RequestData from cfg, scoped to ctx. Pass the
// inbound request's context (or context.Background() for background
// operations); cancelling ctx cancels in-flight fetches issued through the
// returned handle.
func (c *Config) NewRequestData(ctx context.Context) *RequestData {
	return &RequestData{
		ctx:     ctx,
		config:  c,
		appData: c.applicationData,
		budget:  int32(c.httpFetchLimit),
	}
}

// Context returns the cancellation-bearing context this handle was created
// with.
func (rd *RequestData) Context() context.Context { return rd.ctx }

// Config returns the shared federation configuration.
func (rd *RequestData) Config() *Config { return rd.config }

// AppData returns the opaque application value threaded through from
// Config.
func (rd *RequestData) AppData() any { return rd.appData }

// TakeFetchBudget decrements the remaining fetch budget by one, returning
// ErrBudgetExceeded if none remains. Safe for concurrent use by a single
// RequestData, though RequestData handles are not meant to be shared across
// goroutines that might race on unrelated fields.
func (rd *RequestData) TakeFetchBudget() error {
	remaining := atomic.AddInt32(&rd.budget, -1)
	if remaining < 0 {
		atomic.AddInt32(&rd.budget, 1) // don't let the counter run away
		return fmt.Errorf("%w: limit was %d", ErrBudgetExceeded, rd.config.httpFetchLimit)
	}
	return nil
}

// RemainingBudget returns the number of outbound GETs still permitted
// through this handle. Useful for tests and diagnostics.
func (rd *RequestData) RemainingBudget() int {
	return int(atomic.LoadInt32(&rd.budget))
}
