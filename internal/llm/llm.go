package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Request is a single prompt sent to an external completion backend.
// Zero MaxTokens or Temperature use the backend's configured values.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Backend is an external text-generation provider
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// LocalModel is a locally hosted generator. maxLength is a token budget for the continuation.
type LocalModel interface {
	Generate(ctx context.Context, prompt string, maxLength int) (string, error)
}

// Status is the outcome class of a generation call
type Status int

const (
	StatusOK Status = iota
	StatusUnavailable
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnavailable:
		return "unavailable"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ErrNotConfigured is the Err of an Unavailable result
var ErrNotConfigured = errors.New("generation backend not configured")

// Result is the outcome of one generation call. Callers switch on Status
// rather than inspecting errors.
type Result struct {
	Status   Status
	Provider string
	Text     string
	Err      error
	Elapsed  time.Duration
}

// OK reports whether the call produced text
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// TimedOut reports whether a failed call hit its deadline
func (r Result) TimedOut() bool {
	return r.Status == StatusFailed && errors.Is(r.Err, context.DeadlineExceeded)
}

// Call runs req against b with a bounded timeout. A nil backend is Unavailable.
func Call(ctx context.Context, b Backend, req Request, timeout time.Duration) Result {
	if b == nil {
		return Result{Status: StatusUnavailable, Err: ErrNotConfigured}
	}

	callCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	text, err := b.Complete(callCtx, req)
	elapsed := time.Since(start)
	if err == nil && callCtx.Err() != nil {
		err = callCtx.Err()
	}
	if err != nil {
		return Result{Status: StatusFailed, Provider: b.Name(), Err: err, Elapsed: elapsed}
	}
	return Result{Status: StatusOK, Provider: b.Name(), Text: text, Elapsed: elapsed}
}

// Generate runs a local model with a bounded timeout. A nil model is Unavailable.
func Generate(ctx context.Context, m LocalModel, prompt string, maxLength int, timeout time.Duration) Result {
	if m == nil {
		return Result{Status: StatusUnavailable, Err: ErrNotConfigured}
	}

	callCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	text, err := m.Generate(callCtx, prompt, maxLength)
	elapsed := time.Since(start)
	if err == nil && callCtx.Err() != nil {
		err = callCtx.Err()
	}
	if err != nil {
		return Result{Status: StatusFailed, Provider: "local", Err: err, Elapsed: elapsed}
	}
	return Result{Status: StatusOK, Provider: "local", Text: text, Elapsed: elapsed}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
