package queue

import (
	"fmt"
	"time"
)

// Outcome is the terminal status of a request.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeError       Outcome = "error"
	OutcomeRateLimited Outcome = "rate_limited"
)

// Notices shown to the requester for non-success outcomes.
const (
	timeoutNotice = "Timed out while waiting for response. Please try again later."
	stoppedNotice = "The queue stopped before this request could run."
)

// Request is one prompt waiting for the backend.
type Request struct {
	// ID identifies the request to the caller (e.g. the originating message
	// handle). Submit assigns a UUID when empty.
	ID     string
	Prompt string
	// SubmittedAt is stamped by Submit.
	SubmittedAt time.Time
	// OnStart, if set, is called when the request begins executing with the
	// number of requests still waiting behind it.
	OnStart func(ahead int)
}

// Delivery is passed to the DeliverFunc exactly once per request.
type Delivery struct {
	RequestID string
	Outcome   Outcome
	// Text is the normalized response on success, otherwise a notice.
	Text string
	// Segments is Text split for delivery (success only).
	Segments []string
	// Error is the failure detail for OutcomeError.
	Error string
	// ResetAt is set for OutcomeRateLimited.
	ResetAt  time.Time
	Provider string
	Model    string
	// Waited is the time spent pending; Elapsed is execution time.
	Waited  time.Duration
	Elapsed time.Duration
}

// DeliverFunc receives the outcome of a request. It runs on the worker
// goroutine and must not block for long.
type DeliverFunc func(Delivery)

func errorNotice(msg string) string { return "Error: " + msg }

func rateLimitNotice(provider string, reset time.Time, loc *time.Location, hint string) string {
	s := fmt.Sprintf("%s's rate limit resets at: %s", provider, reset.In(loc).Format("2006-01-02 15:04:05 MST"))
	if hint != "" {
		s += "\n" + hint
	}
	return s
}
