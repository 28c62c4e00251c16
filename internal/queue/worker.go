package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"promptq/internal/backend"
	"promptq/internal/chunk"
	"promptq/internal/normalize"
)

// Run executes requests one at a time until ctx is cancelled. It sleeps on
// the wake channel with IdleInterval as a fallback poll while the queue is
// empty. Requests still pending when Run returns are delivered as errors.
func (q *Queue) Run(ctx context.Context) error {
	if !q.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer q.running.Store(false)
	defer q.dropPending()

	q.log.Info().Dur("deadline", q.deadline).Str("provider", q.Settings().Provider).Msg("queue worker started")
	ticker := time.NewTicker(q.idle)
	defer ticker.Stop()
	for {
		for ctx.Err() == nil {
			it, ahead, ok := q.claim()
			if !ok {
				break
			}
			q.execute(ctx, it, ahead)
		}
		select {
		case <-ctx.Done():
			q.log.Info().Msg("queue worker stopped")
			return nil
		case <-q.wake:
		case <-ticker.C:
		}
	}
}

// Start runs the worker in a new goroutine. The returned channel is closed
// once the worker has exited.
func (q *Queue) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := q.Run(ctx); err != nil {
			q.log.Warn().Err(err).Msg("queue worker not started")
		}
	}()
	return done
}

// execute runs one claimed request and delivers its outcome. It never panics.
func (q *Queue) execute(parent context.Context, it *item, ahead int) {
	start := time.Now()
	settings := q.Settings()
	d := Delivery{
		RequestID: it.req.ID,
		Provider:  settings.Provider,
		Model:     settings.Model,
		Waited:    start.Sub(it.req.SubmittedAt),
	}
	waitSeconds.Observe(d.Waited.Seconds())

	if it.req.OnStart != nil {
		q.guard("on_start", func() { it.req.OnStart(ahead) })
	}
	q.events.Publish(Event{Name: EventStarted, RequestID: it.req.ID, Fields: map[string]any{"provider": settings.Provider, "ahead": ahead}})
	lg := q.log.With().Str("request_id", it.req.ID).Str("provider", settings.Provider).Logger()
	lg.Debug().Int("ahead", ahead).Dur("waited", d.Waited).Msg("request started")

	res, timedOut := q.call(parent, it.req.Prompt, settings)
	d.Elapsed = time.Since(start)
	execSeconds.WithLabelValues(settings.Provider).Observe(d.Elapsed.Seconds())

	switch {
	case timedOut:
		d.Outcome = OutcomeTimeout
		d.Text = timeoutNotice
	case res.Kind == backend.KindSuccess:
		d.Outcome = OutcomeSuccess
		d.Text = normalize.Normalize(res.Text)
		d.Segments = q.segments(d.Text, &lg)
	case res.Kind == backend.KindRateLimited:
		d.Outcome = OutcomeRateLimited
		d.ResetAt = res.ResetAt
		d.Text = rateLimitNotice(settings.Provider, res.ResetAt, q.loc, res.Hint)
	default:
		d.Outcome = OutcomeError
		d.Error = res.Message
		d.Text = errorNotice(res.Message)
	}
	if d.Segments == nil {
		d.Segments = []string{d.Text}
	}

	ev := lg.Info()
	if d.Outcome == OutcomeError || d.Outcome == OutcomeTimeout {
		ev = lg.Warn().Str("error", d.Error)
	}
	ev.Str("outcome", string(d.Outcome)).Dur("elapsed", d.Elapsed).Int("segments", len(d.Segments)).Msg("request finished")

	q.guard("deliver", func() { it.deliver(d) })
	q.release(d.Outcome)
	completedTotal.WithLabelValues(settings.Provider, string(d.Outcome)).Inc()
	q.events.Publish(Event{Name: EventCompleted, RequestID: it.req.ID, Fields: map[string]any{"outcome": string(d.Outcome), "elapsed_ms": d.Elapsed.Milliseconds()}})
}

// call invokes the adapter under the deadline. timedOut is true when the
// deadline expired first, or when the adapter reported a transport failure
// after it expired. A transport failure after the parent context ended is
// reported as stoppedNotice.
func (q *Queue) call(parent context.Context, prompt string, settings backend.ProviderConfig) (res backend.Result, timedOut bool) {
	adapter, err := q.router.Resolve(settings)
	if err != nil {
		return backend.TransportFailure(err.Error()), false
	}
	ctx, cancel := context.WithTimeout(parent, q.deadline)
	defer cancel()

	ch := make(chan backend.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				panicsTotal.WithLabelValues("adapter").Inc()
				q.log.Error().Interface("panic", r).Str("provider", settings.Provider).Msg("adapter panic")
				ch <- backend.TransportFailure(fmt.Sprintf("adapter panic: %v", r))
			}
		}()
		ch <- adapter.Execute(ctx, prompt, settings)
	}()

	got := false
	select {
	case res = <-ch:
		got = true
	case <-ctx.Done():
	}
	if got && (res.Kind != backend.KindTransportError || ctx.Err() == nil) {
		return res, false
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return backend.Result{}, true
	}
	return backend.TransportFailure(stoppedNotice), false
}

func (q *Queue) segments(text string, lg *zerolog.Logger) []string {
	segs, err := chunk.Split(text, q.chunkLimit, q.chunkPolicy)
	if err != nil {
		// PolicyReject: deliver unsplit rather than drop the response.
		lg.Warn().Err(err).Msg("response not split")
		return []string{text}
	}
	return chunk.Texts(segs)
}

// guard runs fn, recovering and logging a panic.
func (q *Queue) guard(site string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			panicsTotal.WithLabelValues(site).Inc()
			q.log.Error().Interface("panic", r).Str("site", site).Msg("recovered panic")
		}
	}()
	fn()
}

// dropPending delivers stoppedNotice to every request that never ran.
func (q *Queue) dropPending() {
	for _, it := range q.drain() {
		d := Delivery{
			RequestID: it.req.ID,
			Outcome:   OutcomeError,
			Error:     stoppedNotice,
			Text:      errorNotice(stoppedNotice),
			Waited:    time.Since(it.req.SubmittedAt),
		}
		d.Segments = []string{d.Text}
		q.events.Publish(Event{Name: EventDropped, RequestID: it.req.ID})
		q.guard("deliver", func() { it.deliver(d) })
	}
}
