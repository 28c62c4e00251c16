package queue

import (
	"context"
	"time"

	"promptq/internal/backend"
	"promptq/pkg/types"
)

// Status returns a point-in-time snapshot of the queue.
func (q *Queue) Status() types.StatusResponse {
	s := q.Settings()
	q.mu.Lock()
	out := types.StatusResponse{
		Busy:    q.busy,
		Current: q.current,
		Pending: len(q.pending),
		Totals:  make(map[string]uint64, len(q.totals)),
	}
	for o, n := range q.totals {
		out.Totals[string(o)] = n
	}
	q.mu.Unlock()
	out.Running = q.Ready()
	out.Settings = types.SettingsResponse{Provider: s.Provider, Model: s.Model, SystemPrompt: s.SystemPrompt}
	out.DeadlineMs = q.deadline.Milliseconds()
	now := time.Now()
	out.UptimeSeconds = int64(now.Sub(q.startTime).Seconds())
	out.ServerTimeUnix = now.Unix()
	return out
}

// Models lists the models offered by the current provider.
func (q *Queue) Models(ctx context.Context) ([]string, error) {
	a, err := q.router.Resolve(q.Settings())
	if err != nil {
		return nil, err
	}
	ml, ok := a.(backend.ModelLister)
	if !ok {
		return nil, backend.ErrNotSupported
	}
	return ml.Models(ctx)
}

// Ping checks the current provider's liveness. Providers without a cheap
// liveness check are assumed reachable.
func (q *Queue) Ping(ctx context.Context) error {
	a, err := q.router.Resolve(q.Settings())
	if err != nil {
		return err
	}
	if p, ok := a.(backend.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
