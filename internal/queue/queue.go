package queue

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"promptq/internal/backend"
	"promptq/internal/chunk"
)

// item is a pending request together with its delivery target.
type item struct {
	req     Request
	deliver DeliverFunc
}

// Queue is a FIFO of prompt requests served by a single worker.
type Queue struct {
	mu      sync.Mutex
	pending []*item
	busy    bool
	current string // id of the executing request
	totals  map[Outcome]uint64

	// wake is signalled (non-blocking) on every Submit.
	wake    chan struct{}
	running atomic.Bool

	settingsMu sync.Mutex
	settings   atomic.Pointer[backend.ProviderConfig]

	router      Resolver
	deadline    time.Duration
	idle        time.Duration
	chunkLimit  int
	chunkPolicy chunk.Policy
	loc         *time.Location
	events      EventPublisher
	log         zerolog.Logger
	startTime   time.Time
}

// Submit enqueues req and returns the 1-based position it occupies, counting
// the request currently executing. It never blocks on the worker.
func (q *Queue) Submit(req Request, deliver DeliverFunc) int {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.SubmittedAt = time.Now()
	if deliver == nil {
		deliver = func(Delivery) {}
	}

	q.mu.Lock()
	pos := len(q.pending) + 1
	if q.busy {
		pos++
	}
	q.pending = append(q.pending, &item{req: req, deliver: deliver})
	depth := len(q.pending)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	submittedTotal.Inc()
	pendingGauge.Set(float64(depth))
	q.events.Publish(Event{Name: EventEnqueued, RequestID: req.ID, Fields: map[string]any{"position": pos}})
	q.log.Debug().Str("request_id", req.ID).Int("position", pos).Msg("request enqueued")
	return pos
}

// claim marks the queue busy and pops the oldest request. It returns false
// when there is nothing to run. ahead is the number of requests still pending.
func (q *Queue) claim() (it *item, ahead int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.busy || len(q.pending) == 0 {
		return nil, 0, false
	}
	it = q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	q.busy = true
	q.current = it.req.ID
	busyGauge.Set(1)
	pendingGauge.Set(float64(len(q.pending)))
	return it, len(q.pending), true
}

// release clears the busy flag and records the outcome.
func (q *Queue) release(o Outcome) {
	q.mu.Lock()
	q.busy = false
	q.current = ""
	q.totals[o]++
	q.mu.Unlock()
	busyGauge.Set(0)
}

// drain removes every pending request.
func (q *Queue) drain() []*item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	pendingGauge.Set(0)
	return out
}

// Len returns the number of pending (not executing) requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Busy reports whether a request is executing.
func (q *Queue) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.busy
}

// Ready reports whether the worker loop is running.
func (q *Queue) Ready() bool { return q.running.Load() }
