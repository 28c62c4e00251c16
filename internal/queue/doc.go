// Package queue serializes prompt requests onto LLM backends. Any number of
// producers may Submit; a single worker executes requests one at a time in
// submission order and reports each outcome through the caller's DeliverFunc.
// It is structured into small files by concern:
//
//   - queue.go: Queue type, Submit and the pending list.
//   - config.go: Config and package defaults; New applies defaults.
//   - worker.go: the worker loop and the execution of one request under a deadline.
//   - delivery.go: Request, Delivery and outcome notices.
//   - settings.go: the provider/model/system prompt used at dequeue time.
//   - status.go: Status snapshot and per-outcome totals.
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go: Prometheus collectors.
//
// Invariants: at most one request is executing at any instant; requests are
// never reordered, deduplicated or retried; no outcome of one request stops
// the worker.
//
// When a deadline expires the request context is cancelled, which aborts the
// in-flight HTTP call, and the worker moves on without waiting for the adapter
// to return.
package queue
