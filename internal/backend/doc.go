// Package backend holds the per-provider adapters that talk to LLM services
// and the router that maps a provider name onto an adapter.
//
//   - adapter.go: Adapter capability interface, ProviderConfig, Result variant.
//   - router.go: name -> Adapter lookup; unknown names fail closed.
//   - errors.go: configuration error type and predicates.
//   - stream.go: incremental NDJSON decoder used by streaming adapters.
//   - ollama.go: local streaming adapter (Ollama /api/chat).
//   - openrouter.go, envelope.go: remote non-streaming adapter and its error
//     envelope / rate-limit parsing.
//
// Adapters never return Go errors from Execute. Every failure is folded into a
// Result so the queue worker can report it and move on.
package backend
