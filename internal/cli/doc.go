// Package cli builds the promptqd command tree. It is structured into small
// files by concern:
//
//   - root.go      (Options, BuildRootCmd, persistent flags)
//   - serve.go     (serve: config, queue, HTTP server, graceful shutdown)
//   - client.go    (HTTP client for a running daemon)
//   - ask.go       (ask: submit a prompt and print its events)
//   - settings.go  (providers, models, settings)
//   - logenv.go    (logger construction, env helpers, splitCSV)
package cli
