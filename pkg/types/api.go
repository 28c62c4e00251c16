package types

// PromptRequest is the body of POST /prompt.
type PromptRequest struct {
	// Optional caller-chosen identifier echoed in every event. A UUID is assigned when empty.
	// example: msg-1234
	ID string `json:"id,omitempty" example:"msg-1234"`
	// Required prompt text.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
}

// Event types streamed by POST /prompt. The last event of a stream is always
// one of the outcome types.
const (
	EventQueued      = "queued"
	EventStarted     = "started"
	EventSuccess     = "success"
	EventTimeout     = "timeout"
	EventError       = "error"
	EventRateLimited = "rate_limited"
)

// PromptEvent is one NDJSON line of a POST /prompt response.
type PromptEvent struct {
	// Event type.
	// example: success
	Type string `json:"type" example:"success"`
	// Request identifier.
	// example: msg-1234
	ID string `json:"id" example:"msg-1234"`
	// Queue position at submission, counting the executing request (queued only).
	// example: 2
	Position int `json:"position,omitempty" example:"2"`
	// Requests still waiting when this one started (started only).
	// example: 0
	Ahead *int `json:"ahead,omitempty"`
	// Response or notice text (outcome events).
	Text string `json:"text,omitempty"`
	// Text split into deliverable segments (outcome events).
	Segments []string `json:"segments,omitempty"`
	// Failure detail (error only).
	Error string `json:"error,omitempty"`
	// Rate limit reset time in unix milliseconds (rate_limited only).
	// example: 1700000000000
	ResetAtUnixMs int64 `json:"reset_at_unix_ms,omitempty" example:"1700000000000"`
	// Provider and model that served the request (outcome events).
	// example: ollama
	Provider string `json:"provider,omitempty" example:"ollama"`
	Model    string `json:"model,omitempty"`
	// Time spent pending and executing, in milliseconds (outcome events).
	WaitedMs  int64 `json:"waited_ms,omitempty"`
	ElapsedMs int64 `json:"elapsed_ms,omitempty"`
}

// SettingsResponse is returned by GET and PUT /settings.
type SettingsResponse struct {
	// example: ollama
	Provider string `json:"provider" example:"ollama"`
	// Empty means the provider's default model.
	// example: llama3.2
	Model        string `json:"model" example:"llama3.2"`
	SystemPrompt string `json:"system_prompt"`
}

// SettingsUpdate is the body of PUT /settings. Nil fields are left unchanged.
type SettingsUpdate struct {
	// example: deepseek
	Provider     *string `json:"provider,omitempty" example:"deepseek"`
	Model        *string `json:"model,omitempty"`
	SystemPrompt *string `json:"system_prompt,omitempty"`
}

// ProvidersResponse is returned by GET /providers.
type ProvidersResponse struct {
	// Providers the settings may switch to.
	Providers []string `json:"providers"`
	// Currently selected provider.
	// example: ollama
	Current string `json:"current" example:"ollama"`
}

// ModelsResponse is returned by GET /models.
type ModelsResponse struct {
	// example: ollama
	Provider string   `json:"provider" example:"ollama"`
	Models   []string `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Whether the worker loop is running.
	Running bool `json:"running"`
	// Whether a request is executing.
	Busy bool `json:"busy"`
	// Identifier of the executing request.
	Current string `json:"current,omitempty"`
	// Requests waiting for the worker.
	// example: 3
	Pending int `json:"pending" example:"3"`
	// Active provider settings.
	Settings SettingsResponse `json:"settings"`
	// Per-backend-call deadline in milliseconds.
	// example: 20000
	DeadlineMs int64 `json:"deadline_ms" example:"20000"`
	// Completed requests by outcome.
	Totals map[string]uint64 `json:"totals"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
