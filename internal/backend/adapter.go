package backend

import (
	"context"
	"time"
)

// ProviderConfig is the operator-selected provider, model and system prompt.
// An empty Model means "use the adapter's default model".
type ProviderConfig struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
}

// Kind tags the variant held by a Result.
type Kind int

const (
	KindSuccess Kind = iota
	KindRateLimited
	KindTransportError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRateLimited:
		return "rate_limited"
	case KindTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Result is the uniform outcome of one backend call.
type Result struct {
	Kind Kind
	// Text is the raw model output (KindSuccess).
	Text string
	// ResetAt is when the provider's rate limit window resets (KindRateLimited).
	ResetAt time.Time
	// Hint is a human-readable suggestion attached to a rate limit.
	Hint string
	// Message describes a transport failure (KindTransportError).
	Message string
}

func Success(text string) Result { return Result{Kind: KindSuccess, Text: text} }

func RateLimited(resetAt time.Time, hint string) Result {
	return Result{Kind: KindRateLimited, ResetAt: resetAt, Hint: hint}
}

func TransportFailure(msg string) Result { return Result{Kind: KindTransportError, Message: msg} }

// Adapter executes a single prompt against one provider. Implementations must
// honor ctx cancellation on their network calls.
type Adapter interface {
	Name() string
	Execute(ctx context.Context, prompt string, cfg ProviderConfig) Result
}

// ModelLister is implemented by adapters that can enumerate backend models.
type ModelLister interface {
	Models(ctx context.Context) ([]string, error)
}

// Pinger is implemented by adapters that can cheaply check backend liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// resolveModel picks the configured model, falling back to the adapter default.
func resolveModel(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}
