package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseBytes caps how much of a non-streaming body is read.
const maxResponseBytes = 4 << 20

const defaultRateLimitHint = "Try again later or switch to the local provider"

// OpenRouterConfig configures a remote OpenAI-compatible adapter.
type OpenRouterConfig struct {
	Name string
	// URL is the full chat completions endpoint.
	URL    string
	Model  string
	APIKey string
	// ContentParts sends the system prompt and prompt as text parts of a
	// single user message, for models that reject a system role.
	ContentParts bool
	// RateLimitHint is appended to rate limit notices.
	RateLimitHint  string
	ConnectTimeout time.Duration
	HTTPClient     *http.Client
}

// OpenRouterAdapter issues blocking chat completion requests.
type OpenRouterAdapter struct {
	name         string
	endpoint     string
	model        string
	apiKey       string
	contentParts bool
	hint         string
	http         *http.Client
}

// NewOpenRouter validates cfg and builds an adapter.
func NewOpenRouter(cfg OpenRouterConfig) (*OpenRouterAdapter, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, errors.New("openrouter: endpoint url is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("openrouter: invalid endpoint url: %w", err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openrouter: api key is required for provider %q", cfg.Name)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("openrouter: model is required for provider %q", cfg.Name)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = newHTTPClient(cfg.ConnectTimeout)
	}
	hint := cfg.RateLimitHint
	if hint == "" {
		hint = defaultRateLimitHint
	}
	name := cfg.Name
	if name == "" {
		name = "openrouter"
	}
	return &OpenRouterAdapter{
		name:         name,
		endpoint:     endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		contentParts: cfg.ContentParts,
		hint:         hint,
		http:         hc,
	}, nil
}

func (o *OpenRouterAdapter) Name() string { return o.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

func (o *OpenRouterAdapter) buildRequest(prompt string, cfg ProviderConfig) chatRequest {
	req := chatRequest{Model: resolveModel(cfg.Model, o.model)}
	if o.contentParts {
		req.Messages = []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: cfg.SystemPrompt},
				{Type: "text", Text: prompt},
			},
		}}
		return req
	}
	req.Messages = []chatMessage{
		{Role: "system", Content: cfg.SystemPrompt},
		{Role: "user", Content: prompt},
	}
	return req
}

// Execute sends one completion request. Transport and decoding failures are
// returned as TransportFailure results, never as errors.
func (o *OpenRouterAdapter) Execute(ctx context.Context, prompt string, cfg ProviderConfig) Result {
	body, err := json.Marshal(o.buildRequest(prompt, cfg))
	if err != nil {
		return TransportFailure(fmt.Sprintf("%s: encode request: %v", o.name, err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return TransportFailure(fmt.Sprintf("%s: build request: %v", o.name, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return TransportFailure(ctx.Err().Error())
		}
		return TransportFailure(fmt.Sprintf("%s: %v", o.name, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return TransportFailure(fmt.Sprintf("%s: read response: %v", o.name, err))
	}
	var env completionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return TransportFailure(fmt.Sprintf("received status code %d", resp.StatusCode))
		}
		return TransportFailure(fmt.Sprintf("%s: decode response: %v", o.name, err))
	}
	if len(env.Choices) > 0 {
		return Success(env.Choices[0].Message.Content)
	}
	if reset, ok := env.Error.resetTime(); ok {
		return RateLimited(reset, o.hint)
	}
	return TransportFailure(env.Error.describe())
}
