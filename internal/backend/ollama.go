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

	"github.com/ollama/ollama/api"
)

// defaultStreamChunk is the read size used when copying a streaming body.
const defaultStreamChunk = 2000

// OllamaConfig configures a local streaming adapter.
type OllamaConfig struct {
	// Name is the provider name the adapter is registered under.
	Name string
	// URL is the full chat endpoint, e.g. http://localhost:11434/api/chat.
	URL string
	// Model is used when ProviderConfig.Model is empty.
	Model string
	// ConnectTimeout bounds TCP dial time. Zero uses a package default.
	ConnectTimeout time.Duration
	// ChunkSize is the body read size. Zero uses 2000 bytes.
	ChunkSize int
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// OllamaAdapter streams chat completions from an Ollama server.
type OllamaAdapter struct {
	name      string
	endpoint  string
	model     string
	chunkSize int
	http      *http.Client
	api       *api.Client
}

// NewOllama validates cfg and builds an adapter.
func NewOllama(cfg OllamaConfig) (*OllamaAdapter, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, errors.New("ollama: endpoint url is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ollama: invalid endpoint url %q", cfg.URL)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = newHTTPClient(cfg.ConnectTimeout)
	}
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = defaultStreamChunk
	}
	name := cfg.Name
	if name == "" {
		name = "ollama"
	}
	base := &url.URL{Scheme: u.Scheme, Host: u.Host}
	return &OllamaAdapter{
		name:      name,
		endpoint:  endpoint,
		model:     cfg.Model,
		chunkSize: chunk,
		http:      hc,
		api:       api.NewClient(base, hc),
	}, nil
}

func (o *OllamaAdapter) Name() string { return o.name }

// Execute posts a streaming chat request and accumulates the message content
// of every well-formed NDJSON line.
func (o *OllamaAdapter) Execute(ctx context.Context, prompt string, cfg ProviderConfig) Result {
	stream := true
	payload := &api.ChatRequest{
		Model: resolveModel(cfg.Model, o.model),
		Messages: []api.Message{
			{Role: "system", Content: cfg.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return TransportFailure(fmt.Sprintf("ollama: encode request: %v", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return TransportFailure(fmt.Sprintf("ollama: build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return TransportFailure(ctx.Err().Error())
		}
		return TransportFailure(fmt.Sprintf("ollama: %v", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TransportFailure(fmt.Sprintf("received status code %d", resp.StatusCode))
	}

	var dec StreamDecoder
	if _, err := io.CopyBuffer(&dec, resp.Body, make([]byte, o.chunkSize)); err != nil {
		if ctx.Err() != nil {
			return TransportFailure(ctx.Err().Error())
		}
		return TransportFailure(fmt.Sprintf("ollama: read stream: %v", err))
	}
	dec.Flush()
	if dec.Content() == "" && dec.Err() != "" {
		return TransportFailure(dec.Err())
	}
	return Success(dec.Content())
}

// Models lists the models available on the Ollama server.
func (o *OllamaAdapter) Models(ctx context.Context) ([]string, error) {
	resp, err := o.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ollama: list models: %w", err)
	}
	out := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		out = append(out, m.Name)
	}
	return out, nil
}

// Ping checks that the Ollama server answers.
func (o *OllamaAdapter) Ping(ctx context.Context) error {
	if err := o.api.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama: heartbeat: %w", err)
	}
	return nil
}
