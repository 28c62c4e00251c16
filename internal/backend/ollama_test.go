package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type capturedChat struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newOllamaForTest(t *testing.T, h http.HandlerFunc) (*OllamaAdapter, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	a, err := NewOllama(OllamaConfig{Name: "ollama", URL: ts.URL + "/api/chat", Model: "mistral:latest", ChunkSize: 8})
	if err != nil {
		t.Fatalf("NewOllama: %v", err)
	}
	return a, ts
}

func TestOllamaExecute_StreamsAndSkipsMalformed(t *testing.T) {
	var got capturedChat
	a, _ := newOllamaForTest(t, func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type=%q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/x-ndjson")
		lines := []string{
			`{"message":{"role":"assistant","content":"<think>hm</think>"}}`,
			`{garbage`,
			`{"message":{"role":"assistant","content":"Hi"}}`,
			`{"message":{"role":"assistant","content":" there"},"done":true}`,
		}
		for _, l := range lines {
			_, _ = w.Write([]byte(l + "\n"))
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	})
	res := a.Execute(context.Background(), "hello", ProviderConfig{Provider: "ollama", SystemPrompt: "be nice"})
	if res.Kind != KindSuccess {
		t.Fatalf("kind=%v msg=%q", res.Kind, res.Message)
	}
	if res.Text != "<think>hm</think>Hi there" {
		t.Fatalf("text=%q", res.Text)
	}
	if got.Model != "mistral:latest" || !got.Stream {
		t.Fatalf("request model=%q stream=%v", got.Model, got.Stream)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "be nice" || got.Messages[1].Content != "hello" {
		t.Fatalf("messages=%+v", got.Messages)
	}
}

func TestOllamaExecute_ConfiguredModelOverridesDefault(t *testing.T) {
	var got capturedChat
	a, _ := newOllamaForTest(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"message":{"content":"ok"}}` + "\n"))
	})
	res := a.Execute(context.Background(), "p", ProviderConfig{Model: "qwen3:0.6b"})
	if res.Kind != KindSuccess || got.Model != "qwen3:0.6b" {
		t.Fatalf("kind=%v model=%q", res.Kind, got.Model)
	}
}

func TestOllamaExecute_Non2xx(t *testing.T) {
	a, _ := newOllamaForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	res := a.Execute(context.Background(), "p", ProviderConfig{})
	if res.Kind != KindTransportError || !strings.Contains(res.Message, "404") {
		t.Fatalf("kind=%v msg=%q", res.Kind, res.Message)
	}
}

func TestOllamaExecute_InStreamError(t *testing.T) {
	a, _ := newOllamaForTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"model runner crashed"}` + "\n"))
	})
	res := a.Execute(context.Background(), "p", ProviderConfig{})
	if res.Kind != KindTransportError || res.Message != "model runner crashed" {
		t.Fatalf("kind=%v msg=%q", res.Kind, res.Message)
	}
}

func TestOllamaExecute_ContextDeadline(t *testing.T) {
	a, _ := newOllamaForTest(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	res := a.Execute(ctx, "p", ProviderConfig{})
	if res.Kind != KindTransportError {
		t.Fatalf("kind=%v", res.Kind)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("execute did not honor ctx deadline")
	}
}

func TestOllamaModelsAndPing(t *testing.T) {
	a, _ := newOllamaForTest(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"models":[{"name":"mistral:latest","model":"mistral:latest"},{"name":"qwen3:0.6b","model":"qwen3:0.6b"}]}`))
		case "/":
			_, _ = w.Write([]byte("Ollama is running"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	models, err := a.Models(context.Background())
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if len(models) != 2 || models[0] != "mistral:latest" {
		t.Fatalf("models=%v", models)
	}
	if err := a.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNewOllama_Validation(t *testing.T) {
	if _, err := NewOllama(OllamaConfig{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
	if _, err := NewOllama(OllamaConfig{URL: "not a url"}); err == nil {
		t.Fatalf("expected error for invalid url")
	}
}
