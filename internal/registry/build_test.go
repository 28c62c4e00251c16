package registry

import (
	"strings"
	"testing"

	"promptq/internal/backend"
	"promptq/internal/config"
)

func TestBuildDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.APIKey = "sk-test"
	r, err := Build(cfg, Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := strings.Join(r.Names(), ","); got != "deepseek,gemma,ollama" {
		t.Fatalf("names = %s", got)
	}
	a, err := r.Resolve(backend.ProviderConfig{Provider: "ollama"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := a.(*backend.OllamaAdapter); !ok {
		t.Fatalf("ollama resolved to %T", a)
	}
	if a, _ := r.Resolve(backend.ProviderConfig{Provider: "gemma"}); a.Name() != "gemma" {
		t.Fatalf("gemma adapter name = %s", a.Name())
	}
}

func TestBuildMissingKey(t *testing.T) {
	cfg := config.Default()
	if _, err := Build(cfg, Options{}); err == nil {
		t.Fatalf("expected error for remote provider without key")
	}
	r, err := Build(cfg, Options{SkipMissingKeys: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if names := r.Names(); len(names) != 1 || names[0] != "ollama" {
		t.Fatalf("names = %v", names)
	}
}

func TestBuildErrors(t *testing.T) {
	cases := map[string]config.Config{
		"kind":      {Providers: []config.Provider{{Name: "x", Kind: "grpc", URL: "http://x"}}},
		"duplicate": {Providers: []config.Provider{{Name: "a", Kind: config.KindOllama, URL: "http://x"}, {Name: "a", Kind: config.KindOllama, URL: "http://y"}}},
		"bad url":   {Providers: []config.Provider{{Name: "a", Kind: config.KindOllama, URL: "::"}}},
		"empty":     {},
	}
	for name, cfg := range cases {
		if _, err := Build(cfg, Options{}); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
