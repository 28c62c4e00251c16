// Package registry turns the configured provider list into backend adapters.
package registry

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"promptq/internal/backend"
	"promptq/internal/config"
)

// Options tune adapter construction.
type Options struct {
	// HTTPClient is shared by every adapter when set (tests).
	HTTPClient *http.Client
	Logger     *zerolog.Logger
	// SkipMissingKeys drops remote providers without a credential instead of
	// failing the build.
	SkipMissingKeys bool
}

// Build registers one adapter per configured provider. cfg should have
// defaults applied.
func Build(cfg config.Config, opts Options) (*backend.Router, error) {
	lg := zerolog.Nop()
	if opts.Logger != nil {
		lg = *opts.Logger
	}
	r := backend.NewRouter()
	for i, p := range cfg.Providers {
		if r.Has(p.Name) {
			return nil, fmt.Errorf("providers[%d]: duplicate name %q", i, p.Name)
		}
		a, err := newAdapter(cfg, p, opts)
		if err != nil {
			if opts.SkipMissingKeys && p.Kind == config.KindOpenRouter && cfg.KeyFor(p) == "" {
				lg.Warn().Str("provider", p.Name).Msg("provider disabled: no api key")
				continue
			}
			return nil, fmt.Errorf("providers[%d] %s: %w", i, p.Name, err)
		}
		r.Register(p.Name, a)
		lg.Debug().Str("provider", p.Name).Str("kind", p.Kind).Str("model", p.Model).Msg("provider registered")
	}
	if len(r.Names()) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	return r, nil
}

func newAdapter(cfg config.Config, p config.Provider, opts Options) (backend.Adapter, error) {
	switch p.Kind {
	case config.KindOllama:
		return backend.NewOllama(backend.OllamaConfig{
			Name:           p.Name,
			URL:            p.URL,
			Model:          p.Model,
			ConnectTimeout: p.ConnectTimeout(),
			HTTPClient:     opts.HTTPClient,
		})
	case config.KindOpenRouter:
		return backend.NewOpenRouter(backend.OpenRouterConfig{
			Name:           p.Name,
			URL:            p.URL,
			Model:          p.Model,
			APIKey:         cfg.KeyFor(p),
			ContentParts:   p.ContentParts,
			RateLimitHint:  p.RateLimitHint,
			ConnectTimeout: p.ConnectTimeout(),
			HTTPClient:     opts.HTTPClient,
		})
	default:
		return nil, fmt.Errorf("unknown provider kind %q", p.Kind)
	}
}
