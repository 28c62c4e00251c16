package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"promptq/internal/backend"
	"promptq/internal/queue"
	"promptq/pkg/types"
)

// modelsTimeout bounds GET /models calls to the provider.
const modelsTimeout = 10 * time.Second

// Service defines the methods required by the HTTP API layer. *queue.Queue
// implements it.
type Service interface {
	Submit(req queue.Request, deliver queue.DeliverFunc) int
	Settings() backend.ProviderConfig
	UpdateSettings(u types.SettingsUpdate) (backend.ProviderConfig, error)
	Providers() []string
	Models(ctx context.Context) ([]string, error)
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if c := corsMiddleware(); c != nil {
		r.Use(c)
	}
	// Compression for JSON endpoints; NDJSON is not in the default type list.
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/prompt", promptHandler(svc))

	r.Get("/settings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, settingsResponse(svc.Settings()))
	})

	r.Put("/settings", func(w http.ResponseWriter, r *http.Request) {
		var u types.SettingsUpdate
		if !decodeJSON(w, r, &u) {
			return
		}
		s, err := svc.UpdateSettings(u)
		if err != nil {
			writeJSONError(w, statusFor(err), err.Error())
			return
		}
		l := reqLogger(r)
		l.Info().Str("provider", s.Provider).Str("model", s.Model).Msg("settings changed")
		writeJSON(w, settingsResponse(s))
	})

	r.Get("/providers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ProvidersResponse{Providers: svc.Providers(), Current: svc.Settings().Provider})
	})

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), modelsTimeout)
		defer cancel()
		provider := svc.Settings().Provider
		models, err := svc.Models(ctx)
		if err != nil {
			writeJSONError(w, statusFor(err), err.Error())
			return
		}
		if models == nil {
			models = []string{}
		}
		writeJSON(w, types.ModelsResponse{Provider: provider, Models: models})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("starting"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// decodeJSON enforces a JSON content type and the body size limit. It writes
// the error response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func settingsResponse(s backend.ProviderConfig) types.SettingsResponse {
	return types.SettingsResponse{Provider: s.Provider, Model: s.Model, SystemPrompt: s.SystemPrompt}
}

// promptHandler queues the prompt and streams its lifecycle as NDJSON. A client
// that disconnects abandons the stream; the request itself stays queued.
func promptHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.PromptRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}

		// At most one started and one outcome event are ever sent.
		events := make(chan types.PromptEvent, 2)
		send := func(ev types.PromptEvent) {
			select {
			case events <- ev:
			default:
			}
		}
		pos := svc.Submit(queue.Request{
			ID:      req.ID,
			Prompt:  req.Prompt,
			OnStart: func(ahead int) { send(types.PromptEvent{Type: types.EventStarted, ID: req.ID, Ahead: &ahead}) },
		}, func(d queue.Delivery) { send(outcomeEvent(d)) })

		w.Header().Set("Content-Type", "application/x-ndjson")
		var flush func()
		if f, ok := w.(http.Flusher); ok {
			flush = f.Flush
		}
		lvl := requestLogLevel(r)
		l := reqLogger(r)
		writer := io.Writer(w)
		if lvl >= LevelDebug {
			writer = io.MultiWriter(w, &loggingLineWriter{rid: req.ID})
		}
		enc := json.NewEncoder(writer)
		write := func(ev types.PromptEvent) {
			_ = enc.Encode(ev)
			if flush != nil {
				flush()
			}
		}
		start := time.Now()
		if lvl >= LevelInfo {
			l.Info().Str("id", req.ID).Int("position", pos).Msg("prompt queued")
		}
		write(types.PromptEvent{Type: types.EventQueued, ID: req.ID, Position: pos})

		ctx, cancel := joinContexts(r.Context(), baseContext())
		defer cancel()
		for {
			select {
			case ev := <-events:
				write(ev)
				if ev.Type == types.EventStarted {
					continue
				}
				promptOutcomes.WithLabelValues(ev.Type).Inc()
				if lvl >= LevelInfo {
					l.Info().Str("id", req.ID).Str("outcome", ev.Type).Dur("dur", time.Since(start)).Msg("prompt done")
				}
				return
			case <-ctx.Done():
				abandonedTotal.Inc()
				if lvl >= LevelError {
					l.Warn().Str("id", req.ID).Dur("dur", time.Since(start)).Msg("prompt stream abandoned")
				}
				return
			}
		}
	}
}

// outcomeEvent converts a queue delivery into the final stream event.
func outcomeEvent(d queue.Delivery) types.PromptEvent {
	ev := types.PromptEvent{
		Type:      string(d.Outcome),
		ID:        d.RequestID,
		Text:      d.Text,
		Segments:  d.Segments,
		Error:     d.Error,
		Provider:  d.Provider,
		Model:     d.Model,
		WaitedMs:  d.Waited.Milliseconds(),
		ElapsedMs: d.Elapsed.Milliseconds(),
	}
	if !d.ResetAt.IsZero() {
		ev.ResetAtUnixMs = d.ResetAt.UnixMilli()
	}
	return ev
}
