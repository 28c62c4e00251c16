package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"promptq/internal/backend"
	"promptq/internal/chunk"
	"promptq/internal/common/fsutil"
	"promptq/internal/config"
	"promptq/internal/httpapi"
	"promptq/internal/queue"
	"promptq/internal/registry"
)

const shutdownGrace = 5 * time.Second

type serveFlags struct {
	addr         string
	provider     string
	model        string
	systemPrompt string
	deadline     time.Duration
	chunkLimit   int
	chunkPolicy  string
	timezone     string
	corsOrigins  string
	skipNoKey    bool
}

func newServeCmd(opts *Options) *cobra.Command {
	var sf serveFlags
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the queue and its HTTP API",
		Example: "  promptqd serve --config promptq.yaml\n  promptqd serve --provider deepseek --deadline 30s",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, cmd, sf)
			if err != nil {
				return err
			}
			lg, err := newLogger(opts.Stderr, cfg.LogLevel, cfg.LogPretty)
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Addr, err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, lg, ln, registry.Options{Logger: &lg, SkipMissingKeys: sf.skipNoKey})
		},
	}
	f := cmd.Flags()
	f.StringVar(&sf.addr, "addr", "", "HTTP listen address, e.g. :8080")
	f.StringVar(&sf.provider, "provider", "", "Initial provider")
	f.StringVar(&sf.model, "model", "", "Initial model (empty uses the provider default)")
	f.StringVar(&sf.systemPrompt, "system-prompt", "", "Initial system prompt")
	f.DurationVar(&sf.deadline, "deadline", 0, "Per-request backend deadline (default 20s)")
	f.IntVar(&sf.chunkLimit, "chunk-limit", 0, "Segment length limit in characters; negative disables splitting")
	f.StringVar(&sf.chunkPolicy, "chunk-policy", "", "Over-long line policy: split|keep|reject")
	f.StringVar(&sf.timezone, "timezone", "", "Zone for rate limit reset times, e.g. UTC")
	f.StringVar(&sf.corsOrigins, "cors-origins", "", "Comma separated allowed origins; enables CORS")
	f.BoolVar(&sf.skipNoKey, "skip-missing-keys", true, "Disable remote providers that have no API key instead of failing")
	return cmd
}

// loadConfig reads the config file (explicit or discovered), applies flag
// overrides, the environment, and defaults, then validates.
func loadConfig(opts *Options, cmd *cobra.Command, sf serveFlags) (config.Config, error) {
	var cfg config.Config
	path := opts.ConfigPath
	if path == "" {
		path = fsutil.FirstExisting(fsutil.ConfigCandidates()...)
	}
	if path != "" {
		c, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.Addr = sf.addr
	}
	if f.Changed("provider") {
		cfg.Provider = sf.provider
	}
	if f.Changed("model") {
		cfg.Model = sf.model
	}
	if f.Changed("system-prompt") {
		cfg.SystemPrompt = sf.systemPrompt
	}
	if f.Changed("deadline") {
		cfg.DeadlineSeconds = max(1, int(sf.deadline.Round(time.Second)/time.Second))
	}
	if f.Changed("chunk-limit") {
		cfg.ChunkLimit = sf.chunkLimit
	}
	if f.Changed("chunk-policy") {
		cfg.ChunkPolicy = sf.chunkPolicy
	}
	if f.Changed("timezone") {
		cfg.Timezone = sf.timezone
	}
	if f.Changed("cors-origins") {
		cfg.CORSEnabled = true
		cfg.CORSAllowedOrigins = splitCSV(sf.corsOrigins)
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.LogPretty {
		cfg.LogPretty = true
	}
	cfg.ApplyEnv(nil)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// newQueue wires the router and queue described by cfg.
func newQueue(cfg config.Config, lg zerolog.Logger, ropts registry.Options) (*queue.Queue, error) {
	router, err := registry.Build(cfg, ropts)
	if err != nil {
		return nil, err
	}
	policy, err := chunk.ParsePolicy(cfg.ChunkPolicy)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	ql := lg.With().Str("component", "queue").Logger()
	return queue.New(queue.Config{
		Router:       router,
		Settings:     backend.ProviderConfig{Provider: cfg.Provider, Model: cfg.Model, SystemPrompt: cfg.SystemPrompt},
		Deadline:     cfg.Deadline(),
		IdleInterval: cfg.IdleInterval(),
		ChunkLimit:   cfg.ChunkLimit,
		ChunkPolicy:  policy,
		Location:     loc,
		Logger:       &ql,
	})
}

// serve runs the queue worker and the HTTP API on ln until ctx is done.
func serve(ctx context.Context, cfg config.Config, lg zerolog.Logger, ln net.Listener, ropts registry.Options) error {
	q, err := newQueue(cfg, lg, ropts)
	if err != nil {
		_ = ln.Close()
		return err
	}

	httpapi.SetLogger(lg.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)
	httpapi.SetBaseContext(ctx)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	workerDone := q.Start(workerCtx)

	srv := &http.Server{
		Handler:           httpapi.NewMux(q),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", ln.Addr().String()).Strs("providers", q.Providers()).Str("provider", cfg.Provider).Msg("promptqd listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info().Msg("shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		lg.Warn().Err(err).Msg("graceful shutdown error")
	}
	stopWorker()
	<-workerDone
	return nil
}
