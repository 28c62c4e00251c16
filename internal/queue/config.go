package queue

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"promptq/internal/backend"
	"promptq/internal/chunk"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultDeadline     = 20 * time.Second
	defaultIdleInterval = 100 * time.Millisecond
)

// Resolver maps provider settings onto an adapter. *backend.Router satisfies it.
type Resolver interface {
	Resolve(cfg backend.ProviderConfig) (backend.Adapter, error)
	Has(name string) bool
	Names() []string
}

// Config encapsulates all tunables for Queue construction.
type Config struct {
	Router Resolver
	// Settings are the initial provider settings. Provider must resolve.
	Settings backend.ProviderConfig
	// Deadline bounds one backend call.
	Deadline time.Duration
	// IdleInterval is the fallback poll period while the queue is empty.
	IdleInterval time.Duration
	// ChunkLimit is the per-segment character limit. Zero uses
	// chunk.DefaultLimit; a negative value disables splitting.
	ChunkLimit  int
	ChunkPolicy chunk.Policy
	// Location is used to render rate limit reset times. Nil means time.Local.
	Location *time.Location
	Logger   *zerolog.Logger
	Events   EventPublisher
}

// New constructs a Queue from cfg. The initial provider is validated here so
// a bad configuration fails at startup rather than on the first request.
func New(cfg Config) (*Queue, error) {
	if cfg.Router == nil {
		return nil, errors.New("queue: router is required")
	}
	settings := cfg.Settings
	settings.Provider = canonicalProvider(settings.Provider)
	if !cfg.Router.Has(settings.Provider) {
		return nil, backend.ErrUnknownProvider(cfg.Settings.Provider)
	}
	q := &Queue{
		router:      cfg.Router,
		deadline:    cfg.Deadline,
		idle:        cfg.IdleInterval,
		chunkLimit:  cfg.ChunkLimit,
		chunkPolicy: cfg.ChunkPolicy,
		loc:         cfg.Location,
		events:      cfg.Events,
		wake:        make(chan struct{}, 1),
		totals:      make(map[Outcome]uint64),
		startTime:   time.Now(),
	}
	if q.deadline <= 0 {
		q.deadline = defaultDeadline
	}
	if q.idle <= 0 {
		q.idle = defaultIdleInterval
	}
	switch {
	case q.chunkLimit == 0:
		q.chunkLimit = chunk.DefaultLimit
	case q.chunkLimit < 0:
		q.chunkLimit = 0
	}
	if q.loc == nil {
		q.loc = time.Local
	}
	if q.events == nil {
		q.events = noopPublisher{}
	}
	if cfg.Logger != nil {
		q.log = *cfg.Logger
	} else {
		q.log = zerolog.Nop()
	}
	q.settings.Store(&settings)
	return q, nil
}
