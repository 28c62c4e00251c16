package httpapi

import (
	"context"
	"sync/atomic"
)

// serverBaseCtx is a process-level context that is canceled on shutdown so
// streaming handlers stop waiting for outcomes.
var serverBaseCtx atomic.Pointer[context.Context]

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx.Store(&ctx)
}

func baseContext() context.Context {
	if p := serverBaseCtx.Load(); p != nil {
		return *p
	}
	return context.Background()
}

// joinContexts returns a context derived from a that is also canceled when b
// is done. The returned cancel func must be called when the handler ends.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
