// Package rctx defines the request-context surface the TLM threads through
// every call into its external collaborators: a Go context.Context for
// cancellation plus a namespaced logger for the error-reporting half of the
// contract. The request context itself is supplied by the caller (HTTP
// transport, CLI, test harness) -- out of scope for the TLM core.
package rctx

import (
	"context"
	"log/slog"
)

// Ctx bundles cancellation and logging for one TLM operation.
type Ctx struct {
	Context context.Context
	Logger  *slog.Logger
}

// New builds a Ctx from a context.Context and logger, defaulting to
// context.Background() and slog.Default() when either is nil.
func New(ctx context.Context, logger *slog.Logger) Ctx {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Ctx{Context: ctx, Logger: logger}
}

// With returns a copy of c with additional structured fields appended to
// its logger.
func (c Ctx) With(args ...any) Ctx {
	c.Logger = c.Logger.With(args...)
	return c
}
