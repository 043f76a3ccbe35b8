// Package pipeline wraps every operation handler in a fixed chain of
// behaviors: logging, then validation, then authorization.
package pipeline

import (
	"context"
	"time"

	"jobtracker/internal/models"
	"jobtracker/internal/result"
	"jobtracker/internal/tenancy"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const DefaultSlowThreshold = 500 * time.Millisecond

// Scope is what a handler knows about the request besides its payload.
type Scope struct {
	Tenant   *tenancy.TenantContext
	Identity *models.Identity
}

// HandlerFunc is a single-purpose operation handler.
type HandlerFunc[Req, Res any] func(ctx context.Context, scope Scope, req Req) result.Result[Res]

// Behavior wraps a handler. A behavior may short-circuit by not calling next.
type Behavior[Req, Res any] func(next HandlerFunc[Req, Res]) HandlerFunc[Req, Res]

// Operation describes one handler and the roles allowed to run it. An empty
// Roles slice means no authentication is needed.
type Operation[Req, Res any] struct {
	Name    string
	Roles   []models.Role
	Handler HandlerFunc[Req, Res]
}

type Config struct {
	Logger        *zap.Logger
	Validator     *Validator
	SlowThreshold time.Duration
	Clock         clock.Clock
	Tracer        trace.Tracer
}

// Pipeline holds the shared collaborators of the behaviors. It is built once
// at startup and is safe for concurrent use.
type Pipeline struct {
	logger    *zap.Logger
	validator *Validator
	threshold time.Duration
	clock     clock.Clock
	tracer    trace.Tracer
}

func New(cfg Config) *Pipeline {
	p := &Pipeline{
		logger:    cfg.Logger,
		validator: cfg.Validator,
		threshold: cfg.SlowThreshold,
		clock:     cfg.Clock,
		tracer:    cfg.Tracer,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.validator == nil {
		p.validator = NewValidator()
	}
	if p.threshold <= 0 {
		p.threshold = DefaultSlowThreshold
	}
	if p.clock == nil {
		p.clock = clock.New()
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer("jobtracker/pipeline")
	}
	return p
}

func (p *Pipeline) Validator() *Validator { return p.validator }

// Build composes op's handler with the behaviors in their fixed order.
func Build[Req, Res any](p *Pipeline, op Operation[Req, Res]) HandlerFunc[Req, Res] {
	return Chain(op.Handler,
		Logging[Req, Res](p, op.Name),
		Validation[Req, Res](p.validator),
		Authorization[Req, Res](op.Roles),
	)
}

// Chain applies behaviors so that the first one listed is the outermost.
func Chain[Req, Res any](h HandlerFunc[Req, Res], behaviors ...Behavior[Req, Res]) HandlerFunc[Req, Res] {
	for i := len(behaviors) - 1; i >= 0; i-- {
		h = behaviors[i](h)
	}
	return h
}
