package pipeline

import (
	"context"

	"jobtracker/internal/common"
	"jobtracker/internal/models"
	"jobtracker/internal/observability/metrics"
	"jobtracker/internal/result"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Logging records the start and elapsed time of an operation. Runs past the
// slow threshold are logged at warn level. The result is passed through untouched.
func Logging[Req, Res any](p *Pipeline, name string) Behavior[Req, Res] {
	return func(next HandlerFunc[Req, Res]) HandlerFunc[Req, Res] {
		return func(ctx context.Context, scope Scope, req Req) result.Result[Res] {
			ctx, span := p.tracer.Start(ctx, name)
			defer span.End()

			fields := []zap.Field{
				zap.String("operation", name),
				zap.Stringer("tenant_id", scope.Tenant),
			}
			if scope.Identity != nil {
				fields = append(fields, zap.Stringer("user_id", scope.Identity.UserID))
			}
			if rid := common.GetRequestIDFromContext(ctx); rid != "" {
				fields = append(fields, zap.String("request_id", rid))
			}
			logger := p.logger.With(fields...)
			logger.Info("handling operation")

			start := p.clock.Now()
			res := next(ctx, scope, req)
			elapsed := p.clock.Since(start)
			slow := elapsed > p.threshold

			outcome := res.Outcome()
			span.SetAttributes(
				attribute.String("operation.outcome", outcome),
				attribute.String("tenant.id", scope.Tenant.String()),
			)
			metrics.ObserveOperation(name, outcome, elapsed, slow)

			done := []zap.Field{zap.String("outcome", outcome), zap.Duration("elapsed", elapsed)}
			if f := res.Failure(); f != nil && f.Kind == result.KindInternal {
				span.RecordError(f)
				span.SetStatus(codes.Error, f.Message)
				logger.Error("operation failed", append(done, zap.Error(f.Cause))...)
			}

			if slow {
				logger.Warn("long running operation", append(done, zap.Duration("threshold", p.threshold))...)
			} else {
				logger.Info("operation completed", done...)
			}
			return res
		}
	}
}

// Validation runs the declarative rules and never calls next on a violation.
func Validation[Req, Res any](v *Validator) Behavior[Req, Res] {
	return func(next HandlerFunc[Req, Res]) HandlerFunc[Req, Res] {
		return func(ctx context.Context, scope Scope, req Req) result.Result[Res] {
			fieldErrors, err := v.Validate(req)
			if err != nil {
				return result.Internal[Res](err)
			}
			if len(fieldErrors) > 0 {
				return result.Invalid[Res](fieldErrors)
			}
			return next(ctx, scope, req)
		}
	}
}

// Authorization checks the caller's role when roles is non-empty. When a tenant
// is resolved the caller must also belong to it.
func Authorization[Req, Res any](roles []models.Role) Behavior[Req, Res] {
	return func(next HandlerFunc[Req, Res]) HandlerFunc[Req, Res] {
		if len(roles) == 0 {
			return next
		}
		return func(ctx context.Context, scope Scope, req Req) result.Result[Res] {
			if scope.Identity == nil {
				return result.Fail[Res](result.KindUnauthenticated, result.MsgUnauthenticated)
			}
			if !scope.Identity.HasRole(roles...) {
				return result.Fail[Res](result.KindForbidden, result.MsgForbidden)
			}
			if id, ok := scope.Tenant.TenantID(); ok && !scope.Identity.BelongsTo(id) {
				return result.Fail[Res](result.KindForbidden, result.MsgForbidden)
			}
			return next(ctx, scope, req)
		}
	}
}
