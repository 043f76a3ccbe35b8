package middleware

import (
	"jobtracker/internal/common"
	"jobtracker/internal/observability/metrics"
	"jobtracker/internal/tenancy"

	"github.com/labstack/echo/v4"
)

// TenantMiddleware resolves the request's tenant once and attaches a fresh
// tenant context. It must run after JWTMiddleware so the tenant claim is visible.
func TenantMiddleware(resolver *tenancy.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			tc := tenancy.New()

			res := resolver.Resolve(ctx, tc, tenancy.Hints{
				Header:   c.Request().Header.Get(tenancy.HeaderTenantID),
				Identity: common.GetIdentityFromContext(ctx),
			})
			metrics.ObserveTenantResolution(res.State.String(), string(res.Source))

			c.SetRequest(c.Request().WithContext(tenancy.WithTenantContext(ctx, tc)))
			return next(c)
		}
	}
}
