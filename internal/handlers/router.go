package handlers

import (
	"jobtracker/internal/common"
	"jobtracker/internal/middleware"
	"jobtracker/internal/observability/metrics"
	"jobtracker/internal/services"
	"jobtracker/internal/tenancy"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Logger       *zap.Logger
	Operations   *services.Operations
	Tokens       middleware.TokenParser
	Resolver     *tenancy.Resolver
	Health       *HealthHandlers
	AllowOrigins []string
}

// NewRouter builds the echo instance with the middleware chain and every route.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(cfg.Logger)

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			c.SetRequest(c.Request().WithContext(common.WithRequestID(c.Request().Context(), id)))
		},
	}))
	e.Use(middleware.RequestLogger(cfg.Logger))
	e.Use(metrics.HTTPMetricsMiddleware())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, tenancy.HeaderTenantID,
		},
	}))

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(e)
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	vm := middleware.NewVersionMiddleware()
	e.GET("/versions", vm.Versions)
	v1 := vm.VersionRoute(e, "v1",
		middleware.JWTMiddleware(cfg.Tokens, cfg.Logger),
		middleware.TenantMiddleware(cfg.Resolver),
	)
	NewAuthHandlers(cfg.Operations).RegisterRoutes(v1)
	NewJobHandlers(cfg.Operations).RegisterRoutes(v1)

	return e
}
