package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"jobtracker/internal/common"
	"jobtracker/internal/pipeline"
	"jobtracker/internal/result"
	"jobtracker/internal/tenancy"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind result.Kind) int {
	switch kind {
	case result.KindValidation, result.KindTenantRequired:
		return http.StatusBadRequest
	case result.KindNotFound:
		return http.StatusNotFound
	case result.KindForbidden:
		return http.StatusForbidden
	case result.KindUnauthenticated, result.KindInvalidCredentials:
		return http.StatusUnauthorized
	case result.KindDuplicate:
		return http.StatusConflict
	case result.KindTooManyAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// scopeFrom collects what the middleware chain attached to the request.
func scopeFrom(c echo.Context) pipeline.Scope {
	ctx := c.Request().Context()
	return pipeline.Scope{
		Tenant:   tenancy.FromContext(ctx),
		Identity: common.GetIdentityFromContext(ctx),
	}
}

// dispatch runs one pipeline operation and renders its result.
func dispatch[Req, Res any](c echo.Context, op pipeline.HandlerFunc[Req, Res], req Req, status int) error {
	res := op(c.Request().Context(), scopeFrom(c), req)
	if res.IsSuccess() {
		return c.JSON(status, res.Data())
	}

	f := res.Failure()
	message := f.Message
	if f.Kind == result.KindInternal {
		// The cause was already logged by the pipeline.
		message = result.MsgInternal
	}
	return c.JSON(StatusFor(f.Kind), common.NewErrorResponse(message, f.FieldErrors))
}

func badRequest(c echo.Context, field, message string) error {
	return c.JSON(http.StatusBadRequest, common.NewErrorResponse(result.MsgValidationFailed, map[string][]string{
		field: {message},
	}))
}

// ErrorHandler renders transport errors and recovered panics with the common
// error body. Anything that is not an echo.HTTPError is answered generically.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := result.MsgInternal

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else if he.Message != nil {
				message = fmt.Sprint(he.Message)
			}
			if he.Internal != nil {
				err = he.Internal
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Error("unhandled request error",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
			message = result.MsgInternal
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, common.NewErrorResponse(message, nil))
		}
		if writeErr != nil {
			logger.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}
