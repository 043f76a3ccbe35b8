package handlers

import (
	"net/http"

	"jobtracker/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	ops *services.Operations
}

func NewAuthHandlers(ops *services.Operations) *AuthHandlers {
	return &AuthHandlers{ops: ops}
}

// Register creates a user in the resolved tenant and signs it in.
func (h *AuthHandlers) Register(c echo.Context) error {
	var req services.RegisterCommand
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	return dispatch(c, h.ops.Register, req, http.StatusCreated)
}

// Login handles user login with email and password
func (h *AuthHandlers) Login(c echo.Context) error {
	var req services.LoginCommand
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	return dispatch(c, h.ops.Login, req, http.StatusOK)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req services.RefreshTokenCommand
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	return dispatch(c, h.ops.RefreshToken, req, http.StatusOK)
}

func (h *AuthHandlers) RegisterRoutes(g *echo.Group) {
	auth := g.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
}
