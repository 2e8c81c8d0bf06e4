package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/peepalabs/peepa-server/internal/auth"
	"github.com/peepalabs/peepa-server/internal/websocket"
)

// InitRoutes initializes all API routes
func InitRoutes(
	e *echo.Echo,
	hub *websocket.Hub,
	enrollment *EnrollmentHandler,
	authn *auth.Authenticator,
	clientSecret string,
	logger *zap.Logger,
) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "peepa-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/clients/auth", func(c echo.Context) error {
		return clientAuth(c, authn, clientSecret, logger)
	})

	v1.POST("/voiceprints/:speaker", enrollment.Enroll)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, c, authn, logger)
	})
}

func clientAuth(c echo.Context, authn *auth.Authenticator, clientSecret string, logger *zap.Logger) error {
	var req ClientAuthRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind client auth request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.ClientID == "" || req.Secret == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Client id and secret are required",
		})
	}

	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(clientSecret)) != 1 {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Client secret does not match",
		})
	}

	token, expiresAt, err := authn.IssueClientToken(req.ClientID)
	if err != nil {
		logger.Error("Failed to issue client token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_error",
			Message: "Failed to issue token",
		})
	}

	return c.JSON(http.StatusOK, ClientAuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func websocketWithAuth(hub *websocket.Hub, c echo.Context, authn *auth.Authenticator, logger *zap.Logger) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "Session token is required",
		})
	}

	claims, err := authn.Validate(token)
	if err != nil {
		logger.Warn("Rejected websocket token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Session token is invalid or expired",
		})
	}

	return websocket.HandleWebSocket(hub, c, claims.ClientID, logger)
}
