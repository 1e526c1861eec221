package controller

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-paybot/app/types"
)

// APIKeyHeader authenticates callers of the internal endpoints.
const APIKeyHeader = "X-Api-Key"

// APIKeyMiddleware rejects internal requests whose key does not match the
// configured one. An empty configured key disables the internal surface
// entirely rather than leaving it open.
func APIKeyMiddleware(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if apiKey == "" {
				return ctx.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: "internal api disabled"})
			}

			provided := ctx.Request().Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				return ctx.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: "invalid api key"})
			}
			return next(ctx)
		}
	}
}
