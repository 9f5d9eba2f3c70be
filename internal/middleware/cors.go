package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tadabbur-search-api/internal/config"
)

// CORSMiddleware returns a configured CORS middleware. The search surface
// is read-only, so only GET is exposed cross-origin.
func CORSMiddleware() echo.MiddlewareFunc {
	cfg := config.GetConfig()

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	})
}
