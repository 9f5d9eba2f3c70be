package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tadabbur-search-api/internal/concept"
	"github.com/tadabbur-search-api/pkg/schema/db"
)

// HealthHandler reports service liveness and the state of the verse corpus
// backends.
type HealthHandler struct {
	dict          *concept.Dictionary
	corpusBackend string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(dict *concept.Dictionary, corpusBackend string) *HealthHandler {
	return &HealthHandler{dict: dict, corpusBackend: corpusBackend}
}

// HealthResponse is the basic liveness payload.
type HealthResponse struct {
	Status        string `json:"status"`
	CorpusBackend string `json:"corpus_backend"`
	Concepts      int    `json:"concepts"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		CorpusBackend: h.corpusBackend,
		Concepts:      h.dict.Len(),
	})
}

// PostgresHealth handles GET /health/postgres. With the in-memory corpus
// backend Postgres is optional, so not-configured is reported explicitly
// rather than as a failure of the whole service.
func (h *HealthHandler) PostgresHealth(c echo.Context) error {
	if !db.PostgresEnabled() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_configured",
			"error":  "PostgreSQL is not configured",
		})
	}

	pgDB := db.GetPostgres()
	if pgDB == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"error":  "PostgreSQL connection not available",
		})
	}

	if err := pgDB.PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":   "connected",
		"database": "postgres",
	})
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.Health)
	g.GET("/health/postgres", h.PostgresHealth)
}
