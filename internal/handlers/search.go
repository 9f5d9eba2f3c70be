package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tadabbur-search-api/internal/models"
	"github.com/tadabbur-search-api/internal/repository"
	"github.com/tadabbur-search-api/internal/search"
	"github.com/tadabbur-search-api/internal/services"
)

// SearchHandler handles the concept and semantic search endpoints.
type SearchHandler struct {
	engine   *search.Engine
	semantic *services.SemanticSearchService
	logger   *zap.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(engine *search.Engine, semantic *services.SemanticSearchService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		engine:   engine,
		semantic: semantic,
		logger:   logger,
	}
}

// MultiConceptSearch handles GET /search/multi-concept.
func (h *SearchHandler) MultiConceptSearch(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("query"))
	if query == "" {
		return badRequest(c, "query", "query is required")
	}

	limit, verr := intParam(c, "limit", 0)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr.Envelope())
	}
	offset, verr := intParam(c, "offset", 0)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr.Envelope())
	}
	suraNo, verr := boundedIntParam(c, "sura_no", 0, 1, 114)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr.Envelope())
	}

	connector := models.Connector(c.QueryParam("connector"))
	switch connector {
	case "", models.ConnectorAnd, models.ConnectorOr:
	default:
		return badRequest(c, "connector", `connector must be "and" or "or"`)
	}

	resp, err := h.engine.Search(c.Request().Context(), search.Request{
		Query:     query,
		Limit:     limit,
		Offset:    offset,
		SuraNo:    suraNo,
		Connector: connector,
	})
	if err != nil {
		return h.searchError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ExpandConcepts handles GET /search/concepts/expand.
func (h *SearchHandler) ExpandConcepts(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("query"))
	if query == "" {
		return badRequest(c, "query", "query is required")
	}

	// Zero means "use the engine's configured expansion cap".
	maxConcepts, verr := intParam(c, "max_concepts", 0)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr.Envelope())
	}
	includeAliases, verr := boolParam(c, "include_aliases", true)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr.Envelope())
	}

	return c.JSON(http.StatusOK, h.engine.Expand(query, maxConcepts, includeAliases))
}

// ConceptSuggestions handles GET /search/concept-suggestions.
func (h *SearchHandler) ConceptSuggestions(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("query"))
	if query == "" {
		return badRequest(c, "query", "query is required")
	}

	limit, verr := intParam(c, "limit", 10)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr.Envelope())
	}

	return c.JSON(http.StatusOK, h.engine.Suggest(query, limit))
}

// ListConcepts handles GET /search/concepts/list. The dictionary is
// immutable within a deployment, so the dump is cacheable.
func (h *SearchHandler) ListConcepts(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return c.JSON(http.StatusOK, h.engine.ConceptList())
}

// SemanticSearch handles GET /search/semantic.
func (h *SearchHandler) SemanticSearch(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("query"))
	if query == "" {
		return badRequest(c, "query", "query is required")
	}

	limit, verr := intParam(c, "limit", 20)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr.Envelope())
	}
	minScore, verr := floatParam(c, "min_score", 0)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr.Envelope())
	}
	if minScore < 0 || minScore > 1 {
		return badRequest(c, "min_score", "min_score must be between 0 and 1")
	}
	suraNo, verr := boundedIntParam(c, "sura_no", 0, 1, 114)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr.Envelope())
	}
	juzNo, verr := boundedIntParam(c, "juz_no", 0, 1, 30)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr.Envelope())
	}
	includeCross, verr := boolParam(c, "include_cross_language", false)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr.Envelope())
	}

	resp, err := h.semantic.Search(c.Request().Context(), query, services.SemanticSearchOptions{
		Limit:                limit,
		MinScore:             minScore,
		SuraNo:               suraNo,
		JuzNo:                juzNo,
		IncludeCrossLanguage: includeCross,
	})
	if err != nil {
		return h.searchError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// searchError maps pipeline failures onto the ok:false envelope. The
// corpus-unavailable code is what lets the frontend show "service
// degraded" instead of "no matches".
func (h *SearchHandler) searchError(c echo.Context, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	h.logger.Error("search failed", zap.Error(err))
	code := models.CodeServiceUnavailable
	if errors.Is(err, repository.ErrCorpusUnavailable) {
		code = models.CodeCorpusUnavailable
	}
	return c.JSON(http.StatusServiceUnavailable, models.NewErrorResponse(code, "search backend unavailable, try again later"))
}

// RegisterRoutes registers search routes
func (h *SearchHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/search/multi-concept", h.MultiConceptSearch)
	g.GET("/search/concepts/expand", h.ExpandConcepts)
	g.GET("/search/concept-suggestions", h.ConceptSuggestions)
	g.GET("/search/concepts/list", h.ListConcepts)
	g.GET("/search/semantic", h.SemanticSearch)
}

func badRequest(c echo.Context, field, message string) error {
	verr := &models.ValidationError{Field: field, Message: message}
	return c.JSON(http.StatusBadRequest, verr.Envelope())
}

func intParam(c echo.Context, name string, def int) (int, *models.ValidationError) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.ValidationError{Field: name, Message: fmt.Sprintf("%s must be an integer", name)}
	}
	if v < 0 {
		return 0, &models.ValidationError{Field: name, Message: fmt.Sprintf("%s must not be negative", name)}
	}
	return v, nil
}

func boundedIntParam(c echo.Context, name string, def, min, max int) (int, *models.ValidationError) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, &models.ValidationError{Field: name, Message: fmt.Sprintf("%s must be an integer between %d and %d", name, min, max)}
	}
	return v, nil
}

func floatParam(c echo.Context, name string, def float64) (float64, *models.ValidationError) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	// ParseFloat accepts NaN and Inf spellings, which would slip through
	// range checks unnoticed.
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &models.ValidationError{Field: name, Message: fmt.Sprintf("%s must be a finite number", name)}
	}
	return v, nil
}

func boolParam(c echo.Context, name string, def bool) (bool, *models.ValidationError) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &models.ValidationError{Field: name, Message: fmt.Sprintf("%s must be a boolean", name)}
	}
	return v, nil
}
