package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tadabbur-search-api/internal/concept"
	"github.com/tadabbur-search-api/internal/models"
	"github.com/tadabbur-search-api/internal/repository/memory"
	"github.com/tadabbur-search-api/internal/search"
	"github.com/tadabbur-search-api/internal/services"
)

type notIndexedVectorRepo struct{}

func (notIndexedVectorRepo) SearchVersesByEmbedding(ctx context.Context, embedding []float64, topK int) ([]models.ScoredVerse, error) {
	return nil, errors.New("index not built")
}

func (notIndexedVectorRepo) IndexReady(ctx context.Context) (bool, error) {
	return false, nil
}

type noopEmbedder struct{}

func (noopEmbedder) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	return []float64{0.1}, nil
}

type downRepo struct{}

func (downRepo) FindCandidates(ctx context.Context, terms, roots []string, suraNo int) ([]models.Verse, error) {
	return nil, errors.New("connection refused")
}

func newTestHandler(t *testing.T, engine *search.Engine) *SearchHandler {
	t.Helper()
	semantic := services.NewSemanticSearchService(notIndexedVectorRepo{}, noopEmbedder{}, engine.Dictionary(), zap.NewNop())
	return NewSearchHandler(engine, semantic, zap.NewNop())
}

func newWorkingHandler(t *testing.T) *SearchHandler {
	t.Helper()
	dict, err := concept.LoadEmbedded()
	require.NoError(t, err)
	repo, err := memory.NewEmbeddedRepository()
	require.NoError(t, err)
	return newTestHandler(t, search.NewEngine(dict, repo, search.DefaultConfig(), zap.NewNop()))
}

func newDegradedHandler(t *testing.T) *SearchHandler {
	t.Helper()
	dict, err := concept.LoadEmbedded()
	require.NoError(t, err)
	cfg := search.DefaultConfig()
	cfg.RetryBackoff = 1 // keep the retry cycle fast
	return newTestHandler(t, search.NewEngine(dict, downRepo{}, cfg, zap.NewNop()))
}

func doGet(t *testing.T, handler echo.HandlerFunc, params url.Values) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+params.Encode(), nil)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestMultiConceptSearchOK(t *testing.T) {
	h := newWorkingHandler(t)

	rec, body := doGet(t, h.MultiConceptSearch, url.Values{"query": {"Solomon and Queen of Sheba"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(3), body["total_matches"])

	parsed, ok := body["parsed_query"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "and", parsed["connector_type"])
}

func TestMultiConceptSearchValidation(t *testing.T) {
	h := newWorkingHandler(t)

	tests := []struct {
		name   string
		params url.Values
		field  string
	}{
		{"missing query", url.Values{}, "query"},
		{"blank query", url.Values{"query": {"   "}}, "query"},
		{"bad connector", url.Values{"query": {"patience"}, "connector": {"xor"}}, "connector"},
		{"non-integer limit", url.Values{"query": {"patience"}, "limit": {"ten"}}, "limit"},
		{"negative limit", url.Values{"query": {"patience"}, "limit": {"-1"}}, "limit"},
		{"negative offset", url.Values{"query": {"patience"}, "offset": {"-5"}}, "offset"},
		{"sura out of range", url.Values{"query": {"patience"}, "sura_no": {"115"}}, "sura_no"},
		{"sura zero", url.Values{"query": {"patience"}, "sura_no": {"0"}}, "sura_no"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doGet(t, h.MultiConceptSearch, tt.params)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, "validation_error", body["code"])
			assert.Equal(t, tt.field, body["field"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestMultiConceptSearchCorpusDown(t *testing.T) {
	h := newDegradedHandler(t)

	rec, body := doGet(t, h.MultiConceptSearch, url.Values{"query": {"patience"}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "corpus_unavailable", body["code"])
	assert.NotEmpty(t, body["message"])

	// Validation fires before the corpus is touched.
	rec, body = doGet(t, h.MultiConceptSearch, url.Values{"query": {"patience"}, "limit": {"-1"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", body["code"])
}

func TestExpandConcepts(t *testing.T) {
	h := newWorkingHandler(t)

	t.Run("ok", func(t *testing.T) {
		rec, body := doGet(t, h.ExpandConcepts, url.Values{"query": {"Solomon"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, float64(1), body["total"])
	})

	t.Run("missing query", func(t *testing.T) {
		rec, body := doGet(t, h.ExpandConcepts, url.Values{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation_error", body["code"])
	})

	t.Run("bad include_aliases", func(t *testing.T) {
		rec, _ := doGet(t, h.ExpandConcepts, url.Values{"query": {"Solomon"}, "include_aliases": {"maybe"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestConceptSuggestions(t *testing.T) {
	h := newWorkingHandler(t)

	rec, body := doGet(t, h.ConceptSuggestions, url.Values{"query": {"sol"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])

	suggestions, ok := body["suggestions"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, suggestions)
	first, ok := suggestions[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sulayman", first["key"])
}

func TestListConcepts(t *testing.T) {
	h := newWorkingHandler(t)

	rec, body := doGet(t, h.ListConcepts, url.Values{})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Contains(t, body["concepts"], "prophets")
}

func TestSemanticSearchHandler(t *testing.T) {
	h := newWorkingHandler(t)

	t.Run("not indexed reports success", func(t *testing.T) {
		rec, body := doGet(t, h.SemanticSearch, url.Values{"query": {"patience"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, "not_indexed", body["index_status"])
		assert.Equal(t, float64(0), body["total"])
	})

	t.Run("min_score out of range", func(t *testing.T) {
		rec, body := doGet(t, h.SemanticSearch, url.Values{"query": {"patience"}, "min_score": {"1.5"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "min_score", body["field"])
	})

	t.Run("min_score rejects non-finite values", func(t *testing.T) {
		for _, raw := range []string{"NaN", "Inf", "-Inf"} {
			rec, body := doGet(t, h.SemanticSearch, url.Values{"query": {"patience"}, "min_score": {raw}})
			assert.Equal(t, http.StatusBadRequest, rec.Code, "min_score=%s", raw)
			assert.Equal(t, "min_score", body["field"], "min_score=%s", raw)
		}
	})

	t.Run("juz out of range", func(t *testing.T) {
		rec, body := doGet(t, h.SemanticSearch, url.Values{"query": {"patience"}, "juz_no": {"31"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "juz_no", body["field"])
	})
}

func TestRegisterRoutes(t *testing.T) {
	h := newWorkingHandler(t)
	e := echo.New()
	h.RegisterRoutes(e.Group("/quran"))

	paths := make(map[string]bool)
	for _, r := range e.Routes() {
		paths[r.Method+" "+r.Path] = true
	}
	assert.True(t, paths["GET /quran/search/multi-concept"])
	assert.True(t, paths["GET /quran/search/concepts/expand"])
	assert.True(t, paths["GET /quran/search/concept-suggestions"])
	assert.True(t, paths["GET /quran/search/concepts/list"])
	assert.True(t, paths["GET /quran/search/semantic"])
}
