package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tadabbur-search-api/internal/concept"
	"github.com/tadabbur-search-api/internal/models"
	"github.com/tadabbur-search-api/internal/repository"
)

// Config holds the engine's tuning knobs.
type Config struct {
	Weights       Weights
	CorpusTimeout time.Duration
	RetryBackoff  time.Duration
	DefaultLimit  int
	MaxLimit      int
	MaxConcepts   int
	CacheSize     int // 0 disables the response cache
	CacheTTL      time.Duration
}

// DefaultConfig returns sane defaults.
func DefaultConfig() Config {
	return Config{
		Weights:       DefaultWeights(),
		CorpusTimeout: 3 * time.Second,
		RetryBackoff:  150 * time.Millisecond,
		DefaultLimit:  50,
		MaxLimit:      200,
		MaxConcepts:   10,
		CacheSize:     256,
		CacheTTL:      5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.CorpusTimeout <= 0 {
		c.CorpusTimeout = def.CorpusTimeout
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = def.RetryBackoff
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = def.DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = def.MaxLimit
	}
	if c.MaxConcepts <= 0 {
		c.MaxConcepts = def.MaxConcepts
	}
	if c.Weights == (Weights{}) {
		c.Weights = def.Weights
	}
	return c
}

// Request is one multi-concept search call. A zero Connector means
// auto-detect from the query text.
type Request struct {
	Query     string
	Limit     int
	Offset    int
	SuraNo    int
	Connector models.Connector
}

// Engine wires parser, expander, matcher, and composer into the
// multi-concept search pipeline. It is stateless per request beyond the
// immutable dictionary, so concurrent use needs no locking.
type Engine struct {
	dict     *concept.Dictionary
	parser   *concept.Parser
	expander *concept.Expander
	matcher  *Matcher
	cache    *responseCache
	cfg      Config
	logger   *zap.Logger
}

// NewEngine creates a search engine over the given dictionary and corpus.
func NewEngine(dict *concept.Dictionary, repo repository.VerseRepository, cfg Config, logger *zap.Logger) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		dict:     dict,
		parser:   concept.NewParser(dict),
		expander: concept.NewExpander(dict),
		matcher:  NewMatcher(repo, cfg.Weights, cfg.CorpusTimeout, cfg.RetryBackoff, logger),
		cache:    newResponseCache(cfg.CacheSize, cfg.CacheTTL),
		cfg:      cfg,
		logger:   logger,
	}
}

// Dictionary exposes the engine's concept registry.
func (e *Engine) Dictionary() *concept.Dictionary {
	return e.dict
}

// Search runs the full parse, expand, match, compose pipeline.
func (e *Engine) Search(ctx context.Context, req Request) (*models.MultiConceptSearchResponse, error) {
	start := time.Now()

	limit := req.Limit
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}

	key := cacheKey(req, limit)
	if cached, ok := e.cache.get(key); ok {
		return cached, nil
	}

	parsed := e.parser.Parse(req.Query, req.Connector)

	query := matchQuery{
		connector: parsed.ConnectorType,
		suraNo:    req.SuraNo,
	}
	for _, conceptKey := range parsed.Concepts {
		query.concepts = append(query.concepts, e.termsFor(conceptKey))
	}
	if len(parsed.Concepts) == 0 && len(parsed.Residual) > 0 {
		residual := residualTerms(parsed.Residual)
		query.residual = &residual
	}

	matches, err := e.matcher.Match(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("match verses: %w", err)
	}

	resp := Compose(parsed.ParsedQuery, matches, e.expansionTerms(parsed.Concepts), limit, req.Offset, time.Since(start))
	e.cache.put(key, resp)

	e.logger.Debug("multi-concept search",
		zap.String("query", req.Query),
		zap.Strings("concepts", parsed.Concepts),
		zap.Int("total_matches", resp.TotalMatches),
		zap.Float64("time_ms", resp.SearchTimeMs))
	return resp, nil
}

// Expand resolves a query's concepts and grows them into alias sets and
// typed relations for the concept expansion endpoint. The configured
// MaxConcepts is both the default and the ceiling for the request's cap.
func (e *Engine) Expand(query string, maxConcepts int, includeAliases bool) *models.ConceptExpansionResponse {
	if maxConcepts <= 0 || maxConcepts > e.cfg.MaxConcepts {
		maxConcepts = e.cfg.MaxConcepts
	}
	parsed := e.parser.Parse(query, "")
	results, cross := e.expander.Expand(parsed.Concepts, parsed.Language, concept.ExpandOptions{
		MaxConcepts:    maxConcepts,
		IncludeAliases: includeAliases,
	})
	return &models.ConceptExpansionResponse{
		OK:                     true,
		Query:                  query,
		MatchedConcepts:        results,
		Total:                  len(results),
		CrossLanguageExpansion: cross,
	}
}

// Suggest returns ranked concept suggestions for a partial query.
func (e *Engine) Suggest(query string, limit int) *models.ConceptSuggestionsResponse {
	suggestions := e.dict.Suggest(query, limit)
	return &models.ConceptSuggestionsResponse{
		OK:          true,
		Query:       query,
		Suggestions: suggestions,
		Count:       len(suggestions),
	}
}

// ConceptList returns the full categorized dictionary dump.
func (e *Engine) ConceptList() *models.ConceptListResponse {
	return &models.ConceptListResponse{
		OK:       true,
		Concepts: e.dict.Categories(),
		Total:    e.dict.Len(),
	}
}

// termsFor builds the matcher's term set for one concept key.
func (e *Engine) termsFor(key string) ConceptTerms {
	c := e.dict.Get(key)
	ct := ConceptTerms{Key: key, Roots: c.Roots}
	for _, alias := range c.Ar {
		ct.Arabic = append(ct.Arabic, Term{Display: alias, Folded: concept.NormalizeQuery(alias)})
	}
	for _, alias := range c.En {
		ct.English = append(ct.English, Term{Display: alias, Stems: stemsOf(alias)})
	}
	return ct
}

// residualTerms packs unmatched query tokens into a single pseudo-concept
// for raw lexical matching.
func residualTerms(tokens []string) ConceptTerms {
	ct := ConceptTerms{Key: strings.Join(tokens, " ")}
	for _, tok := range tokens {
		if concept.ClassifyLanguage(tok) == models.LanguageEnglish {
			ct.English = append(ct.English, Term{Display: tok, Stems: stemsOf(tok)})
		} else {
			ct.Arabic = append(ct.Arabic, Term{Display: tok, Folded: tok})
		}
	}
	return ct
}

// expansionTerms builds the per-concept expanded term lists reported in
// the response.
func (e *Engine) expansionTerms(keys []string) map[string][]string {
	expansions := make(map[string][]string, len(keys))
	for _, key := range keys {
		c := e.dict.Get(key)
		expansions[key] = append(append([]string{}, c.Ar...), c.En...)
	}
	return expansions
}

func stemsOf(alias string) []string {
	tokens := concept.Tokenize(concept.Fold(alias).Text)
	stems := make([]string, len(tokens))
	for i, tok := range tokens {
		stems[i] = concept.StemEnglish(tok)
	}
	return stems
}

func cacheKey(req Request, limit int) string {
	return fmt.Sprintf("%s|%d|%d|%d|%s", concept.NormalizeQuery(req.Query), limit, req.Offset, req.SuraNo, req.Connector)
}
