package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tadabbur-search-api/internal/concept"
	"github.com/tadabbur-search-api/internal/models"
	"github.com/tadabbur-search-api/internal/repository"
)

// QueryEmbedder turns a query string into an embedding vector.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float64, error)
}

// SemanticSearchService answers vector-similarity verse searches. The
// vector index may not exist yet; that is reported as index_status
// "not_indexed" with zero results, never as an error.
type SemanticSearchService struct {
	vectorRepo repository.VectorSearchRepository
	embedder   QueryEmbedder
	dict       *concept.Dictionary
	themes     []*concept.Concept
	parser     *concept.Parser
	expander   *concept.Expander
	logger     *zap.Logger
}

// NewSemanticSearchService creates a new semantic search service.
func NewSemanticSearchService(
	vectorRepo repository.VectorSearchRepository,
	embedder QueryEmbedder,
	dict *concept.Dictionary,
	logger *zap.Logger,
) *SemanticSearchService {
	var themes []*concept.Concept
	for _, summary := range dict.Categories()["virtues"] {
		themes = append(themes, dict.Get(summary.Key))
	}
	return &SemanticSearchService{
		vectorRepo: vectorRepo,
		embedder:   embedder,
		dict:       dict,
		themes:     themes,
		parser:     concept.NewParser(dict),
		expander:   concept.NewExpander(dict),
		logger:     logger,
	}
}

// SemanticSearchOptions filter and bound a semantic search.
type SemanticSearchOptions struct {
	Limit                int
	MinScore             float64
	SuraNo               int
	JuzNo                int
	IncludeCrossLanguage bool
}

// Search embeds the query, runs vector similarity search, and post-filters
// by score and location.
func (s *SemanticSearchService) Search(ctx context.Context, query string, opts SemanticSearchOptions) (*models.SemanticSearchResponse, error) {
	start := time.Now()

	resp := &models.SemanticSearchResponse{
		OK:          true,
		Query:       query,
		Results:     []models.SemanticSearchResult{},
		IndexStatus: models.IndexStatusReady,
	}
	if opts.IncludeCrossLanguage {
		resp.CrossLanguageExpansion = s.crossLanguage(query)
	}

	ready, err := s.vectorRepo.IndexReady(ctx)
	if err != nil {
		return nil, fmt.Errorf("check vector index: %w", err)
	}
	if !ready {
		resp.IndexStatus = models.IndexStatusNotIndexed
		resp.SearchTimeMs = elapsedMs(start)
		return resp, nil
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Overfetch when post-filters can discard neighbors.
	topK := opts.Limit
	if opts.SuraNo > 0 || opts.JuzNo > 0 || opts.MinScore > 0 {
		topK = opts.Limit * 5
	}

	scored, err := s.vectorRepo.SearchVersesByEmbedding(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	for _, v := range scored {
		if v.Score < opts.MinScore {
			continue
		}
		if opts.SuraNo > 0 && v.SuraNo != opts.SuraNo {
			continue
		}
		if opts.JuzNo > 0 && v.JuzNo != opts.JuzNo {
			continue
		}
		resp.Results = append(resp.Results, models.SemanticSearchResult{
			VerseID:         v.VerseID,
			SuraNo:          v.SuraNo,
			AyaNo:           v.AyaNo,
			TextUthmani:     v.TextUthmani,
			TextImlaei:      v.TextImlaei,
			SimilarityScore: v.Score,
			MatchedThemes:   s.matchedThemes(v.Roots),
		})
		if len(resp.Results) == opts.Limit {
			break
		}
	}

	resp.Total = len(resp.Results)
	resp.SearchTimeMs = elapsedMs(start)
	s.logger.Debug("semantic search",
		zap.String("query", query),
		zap.Int("total", resp.Total),
		zap.Float64("time_ms", resp.SearchTimeMs))
	return resp, nil
}

// matchedThemes reports the theme concepts whose roots overlap the verse's.
func (s *SemanticSearchService) matchedThemes(verseRoots []string) []string {
	rootSet := make(map[string]bool, len(verseRoots))
	for _, r := range verseRoots {
		rootSet[r] = true
	}

	themes := []string{}
	for _, c := range s.themes {
		for _, root := range c.Roots {
			if rootSet[root] {
				themes = append(themes, c.Key)
				break
			}
		}
	}
	return themes
}

func (s *SemanticSearchService) crossLanguage(query string) *models.CrossLanguageExpansion {
	parsed := s.parser.Parse(query, "")
	_, cross := s.expander.Expand(parsed.Concepts, parsed.Language, concept.DefaultExpandOptions())
	return cross
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
