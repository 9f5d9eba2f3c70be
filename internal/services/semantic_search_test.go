package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tadabbur-search-api/internal/concept"
	"github.com/tadabbur-search-api/internal/models"
)

type stubVectorRepo struct {
	ready       bool
	readyErr    error
	scored      []models.ScoredVerse
	searchErr   error
	searchCalls int
	lastTopK    int
}

func (s *stubVectorRepo) SearchVersesByEmbedding(ctx context.Context, embedding []float64, topK int) ([]models.ScoredVerse, error) {
	s.searchCalls++
	s.lastTopK = topK
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.scored, nil
}

func (s *stubVectorRepo) IndexReady(ctx context.Context) (bool, error) {
	return s.ready, s.readyErr
}

type stubEmbedder struct {
	calls int
	err   error
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []float64{0.1, 0.2, 0.3}, nil
}

func scoredVerse(id string, sura, aya, juz int, score float64, roots ...string) models.ScoredVerse {
	return models.ScoredVerse{
		Verse: models.Verse{
			VerseID: id, SuraNo: sura, AyaNo: aya, JuzNo: juz,
			TextUthmani: "text", TextImlaei: "text", Roots: roots,
		},
		Score: score,
	}
}

func newTestService(t *testing.T, repo *stubVectorRepo, embedder *stubEmbedder) *SemanticSearchService {
	t.Helper()
	dict, err := concept.LoadEmbedded()
	require.NoError(t, err)
	return NewSemanticSearchService(repo, embedder, dict, zap.NewNop())
}

func TestSemanticSearchNotIndexed(t *testing.T) {
	repo := &stubVectorRepo{ready: false}
	embedder := &stubEmbedder{}
	svc := newTestService(t, repo, embedder)

	resp, err := svc.Search(context.Background(), "patience", SemanticSearchOptions{Limit: 10})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Equal(t, models.IndexStatusNotIndexed, resp.IndexStatus)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Total)
	// A missing index must not burn embedding quota.
	assert.Equal(t, 0, embedder.calls)
	assert.Equal(t, 0, repo.searchCalls)
}

func TestSemanticSearchReady(t *testing.T) {
	repo := &stubVectorRepo{
		ready: true,
		scored: []models.ScoredVerse{
			scoredVerse("2:45", 2, 45, 1, 0.92, "صبر", "صلو"),
			scoredVerse("39:10", 39, 10, 23, 0.85, "صبر"),
			scoredVerse("27:22", 27, 22, 19, 0.4, "سليمان", "سبا"),
		},
	}
	svc := newTestService(t, repo, &stubEmbedder{})

	resp, err := svc.Search(context.Background(), "patience in hardship", SemanticSearchOptions{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, models.IndexStatusReady, resp.IndexStatus)
	require.Equal(t, 3, resp.Total)
	assert.Equal(t, "2:45", resp.Results[0].VerseID)
	assert.InDelta(t, 0.92, resp.Results[0].SimilarityScore, 1e-9)
	assert.Equal(t, 10, repo.lastTopK)
}

func TestSemanticSearchFilters(t *testing.T) {
	repo := &stubVectorRepo{
		ready: true,
		scored: []models.ScoredVerse{
			scoredVerse("2:45", 2, 45, 1, 0.92),
			scoredVerse("2:153", 2, 153, 2, 0.88),
			scoredVerse("39:10", 39, 10, 23, 0.85),
			scoredVerse("3:146", 3, 146, 4, 0.3),
		},
	}
	svc := newTestService(t, repo, &stubEmbedder{})

	t.Run("sura filter overfetches", func(t *testing.T) {
		resp, err := svc.Search(context.Background(), "q", SemanticSearchOptions{Limit: 10, SuraNo: 2})
		require.NoError(t, err)
		require.Equal(t, 2, resp.Total)
		assert.Equal(t, "2:45", resp.Results[0].VerseID)
		assert.Equal(t, "2:153", resp.Results[1].VerseID)
		assert.Equal(t, 50, repo.lastTopK)
	})

	t.Run("juz filter", func(t *testing.T) {
		resp, err := svc.Search(context.Background(), "q", SemanticSearchOptions{Limit: 10, JuzNo: 23})
		require.NoError(t, err)
		require.Equal(t, 1, resp.Total)
		assert.Equal(t, "39:10", resp.Results[0].VerseID)
	})

	t.Run("min score drops weak neighbors", func(t *testing.T) {
		resp, err := svc.Search(context.Background(), "q", SemanticSearchOptions{Limit: 10, MinScore: 0.5})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Total)
	})

	t.Run("limit truncates", func(t *testing.T) {
		resp, err := svc.Search(context.Background(), "q", SemanticSearchOptions{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Total)
	})
}

func TestSemanticSearchMatchedThemes(t *testing.T) {
	repo := &stubVectorRepo{
		ready: true,
		scored: []models.ScoredVerse{
			scoredVerse("2:153", 2, 153, 2, 0.9, "صبر", "صلو"),
			scoredVerse("27:22", 27, 22, 19, 0.8, "سليمان", "سبا"),
		},
	}
	svc := newTestService(t, repo, &stubEmbedder{})

	resp, err := svc.Search(context.Background(), "q", SemanticSearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)

	assert.Contains(t, resp.Results[0].MatchedThemes, "patience")
	// Narrative roots match no virtue theme.
	assert.Empty(t, resp.Results[1].MatchedThemes)
	assert.NotNil(t, resp.Results[1].MatchedThemes)
}

func TestSemanticSearchCrossLanguage(t *testing.T) {
	repo := &stubVectorRepo{ready: true}
	svc := newTestService(t, repo, &stubEmbedder{})

	resp, err := svc.Search(context.Background(), "Solomon", SemanticSearchOptions{
		Limit:                10,
		IncludeCrossLanguage: true,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.CrossLanguageExpansion)
	assert.Contains(t, resp.CrossLanguageExpansion.ArabicTerms, "سليمان")
	assert.Contains(t, resp.CrossLanguageExpansion.EnglishTerms, "Solomon")
}

func TestSemanticSearchErrors(t *testing.T) {
	t.Run("index check failure", func(t *testing.T) {
		repo := &stubVectorRepo{readyErr: errors.New("index down")}
		svc := newTestService(t, repo, &stubEmbedder{})
		_, err := svc.Search(context.Background(), "q", SemanticSearchOptions{Limit: 10})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "check vector index")
	})

	t.Run("embedder failure", func(t *testing.T) {
		repo := &stubVectorRepo{ready: true}
		svc := newTestService(t, repo, &stubEmbedder{err: errors.New("quota exceeded")})
		_, err := svc.Search(context.Background(), "q", SemanticSearchOptions{Limit: 10})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embed query")
	})

	t.Run("vector search failure", func(t *testing.T) {
		repo := &stubVectorRepo{ready: true, searchErr: errors.New("timeout")}
		svc := newTestService(t, repo, &stubEmbedder{})
		_, err := svc.Search(context.Background(), "q", SemanticSearchOptions{Limit: 10})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vector search")
	})
}
