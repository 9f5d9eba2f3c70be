package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tadabbur-search-api/internal/models"
	"github.com/tadabbur-search-api/internal/repository"
)

// stubRepo scripts FindCandidates responses call by call.
type stubRepo struct {
	calls  int
	errs   []error
	verses []models.Verse
}

func (s *stubRepo) FindCandidates(ctx context.Context, terms, roots []string, suraNo int) ([]models.Verse, error) {
	s.calls++
	if len(s.errs) >= s.calls {
		if err := s.errs[s.calls-1]; err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.verses, nil
}

func newTestMatcher(repo repository.VerseRepository) *Matcher {
	return NewMatcher(repo, DefaultWeights(), time.Second, time.Millisecond, zap.NewNop())
}

func patienceQuery() matchQuery {
	return matchQuery{
		concepts: []ConceptTerms{{
			Key:    "patience",
			Arabic: []Term{{Display: "صبر", Folded: "صبر"}},
			Roots:  []string{"صبر"},
		}},
		connector: models.ConnectorOr,
	}
}

func TestMatchRetry(t *testing.T) {
	t.Run("persistent failure surfaces corpus unavailable", func(t *testing.T) {
		repo := &stubRepo{errs: []error{errors.New("boom"), errors.New("boom")}}
		m := newTestMatcher(repo)

		_, err := m.Match(context.Background(), patienceQuery())
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrCorpusUnavailable)
		assert.Equal(t, 2, repo.calls)
	})

	t.Run("transient failure recovers on retry", func(t *testing.T) {
		repo := &stubRepo{
			errs: []error{errors.New("boom"), nil},
			verses: []models.Verse{{
				VerseID: "39:10", SuraNo: 39, AyaNo: 10,
				TextUthmani: "الصابرون", TextImlaei: "الصابرون",
				Roots: []string{"صبر"},
			}},
		}
		m := newTestMatcher(repo)

		matches, err := m.Match(context.Background(), patienceQuery())
		require.NoError(t, err)
		assert.Equal(t, 2, repo.calls)
		require.Len(t, matches, 1)
		assert.Equal(t, "39:10", matches[0].VerseID)
	})

	t.Run("caller cancellation is not retried", func(t *testing.T) {
		repo := &stubRepo{errs: []error{errors.New("boom"), errors.New("boom")}}
		m := newTestMatcher(repo)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := m.Match(ctx, patienceQuery())
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, repository.ErrCorpusUnavailable)
		assert.Equal(t, 1, repo.calls)
	})
}

func TestMatchConnector(t *testing.T) {
	verse := models.Verse{
		VerseID: "2:153", SuraNo: 2, AyaNo: 153,
		TextUthmani:   "يا أيها الذين آمنوا استعينوا بالصبر والصلاة",
		TextImlaei:    "يا أيها الذين آمنوا استعينوا بالصبر والصلاة",
		TranslationEn: "O you who believe, seek help through patience and prayer",
		Roots:         []string{"صبر", "صلو"},
	}
	repo := &stubRepo{verses: []models.Verse{verse}}
	m := newTestMatcher(repo)

	patience := ConceptTerms{
		Key:    "patience",
		Arabic: []Term{{Display: "صبر", Folded: "صبر"}},
		Roots:  []string{"صبر"},
	}
	missing := ConceptTerms{
		Key:    "gratitude",
		Arabic: []Term{{Display: "شكر", Folded: "شكر"}},
		Roots:  []string{"شكر"},
	}

	t.Run("and rejects partial matches", func(t *testing.T) {
		matches, err := m.Match(context.Background(), matchQuery{
			concepts:  []ConceptTerms{patience, missing},
			connector: models.ConnectorAnd,
		})
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("or accepts partial matches", func(t *testing.T) {
		matches, err := m.Match(context.Background(), matchQuery{
			concepts:  []ConceptTerms{patience, missing},
			connector: models.ConnectorOr,
		})
		require.NoError(t, err)
		require.Len(t, matches, 1)

		match := matches[0]
		require.Len(t, match.MatchedConcepts, 1)
		assert.Equal(t, "patience", match.MatchedConcepts[0].Concept)
		// exact 1.0*0.5 + root 1.0*0.3 + overlap 0.5*0.2
		assert.InDelta(t, 0.9, match.RelevanceScore, 1e-9)
	})

	t.Run("empty query matches nothing", func(t *testing.T) {
		matches, err := m.Match(context.Background(), matchQuery{connector: models.ConnectorOr})
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestScoreResidualOnly(t *testing.T) {
	verse := models.Verse{
		VerseID: "27:22", SuraNo: 27, AyaNo: 22,
		TextUthmani:   "فمكث غير بعيد",
		TextImlaei:    "فمكث غير بعيد",
		TranslationEn: "But the hoopoe stayed not long",
	}
	repo := &stubRepo{verses: []models.Verse{verse}}
	m := newTestMatcher(repo)

	residual := ConceptTerms{
		Key:     "hoopoe",
		English: []Term{{Display: "hoopoe", Stems: stemsOf("hoopoe")}},
	}
	matches, err := m.Match(context.Background(), matchQuery{
		residual:  &residual,
		connector: models.ConnectorOr,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].RelevanceScore, 1e-9)
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		spans []models.Span
		want  string
	}{
		{
			name: "no spans returns text unchanged",
			text: "بسم الله",
			want: "بسم الله",
		},
		{
			name:  "single span",
			text:  "استعينوا بالصبر",
			spans: []models.Span{{12, 15}},
			want:  "استعينوا بال<mark>صبر</mark>",
		},
		{
			name:  "overlapping spans merge",
			text:  "abcdef",
			spans: []models.Span{{0, 3}, {2, 5}},
			want:  "<mark>abcde</mark>f",
		},
		{
			name:  "adjacent spans merge",
			text:  "abcdef",
			spans: []models.Span{{0, 2}, {2, 4}},
			want:  "<mark>abcd</mark>ef",
		},
		{
			name:  "span clipped to text length",
			text:  "abc",
			spans: []models.Span{{1, 10}},
			want:  "a<mark>bc</mark>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, highlight(tt.text, tt.spans))
		})
	}
}

func TestMergeSpans(t *testing.T) {
	got := mergeSpans([]models.Span{{5, 8}, {0, 2}, {1, 4}, {10, 12}})
	assert.Equal(t, []models.Span{{0, 4}, {5, 8}, {10, 12}}, got)
}
