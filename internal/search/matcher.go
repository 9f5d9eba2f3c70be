package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tadabbur-search-api/internal/concept"
	"github.com/tadabbur-search-api/internal/models"
	"github.com/tadabbur-search-api/internal/repository"
)

// Weights are the relevance signal weights. They sum to 1 by convention
// but the combined score is clipped to [0,1] regardless.
type Weights struct {
	Exact   float64
	Root    float64
	Overlap float64
}

// DefaultWeights returns the tuned default signal weights.
func DefaultWeights() Weights {
	return Weights{Exact: 0.5, Root: 0.3, Overlap: 0.2}
}

// Term is one searchable alias form of a concept.
type Term struct {
	Display string   // original alias, for matched_terms
	Folded  string   // folded form, for Arabic substring matching
	Stems   []string // stemmed words, for English translation matching
}

// ConceptTerms is the expanded term set of one top-level query concept.
type ConceptTerms struct {
	Key     string
	Arabic  []Term
	English []Term
	Roots   []string
}

// Matcher scans the verse corpus for expanded terms and scores each verse.
// The corpus call is the only I/O boundary: it runs under a timeout and is
// retried once on failure before being surfaced as a collaborator error.
type Matcher struct {
	repo    repository.VerseRepository
	weights Weights
	timeout time.Duration
	backoff time.Duration
	logger  *zap.Logger
}

// NewMatcher creates a matcher over the given corpus accessor.
func NewMatcher(repo repository.VerseRepository, weights Weights, timeout, backoff time.Duration, logger *zap.Logger) *Matcher {
	return &Matcher{
		repo:    repo,
		weights: weights,
		timeout: timeout,
		backoff: backoff,
		logger:  logger,
	}
}

// matchQuery is the matcher's input: either parsed concepts, or a single
// residual pseudo-concept when nothing was recognized.
type matchQuery struct {
	concepts  []ConceptTerms
	residual  *ConceptTerms
	connector models.Connector
	suraNo    int
}

// Match retrieves candidate verses and scores every verse that passes the
// connector test. Results are unordered; the composer sorts them.
func (m *Matcher) Match(ctx context.Context, q matchQuery) ([]models.VerseMatch, error) {
	active := q.concepts
	if len(active) == 0 && q.residual != nil {
		active = []ConceptTerms{*q.residual}
	}
	if len(active) == 0 {
		return []models.VerseMatch{}, nil
	}

	var terms, roots []string
	for _, ct := range active {
		for _, t := range ct.Arabic {
			terms = append(terms, t.Folded)
		}
		for _, t := range ct.English {
			terms = append(terms, strings.Join(t.Stems, " "))
		}
		roots = append(roots, ct.Roots...)
	}

	candidates, err := m.fetchCandidates(ctx, terms, roots, q.suraNo)
	if err != nil {
		return nil, err
	}

	residualOnly := len(q.concepts) == 0
	matches := make([]models.VerseMatch, 0, len(candidates))
	for _, verse := range candidates {
		if match, ok := m.scoreVerse(verse, active, q.connector, residualOnly); ok {
			matches = append(matches, match)
		}
	}
	return matches, nil
}

// fetchCandidates calls the corpus accessor under the configured timeout,
// retrying once after a short backoff. Caller cancellation propagates and
// is never retried.
func (m *Matcher) fetchCandidates(ctx context.Context, terms, roots []string, suraNo int) ([]models.Verse, error) {
	verses, err := m.tryFetch(ctx, terms, roots, suraNo)
	if err == nil {
		return verses, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.logger.Warn("corpus fetch failed, retrying", zap.Error(err))
	select {
	case <-time.After(m.backoff):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	verses, err = m.tryFetch(ctx, terms, roots, suraNo)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrCorpusUnavailable, err)
	}
	return verses, nil
}

func (m *Matcher) tryFetch(ctx context.Context, terms, roots []string, suraNo int) ([]models.Verse, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.repo.FindCandidates(fetchCtx, terms, roots, suraNo)
}

// scoreVerse applies the connector test and, when it passes, computes the
// weighted relevance and the per-concept match records.
func (m *Matcher) scoreVerse(verse models.Verse, concepts []ConceptTerms, connector models.Connector, residualOnly bool) (models.VerseMatch, bool) {
	foldedUthmani := concept.Fold(verse.TextUthmani)
	foldedImlaei := concept.Fold(verse.TextImlaei).Text
	translationStems := stemSet(verse.TranslationEn)
	verseRoots := make(map[string]bool, len(verse.Roots))
	for _, r := range verse.Roots {
		verseRoots[r] = true
	}

	var (
		matchedConcepts []models.ConceptMatch
		allSpans        []models.Span
		exactSum        float64
		rootSum         float64
		matchedCount    int
		residualHits    int
		residualTotal   int
	)

	for _, ct := range concepts {
		cm := models.ConceptMatch{Concept: ct.Key, MatchedTerms: []string{}, Positions: []models.Span{}}
		exact := 0.0

		for _, t := range ct.Arabic {
			spans := foldedUthmani.Find(t.Folded)
			inImlaei := len(spans) == 0 && strings.Contains(foldedImlaei, t.Folded)
			if len(spans) == 0 && !inImlaei {
				continue
			}
			exact = 1.0
			cm.MatchedTerms = append(cm.MatchedTerms, t.Display)
			cm.Positions = append(cm.Positions, spans...)
			allSpans = append(allSpans, spans...)
		}
		for _, t := range ct.English {
			if containsAllStems(translationStems, t.Stems) {
				exact = 1.0
				cm.MatchedTerms = append(cm.MatchedTerms, t.Display)
			}
		}

		rootFrac := 0.0
		if len(ct.Roots) > 0 {
			overlap := 0
			for _, r := range ct.Roots {
				if verseRoots[r] {
					overlap++
					cm.MatchedTerms = appendMissing(cm.MatchedTerms, r)
				}
			}
			rootFrac = float64(overlap) / float64(len(ct.Roots))
		}

		residualTotal += len(ct.Arabic) + len(ct.English)
		residualHits += len(cm.MatchedTerms)

		if exact == 0 && rootFrac == 0 {
			continue
		}
		matchedCount++
		exactSum += exact
		rootSum += rootFrac
		matchedConcepts = append(matchedConcepts, cm)
	}

	switch connector {
	case models.ConnectorAnd:
		if matchedCount < len(concepts) {
			return models.VerseMatch{}, false
		}
	default:
		if matchedCount == 0 {
			return models.VerseMatch{}, false
		}
	}

	var relevance float64
	if residualOnly {
		// Raw lexical fallback: no concept was recognized, so score on
		// exact term coverage alone.
		if residualTotal > 0 {
			relevance = float64(residualHits) / float64(residualTotal)
		}
	} else {
		exactMean := exactSum / float64(matchedCount)
		rootMean := rootSum / float64(matchedCount)
		overlap := float64(matchedCount) / float64(len(concepts))
		relevance = m.weights.Exact*exactMean + m.weights.Root*rootMean + m.weights.Overlap*overlap
	}
	relevance = clip01(relevance)

	return models.VerseMatch{
		VerseID:         verse.VerseID,
		SuraNo:          verse.SuraNo,
		AyaNo:           verse.AyaNo,
		TextUthmani:     verse.TextUthmani,
		TextImlaei:      verse.TextImlaei,
		HighlightedText: highlight(verse.TextUthmani, allSpans),
		RelevanceScore:  relevance,
		MatchedConcepts: matchedConcepts,
	}, true
}

func stemSet(translation string) map[string]bool {
	tokens := concept.Tokenize(concept.Fold(translation).Text)
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[concept.StemEnglish(tok)] = true
	}
	return set
}

func containsAllStems(set map[string]bool, stems []string) bool {
	if len(stems) == 0 {
		return false
	}
	for _, s := range stems {
		if !set[s] {
			return false
		}
	}
	return true
}

func appendMissing(dst []string, s string) []string {
	for _, existing := range dst {
		if existing == s {
			return dst
		}
	}
	return append(dst, s)
}

func clip01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// highlight wraps every matched span of the verse text in <mark> tags.
// Overlapping spans are merged; rendering precedence between concepts is
// the frontend's decision, so merged spans lose no information beyond
// positions, which are reported separately.
func highlight(text string, spans []models.Span) string {
	if len(spans) == 0 {
		return text
	}
	merged := mergeSpans(spans)
	runes := []rune(text)

	var b strings.Builder
	last := 0
	for _, span := range merged {
		start, end := span[0], span[1]
		if start < last {
			start = last
		}
		if end > len(runes) {
			end = len(runes)
		}
		if start >= end {
			continue
		}
		b.WriteString(string(runes[last:start]))
		b.WriteString("<mark>")
		b.WriteString(string(runes[start:end]))
		b.WriteString("</mark>")
		last = end
	}
	b.WriteString(string(runes[last:]))
	return b.String()
}

func mergeSpans(spans []models.Span) []models.Span {
	sorted := make([]models.Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	merged := sorted[:0]
	for _, span := range sorted {
		if len(merged) > 0 && span[0] <= merged[len(merged)-1][1] {
			if span[1] > merged[len(merged)-1][1] {
				merged[len(merged)-1][1] = span[1]
			}
			continue
		}
		merged = append(merged, span)
	}
	return merged
}
