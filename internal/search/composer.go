package search

import (
	"sort"
	"time"

	"github.com/tadabbur-search-api/internal/models"
)

// Compose orders matches, applies pagination, and assembles the response.
// Sort is relevance descending with (sura_no, aya_no) ascending tie-breaks
// so equal-score results are deterministic. The concept distribution is
// computed over the full match set, before pagination, so it stays a
// meaningful aggregate regardless of the requested page.
func Compose(parsed models.ParsedQuery, matches []models.VerseMatch, expansions map[string][]string, limit, offset int, elapsed time.Duration) *models.MultiConceptSearchResponse {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].RelevanceScore != matches[j].RelevanceScore {
			return matches[i].RelevanceScore > matches[j].RelevanceScore
		}
		if matches[i].SuraNo != matches[j].SuraNo {
			return matches[i].SuraNo < matches[j].SuraNo
		}
		return matches[i].AyaNo < matches[j].AyaNo
	})

	distribution := make(map[string]int)
	for _, m := range matches {
		for _, cm := range m.MatchedConcepts {
			distribution[cm.Concept]++
		}
	}

	total := len(matches)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	page := make([]models.VerseMatch, end-start)
	copy(page, matches[start:end])

	if expansions == nil {
		expansions = map[string][]string{}
	}

	return &models.MultiConceptSearchResponse{
		OK:                  true,
		ParsedQuery:         parsed,
		TotalMatches:        total,
		Matches:             page,
		ConceptDistribution: distribution,
		ConceptExpansions:   expansions,
		SearchTimeMs:        float64(elapsed.Microseconds()) / 1000.0,
	}
}
