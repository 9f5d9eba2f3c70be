package concept

import (
	"strings"

	"github.com/tadabbur-search-api/internal/models"
)

// ExpandOptions bounds a concept expansion.
type ExpandOptions struct {
	// MaxConcepts caps the total number of concepts considered across all
	// expansions, direct and related combined.
	MaxConcepts    int
	IncludeAliases bool
}

// DefaultExpandOptions returns the documented endpoint defaults.
func DefaultExpandOptions() ExpandOptions {
	return ExpandOptions{MaxConcepts: 10, IncludeAliases: true}
}

// Expander grows matched concepts into alias sets and typed relations.
// Deterministic: same keys and dictionary snapshot, same output.
type Expander struct {
	dict *Dictionary
}

// NewExpander creates an expander over the given dictionary.
func NewExpander(dict *Dictionary) *Expander {
	return &Expander{dict: dict}
}

// Expand emits one ConceptExpansionResult per known input key, in input
// order. Each direct concept is guaranteed a slot within MaxConcepts;
// the remaining budget goes to related concepts first-come, strongest
// first. Unknown keys are skipped silently.
func (e *Expander) Expand(keys []string, lang models.Language, opts ExpandOptions) ([]models.ConceptExpansionResult, *models.CrossLanguageExpansion) {
	if opts.MaxConcepts <= 0 {
		opts.MaxConcepts = DefaultExpandOptions().MaxConcepts
	}

	var direct []*Concept
	for _, key := range keys {
		if c := e.dict.Get(key); c != nil {
			direct = append(direct, c)
		}
		if len(direct) == opts.MaxConcepts {
			break
		}
	}

	results := make([]models.ConceptExpansionResult, 0, len(direct))
	if len(direct) == 0 {
		return results, nil
	}

	budget := opts.MaxConcepts - len(direct)
	cross := &models.CrossLanguageExpansion{
		ArabicTerms:    []string{},
		EnglishTerms:   []string{},
		DetectedThemes: []string{},
	}
	seenTheme := make(map[string]bool)
	noteTheme := func(c *Concept) {
		if c.Category == "virtues" && !seenTheme[c.Key] {
			seenTheme[c.Key] = true
			cross.DetectedThemes = append(cross.DetectedThemes, c.Key)
		}
	}

	for _, c := range direct {
		rels := e.dict.RelationsOf(c.Key)
		if len(rels) > budget {
			rels = rels[:budget]
		}
		budget -= len(rels)

		related := make([]models.RelatedConcept, 0, len(rels))
		for _, rel := range rels {
			target := e.dict.Get(rel.Key)
			related = append(related, models.RelatedConcept{
				ID:           target.Key,
				LabelAr:      target.LabelAr(),
				LabelEn:      target.LabelEn(),
				RelationType: rel.Type,
				Strength:     rel.Strength,
			})
			noteTheme(target)
		}
		noteTheme(c)

		aliases := models.AliasSet{Ar: []string{}, En: []string{}}
		if opts.IncludeAliases {
			aliases = models.AliasSet{Ar: c.Ar, En: c.En}
		}
		cross.ArabicTerms = appendUnique(cross.ArabicTerms, c.Ar...)
		cross.EnglishTerms = appendUnique(cross.EnglishTerms, c.En...)

		results = append(results, models.ConceptExpansionResult{
			Concept:         c.Key,
			Category:        c.Category,
			Aliases:         aliases,
			RelatedConcepts: related,
			SuggestedQuery:  e.suggestedQuery(c, related, lang),
		})
	}

	return results, cross
}

// suggestedQuery pairs the concept's canonical label with its strongest
// relation, joined with the query language's "and" word.
func (e *Expander) suggestedQuery(c *Concept, related []models.RelatedConcept, lang models.Language) string {
	label := c.LabelEn()
	join := " and "
	if lang == models.LanguageArabic {
		label = c.LabelAr()
		join = " و "
	}
	if len(related) == 0 {
		return label
	}
	relLabel := related[0].LabelEn
	if lang == models.LanguageArabic {
		relLabel = related[0].LabelAr
	}
	return label + join + relLabel
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range dst {
			if strings.EqualFold(existing, item) {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, item)
		}
	}
	return dst
}
