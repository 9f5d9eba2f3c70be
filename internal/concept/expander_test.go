package concept

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tadabbur-search-api/internal/models"
)

func TestExpand(t *testing.T) {
	expander := NewExpander(loadTestDictionary(t))

	t.Run("single concept full relations", func(t *testing.T) {
		results, cross := expander.Expand([]string{"sulayman"}, models.LanguageEnglish, DefaultExpandOptions())
		require.Len(t, results, 1)

		r := results[0]
		assert.Equal(t, "sulayman", r.Concept)
		assert.Equal(t, "prophets", r.Category)
		assert.Equal(t, []string{"سليمان", "النبي سليمان"}, r.Aliases.Ar)
		assert.Equal(t, []string{"Solomon", "Sulayman", "Prophet Solomon"}, r.Aliases.En)

		require.Len(t, r.RelatedConcepts, 4)
		assert.Equal(t, "queen_of_sheba", r.RelatedConcepts[0].ID)
		assert.InDelta(t, 0.9, r.RelatedConcepts[0].Strength, 1e-9)
		assert.Equal(t, "dawud", r.RelatedConcepts[1].ID)
		assert.Equal(t, "sheba", r.RelatedConcepts[2].ID)
		assert.Equal(t, "justice", r.RelatedConcepts[3].ID)

		assert.Equal(t, "Solomon and Queen of Sheba", r.SuggestedQuery)

		require.NotNil(t, cross)
		assert.Contains(t, cross.ArabicTerms, "سليمان")
		assert.Contains(t, cross.EnglishTerms, "Solomon")
	})

	t.Run("arabic suggested query", func(t *testing.T) {
		results, _ := expander.Expand([]string{"sulayman"}, models.LanguageArabic, DefaultExpandOptions())
		require.Len(t, results, 1)
		assert.Equal(t, "سليمان و ملكة سبأ", results[0].SuggestedQuery)
	})

	t.Run("budget limits related concepts", func(t *testing.T) {
		opts := ExpandOptions{MaxConcepts: 3, IncludeAliases: true}
		results, _ := expander.Expand([]string{"sulayman", "patience"}, models.LanguageEnglish, opts)
		require.Len(t, results, 2)

		// Two direct slots leave one for relations; sulayman claims it.
		assert.Len(t, results[0].RelatedConcepts, 1)
		assert.Equal(t, "queen_of_sheba", results[0].RelatedConcepts[0].ID)
		assert.Empty(t, results[1].RelatedConcepts)
	})

	t.Run("aliases excluded on request", func(t *testing.T) {
		opts := ExpandOptions{MaxConcepts: 10, IncludeAliases: false}
		results, _ := expander.Expand([]string{"patience"}, models.LanguageEnglish, opts)
		require.Len(t, results, 1)
		assert.Empty(t, results[0].Aliases.Ar)
		assert.Empty(t, results[0].Aliases.En)
	})

	t.Run("detected themes are virtues only", func(t *testing.T) {
		results, cross := expander.Expand([]string{"patience"}, models.LanguageEnglish, DefaultExpandOptions())
		require.Len(t, results, 1)
		require.NotNil(t, cross)
		assert.Contains(t, cross.DetectedThemes, "patience")
		for _, theme := range cross.DetectedThemes {
			c := loadTestDictionary(t).Get(theme)
			require.NotNil(t, c)
			assert.Equal(t, "virtues", c.Category)
		}
	})

	t.Run("unknown keys skipped", func(t *testing.T) {
		results, cross := expander.Expand([]string{"unknown", "patience"}, models.LanguageEnglish, DefaultExpandOptions())
		require.Len(t, results, 1)
		assert.Equal(t, "patience", results[0].Concept)
		require.NotNil(t, cross)
	})

	t.Run("all keys unknown", func(t *testing.T) {
		results, cross := expander.Expand([]string{"unknown"}, models.LanguageEnglish, DefaultExpandOptions())
		assert.Empty(t, results)
		assert.Nil(t, cross)
	})

	t.Run("zero options fall back to defaults", func(t *testing.T) {
		results, _ := expander.Expand([]string{"sulayman"}, models.LanguageEnglish, ExpandOptions{})
		require.Len(t, results, 1)
		assert.Len(t, results[0].RelatedConcepts, 4)
	})
}
