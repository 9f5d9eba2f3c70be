package concept

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tadabbur-search-api/internal/models"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "latin lowercased", input: "Solomon", want: "solomon"},
		{name: "arabic diacritics stripped", input: "صَبْر", want: "صبر"},
		{name: "alef variants collapsed", input: "أيوب إبراهيم آدم", want: "ايوب ابراهيم ادم"},
		{name: "ta marbuta collapsed", input: "رحمة", want: "رحمه"},
		{name: "alef maqsura collapsed", input: "موسى", want: "موسي"},
		{name: "plain text unchanged", input: "الصبر", want: "الصبر"},
		{name: "empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.input).Text)
		})
	}
}

func TestFoldFind(t *testing.T) {
	t.Run("span in undecorated text", func(t *testing.T) {
		text := "واستعينوا بالصبر والصلاة"
		spans := Fold(text).Find("صبر")
		require.Len(t, spans, 1)

		runes := []rune(text)
		assert.Equal(t, "صبر", string(runes[spans[0][0]:spans[0][1]]))
	})

	t.Run("span covers trailing diacritics", func(t *testing.T) {
		text := "الصَّبْرِ"
		spans := Fold(text).Find("صبر")
		require.Len(t, spans, 1)

		runes := []rune(text)
		got := string(runes[spans[0][0]:spans[0][1]])
		// The matched slice has to carry the base letters; the attached
		// diacritics ride along so the highlight doesn't split a grapheme.
		assert.Contains(t, got, "ص")
		assert.Contains(t, got, "ب")
		assert.Contains(t, got, "ر")
		assert.Equal(t, len(runes), spans[0][1])
	})

	t.Run("multiple occurrences", func(t *testing.T) {
		spans := Fold("صبر ثم صبر").Find("صبر")
		assert.Len(t, spans, 2)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Fold("الحمد لله").Find("صبر"))
	})

	t.Run("empty term", func(t *testing.T) {
		assert.Empty(t, Fold("صبر").Find(""))
	})
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "patience", NormalizeQuery("  Patience  "))
	assert.Equal(t, "ايوب", NormalizeQuery("أَيُّوب"))
	assert.Equal(t, "queen of sheba", NormalizeQuery("Queen   OF  Sheba"))
	assert.Equal(t, "", NormalizeQuery("   "))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"queen", "of", "sheba"}, Tokenize("queen of sheba"))
	assert.Equal(t, []string{"صبر", "وصلاه"}, Tokenize("صبر، وصلاه"))
	assert.Empty(t, Tokenize("---"))
}

func TestStemEnglish(t *testing.T) {
	assert.Equal(t, StemEnglish("running"), StemEnglish("runs"))
	assert.Equal(t, StemEnglish("patience"), StemEnglish("patience"))
	// Arabic passes through untouched
	assert.Equal(t, "صبر", StemEnglish("صبر"))
	assert.Equal(t, "", StemEnglish(""))
}

func TestClassifyLanguage(t *testing.T) {
	tests := []struct {
		input string
		want  models.Language
	}{
		{"solomon and sheba", models.LanguageEnglish},
		{"صبر وشكر", models.LanguageArabic},
		{"صب ab", models.LanguageMixed},
		{"123", models.LanguageMixed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyLanguage(tt.input), "input %q", tt.input)
	}
}
