package concept

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"

	"github.com/tadabbur-search-api/internal/models"
)

const arabicTatweel = 'ـ'

// Folded is the diacritic-insensitive form of a text together with an
// offset map back into the original, so match spans computed on the folded
// text convert to rune offsets valid in the original string.
type Folded struct {
	Text string

	org    []int // org[i] = original rune offset of folded rune i
	orgLen int   // rune length of the original string
}

// Fold lowercases Latin letters, strips Arabic diacritics and tatweel, and
// collapses Arabic letter variants (alef forms, ta marbuta, alef maqsura,
// hamza carriers). Whitespace and punctuation are preserved so that offsets
// stay meaningful.
func Fold(s string) *Folded {
	var b strings.Builder
	b.Grow(len(s))
	org := make([]int, 0, utf8.RuneCountInString(s))

	idx := 0
	for _, r := range s {
		i := idx
		idx++
		if unicode.Is(unicode.Mn, r) || r == arabicTatweel {
			continue
		}
		b.WriteRune(foldRune(r))
		org = append(org, i)
	}

	return &Folded{Text: b.String(), org: org, orgLen: idx}
}

func foldRune(r rune) rune {
	switch r {
	case 'أ', 'إ', 'آ', 'ٱ':
		return 'ا'
	case 'ى':
		return 'ي'
	case 'ة':
		return 'ه'
	case 'ؤ':
		return 'و'
	case 'ئ':
		return 'ي'
	}
	return unicode.ToLower(r)
}

// Find returns the spans, in original rune offsets, of every occurrence of
// the already-folded term in the folded text.
func (f *Folded) Find(term string) []models.Span {
	if term == "" || f.Text == "" {
		return nil
	}

	var spans []models.Span
	termRunes := utf8.RuneCountInString(term)
	from := 0     // byte offset into f.Text
	runeBase := 0 // folded rune index at `from`
	for {
		i := strings.Index(f.Text[from:], term)
		if i < 0 {
			break
		}
		start := runeBase + utf8.RuneCountInString(f.Text[from:from+i])
		spans = append(spans, f.spanToOriginal(start, start+termRunes))
		from += i + len(term)
		runeBase = start + termRunes
	}
	return spans
}

// spanToOriginal maps a folded rune range to the corresponding range in the
// original string. The end offset extends past any diacritics attached to
// the last matched letter.
func (f *Folded) spanToOriginal(start, end int) models.Span {
	s := f.org[start]
	e := f.orgLen
	if end < len(f.org) {
		e = f.org[end]
	}
	return models.Span{s, e}
}

// NormalizeQuery produces the canonical lookup form of a raw query:
// NFC, folded, whitespace collapsed.
func NormalizeQuery(s string) string {
	folded := Fold(norm.NFC.String(s)).Text
	return strings.Join(strings.Fields(folded), " ")
}

// Tokenize splits an already-folded string into letter/digit runs.
func Tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// FoldStem folds s and stems every English token, producing the stored
// match form of a translation. Query-side term patterns are built from the
// same stems, so stored text and patterns cannot drift apart.
func FoldStem(s string) string {
	tokens := Tokenize(Fold(s).Text)
	for i, tok := range tokens {
		tokens[i] = StemEnglish(tok)
	}
	return strings.Join(tokens, " ")
}

// StemEnglish reduces an English token to its snowball stem. Arabic tokens
// pass through unchanged; root-level Arabic matching is the corpus's job.
func StemEnglish(token string) string {
	if token == "" || !isLatin(token) {
		return token
	}
	return english.Stem(token, false)
}

func isLatin(s string) bool {
	for _, r := range s {
		if !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}

// ClassifyLanguage reports the dominant script of a query: "ar" when more
// than half of the letter runes are Arabic, "en" when more than half are
// Latin, otherwise "mixed".
func ClassifyLanguage(s string) models.Language {
	var arabic, latin, total int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		switch {
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	if total == 0 {
		return models.LanguageMixed
	}
	switch {
	case arabic*2 > total:
		return models.LanguageArabic
	case latin*2 > total:
		return models.LanguageEnglish
	default:
		return models.LanguageMixed
	}
}
