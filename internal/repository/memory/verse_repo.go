package memory

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/tadabbur-search-api/internal/concept"
	"github.com/tadabbur-search-api/internal/models"
	"github.com/tadabbur-search-api/internal/repository"
)

//go:embed data/verses.json
var embeddedData embed.FS

// VerseRepository is an in-memory corpus backend for development and tests.
// At construction it builds inverted posting lists: folded term to verse-id
// bitmap and root to verse-id bitmap. Reads are lock-free; the index is
// immutable after construction.
type VerseRepository struct {
	verses   []models.Verse
	termBits map[string]*roaring.Bitmap
	rootBits map[string]*roaring.Bitmap
}

var _ repository.VerseRepository = (*VerseRepository)(nil)

type corpusFile struct {
	Verses []models.Verse `json:"verses"`
}

// LoadEmbeddedVerses returns the dev corpus compiled into the binary.
func LoadEmbeddedVerses() ([]models.Verse, error) {
	data, err := embeddedData.ReadFile("data/verses.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded corpus: %w", err)
	}
	var file corpusFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse embedded corpus: %w", err)
	}
	return file.Verses, nil
}

// NewVerseRepository indexes the given verses.
func NewVerseRepository(verses []models.Verse) *VerseRepository {
	r := &VerseRepository{
		verses:   verses,
		termBits: make(map[string]*roaring.Bitmap),
		rootBits: make(map[string]*roaring.Bitmap),
	}

	for i, v := range verses {
		id := uint32(i)
		for _, tok := range concept.Tokenize(concept.Fold(v.TextUthmani).Text) {
			r.addTerm(tok, id)
		}
		for _, tok := range concept.Tokenize(concept.Fold(v.TextImlaei).Text) {
			r.addTerm(tok, id)
		}
		for _, tok := range concept.Tokenize(concept.Fold(v.TranslationEn).Text) {
			r.addTerm(concept.StemEnglish(tok), id)
		}
		for _, root := range v.Roots {
			bits := r.rootBits[root]
			if bits == nil {
				bits = roaring.New()
				r.rootBits[root] = bits
			}
			bits.Add(id)
		}
	}

	return r
}

// NewEmbeddedRepository indexes the embedded dev corpus.
func NewEmbeddedRepository() (*VerseRepository, error) {
	verses, err := LoadEmbeddedVerses()
	if err != nil {
		return nil, err
	}
	return NewVerseRepository(verses), nil
}

// addTerm indexes a token plus its Arabic clitic-stripped variants, so a
// bare alias like "صبر" still reaches a verse that only carries "بالصبر".
func (r *VerseRepository) addTerm(tok string, id uint32) {
	for _, variant := range arabicVariants(tok) {
		bits := r.termBits[variant]
		if bits == nil {
			bits = roaring.New()
			r.termBits[variant] = bits
		}
		bits.Add(id)
	}
}

// arabicVariants returns the token plus forms with common attached
// prefixes (conjunctions, prepositions, the definite article) stripped.
func arabicVariants(tok string) []string {
	variants := []string{tok}
	runes := []rune(tok)

	strip := func(prefix rune) {
		if len(runes) > 2 && runes[0] == prefix {
			runes = runes[1:]
			variants = append(variants, string(runes))
		}
	}

	strip('و')
	strip('ف')
	strip('ب')
	strip('ك')
	strip('ل')
	if len(runes) > 3 && runes[0] == 'ا' && runes[1] == 'ل' {
		variants = append(variants, string(runes[2:]))
	}
	return variants
}

// Verses returns the indexed corpus in canonical order.
func (r *VerseRepository) Verses() []models.Verse {
	return r.verses
}

// FindCandidates unions the posting lists of all terms and roots. A
// multi-word term intersects its word bitmaps. Results come back in
// canonical verse order.
func (r *VerseRepository) FindCandidates(ctx context.Context, terms []string, roots []string, suraNo int) ([]models.Verse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set := roaring.New()
	for _, term := range terms {
		words := strings.Fields(term)
		if len(words) == 0 {
			continue
		}
		var termSet *roaring.Bitmap
		for _, w := range words {
			bits := r.termBits[w]
			if bits == nil {
				termSet = nil
				break
			}
			if termSet == nil {
				termSet = bits.Clone()
			} else {
				termSet.And(bits)
			}
		}
		if termSet != nil {
			set.Or(termSet)
		}
	}
	for _, root := range roots {
		if bits := r.rootBits[root]; bits != nil {
			set.Or(bits)
		}
	}

	results := make([]models.Verse, 0, set.GetCardinality())
	it := set.Iterator()
	for it.HasNext() {
		v := r.verses[it.Next()]
		if suraNo > 0 && v.SuraNo != suraNo {
			continue
		}
		results = append(results, v)
	}
	return results, nil
}
