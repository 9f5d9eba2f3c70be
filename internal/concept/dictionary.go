package concept

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/tadabbur-search-api/internal/models"
)

//go:embed data/concepts.json
var embeddedData embed.FS

// Relation is a typed link from one concept to another.
type Relation struct {
	Key      string  `json:"key"`
	Type     string  `json:"type"`
	Strength float64 `json:"strength"`
}

// Concept is a canonical entity (person, theme, place) with multilingual
// aliases. The first alias per language is the canonical label.
type Concept struct {
	Key      string     `json:"key"`
	Category string     `json:"category"`
	Ar       []string   `json:"ar"`
	En       []string   `json:"en"`
	Roots    []string   `json:"roots"`
	Related  []Relation `json:"related"`
}

// LabelAr returns the canonical Arabic label.
func (c *Concept) LabelAr() string {
	if len(c.Ar) == 0 {
		return ""
	}
	return c.Ar[0]
}

// LabelEn returns the canonical English label.
func (c *Concept) LabelEn() string {
	if len(c.En) == 0 {
		return ""
	}
	return c.En[0]
}

// Dictionary is the immutable concept registry. It is loaded once at
// startup; lookups are read-only and safe for concurrent use.
type Dictionary struct {
	concepts []Concept
	byKey    map[string]*Concept
	byAlias  map[string]*Concept
}

type dictionaryFile struct {
	Concepts []Concept `json:"concepts"`
}

// LoadEmbedded builds the dictionary from the curated dataset compiled into
// the binary.
func LoadEmbedded() (*Dictionary, error) {
	data, err := embeddedData.ReadFile("data/concepts.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded dictionary: %w", err)
	}
	return load(data)
}

// LoadFile builds the dictionary from a JSON file on disk, overriding the
// embedded dataset.
func LoadFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary file: %w", err)
	}
	return load(data)
}

func load(data []byte) (*Dictionary, error) {
	var file dictionaryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}

	d := &Dictionary{
		concepts: file.Concepts,
		byKey:    make(map[string]*Concept, len(file.Concepts)),
		byAlias:  make(map[string]*Concept),
	}

	for i := range d.concepts {
		c := &d.concepts[i]
		if c.Key == "" {
			return nil, fmt.Errorf("concept %d: missing key", i)
		}
		if _, dup := d.byKey[c.Key]; dup {
			return nil, fmt.Errorf("duplicate concept key %q", c.Key)
		}
		d.byKey[c.Key] = c
		for _, alias := range append(append([]string{}, c.Ar...), c.En...) {
			folded := NormalizeQuery(alias)
			if folded == "" {
				continue
			}
			// First concept to claim an alias wins; curation keeps them unique.
			if _, taken := d.byAlias[folded]; !taken {
				d.byAlias[folded] = c
			}
		}
	}

	for _, c := range d.concepts {
		for _, rel := range c.Related {
			if _, ok := d.byKey[rel.Key]; !ok {
				return nil, fmt.Errorf("concept %q: unknown relation target %q", c.Key, rel.Key)
			}
			if rel.Strength < 0 || rel.Strength > 1 {
				return nil, fmt.Errorf("concept %q: relation %q strength %v out of range", c.Key, rel.Key, rel.Strength)
			}
		}
	}

	return d, nil
}

// Len returns the number of concepts in the dictionary.
func (d *Dictionary) Len() int {
	return len(d.concepts)
}

// Get returns the concept with the given key, or nil.
func (d *Dictionary) Get(key string) *Concept {
	return d.byKey[key]
}

// Lookup resolves a term against all alias lists, case- and
// diacritic-insensitively. An unknown term yields nil, not an error.
func (d *Dictionary) Lookup(term string) *Concept {
	folded := NormalizeQuery(term)
	if folded == "" {
		return nil
	}
	return d.byAlias[folded]
}

// RelationsOf returns the typed relations of a concept ordered by strength
// descending, key ascending on ties. Unknown keys yield an empty slice.
func (d *Dictionary) RelationsOf(key string) []Relation {
	c := d.byKey[key]
	if c == nil {
		return []Relation{}
	}
	rels := make([]Relation, len(c.Related))
	copy(rels, c.Related)
	sort.SliceStable(rels, func(i, j int) bool {
		if rels[i].Strength != rels[j].Strength {
			return rels[i].Strength > rels[j].Strength
		}
		return rels[i].Key < rels[j].Key
	})
	return rels
}

// Categories returns all concepts grouped by category for the concept list
// endpoint.
func (d *Dictionary) Categories() map[string][]models.ConceptSummary {
	out := make(map[string][]models.ConceptSummary)
	for _, c := range d.concepts {
		related := make([]string, len(c.Related))
		for i, rel := range c.Related {
			related[i] = rel.Key
		}
		out[c.Category] = append(out[c.Category], models.ConceptSummary{
			Key:     c.Key,
			Ar:      c.Ar,
			En:      c.En,
			Related: related,
		})
	}
	return out
}

// Suggest returns up to limit concepts whose aliases match the partial
// query, ranked by match quality. Exact and prefix matches always outrank
// fuzzy-only matches.
func (d *Dictionary) Suggest(query string, limit int) []models.ConceptSuggestion {
	folded := NormalizeQuery(query)
	if folded == "" || limit <= 0 {
		return []models.ConceptSuggestion{}
	}

	suggestions := make([]models.ConceptSuggestion, 0, limit)
	for _, c := range d.concepts {
		score := 0.0
		for _, alias := range append(append([]string{}, c.Ar...), c.En...) {
			if s := aliasMatchScore(folded, NormalizeQuery(alias)); s > score {
				score = s
			}
		}
		if score == 0 {
			continue
		}
		related := make([]string, len(c.Related))
		for i, rel := range c.Related {
			related[i] = rel.Key
		}
		suggestions = append(suggestions, models.ConceptSuggestion{
			Key:        c.Key,
			Ar:         c.Ar,
			En:         c.En,
			Related:    related,
			MatchScore: score,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].MatchScore != suggestions[j].MatchScore {
			return suggestions[i].MatchScore > suggestions[j].MatchScore
		}
		return suggestions[i].Key < suggestions[j].Key
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

func aliasMatchScore(query, alias string) float64 {
	if alias == "" {
		return 0
	}
	switch {
	case alias == query:
		return 1.0
	case strings.HasPrefix(alias, query):
		return 0.9
	case strings.Contains(alias, query):
		return 0.75
	}
	if rank := fuzzy.RankMatch(query, alias); rank >= 0 {
		return 0.6 / (1.0 + float64(rank)*0.25)
	}
	return 0
}
