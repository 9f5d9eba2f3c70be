package concept

import (
	"strings"
	"unicode"

	"github.com/tadabbur-search-api/internal/models"
)

// ParseResult is a parsed query plus the normalized tokens that matched no
// concept. Residual tokens are kept so the matcher can still attempt raw
// lexical matching on a partially-recognized query.
type ParseResult struct {
	models.ParsedQuery
	Residual []string
}

// Parser turns free-text queries into concept references. It is a pure
// function of the dictionary snapshot: no I/O, no failure on any input.
type Parser struct {
	dict *Dictionary
}

// NewParser creates a parser over the given dictionary.
func NewParser(dict *Dictionary) *Parser {
	return &Parser{dict: dict}
}

// stopTokens are dropped from residual terms; they carry no lexical signal.
var stopTokens = map[string]bool{
	"the": true, "of": true, "in": true, "on": true, "a": true, "an": true,
	"is": true, "are": true, "to": true, "for": true, "with": true,
	"about": true, "what": true, "who": true, "story": true, "verse": true,
	"verses": true, "quran": true,
	"في": true, "من": true, "علي": true, "الي": true, "عن": true,
	"ما": true, "لا": true, "هل": true, "قصه": true, "ايه": true,
	"ايات": true, "سوره": true,
}

// Parse tokenizes a query into recognized concepts, a connector, and
// residual terms. An empty or unrecognized query yields an empty concept
// list, never an error. A non-empty override wins over detected connector
// tokens.
func (p *Parser) Parse(query string, override models.Connector) ParseResult {
	normalized := NormalizeQuery(query)

	segments, andSeen, orSeen := segment(normalized)

	var concepts []string
	var residual []string
	seenConcept := make(map[string]bool)
	seenResidual := make(map[string]bool)

	addConcept := func(key string) {
		if !seenConcept[key] {
			seenConcept[key] = true
			concepts = append(concepts, key)
		}
	}

	for _, seg := range segments {
		// Whole-segment lookup first, to catch multi-word aliases
		// like "Queen of Sheba" / "ملكة سبأ".
		if c := p.dict.Lookup(strings.Join(seg, " ")); c != nil {
			addConcept(c.Key)
			continue
		}
		for _, tok := range seg {
			if c := p.dict.Lookup(tok); c != nil {
				addConcept(c.Key)
				continue
			}
			if stopTokens[tok] || len([]rune(tok)) < 2 {
				continue
			}
			if !seenResidual[tok] {
				seenResidual[tok] = true
				residual = append(residual, tok)
			}
		}
	}

	connector := models.ConnectorOr
	if andSeen && !orSeen {
		connector = models.ConnectorAnd
	}
	if override == models.ConnectorAnd || override == models.ConnectorOr {
		connector = override
	}

	if concepts == nil {
		concepts = []string{}
	}

	return ParseResult{
		ParsedQuery: models.ParsedQuery{
			Original:       query,
			Concepts:       concepts,
			ConnectorType:  connector,
			IsMultiConcept: len(concepts) >= 2,
			Language:       ClassifyLanguage(normalized),
		},
		Residual: residual,
	}
}

// segment splits a normalized query on connector tokens and punctuation.
// The folded form of the Arabic "أو" is "او"; the conjunction "و" only
// counts when it stands alone as a token.
func segment(normalized string) (segments [][]string, andSeen, orSeen bool) {
	var b strings.Builder
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteString(" \x00 ")
		}
	}

	var cur []string
	flush := func() {
		if len(cur) > 0 {
			segments = append(segments, cur)
			cur = nil
		}
	}

	for _, tok := range strings.Fields(b.String()) {
		switch tok {
		case "and", "و":
			andSeen = true
			flush()
		case "or", "او":
			orSeen = true
			flush()
		case "\x00":
			flush()
		default:
			cur = append(cur, tok)
		}
	}
	flush()
	return segments, andSeen, orSeen
}
