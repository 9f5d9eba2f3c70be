package models

// Connector is the logical join applied across a multi-concept query.
type Connector string

const (
	ConnectorAnd Connector = "and"
	ConnectorOr  Connector = "or"
)

// Language classifies a query string by its dominant script.
type Language string

const (
	LanguageArabic  Language = "ar"
	LanguageEnglish Language = "en"
	LanguageMixed   Language = "mixed"
)

// ParsedQuery is the structured form of a raw search query.
type ParsedQuery struct {
	Original       string    `json:"original"`
	Concepts       []string  `json:"concepts"`
	ConnectorType  Connector `json:"connector_type"`
	IsMultiConcept bool      `json:"is_multi_concept"`
	Language       Language  `json:"language"`
}

// Verse is a single verse row as stored in the corpus.
type Verse struct {
	VerseID       string   `json:"verse_id" db:"verse_id"`
	SuraNo        int      `json:"sura_no" db:"sura_no"`
	AyaNo         int      `json:"aya_no" db:"aya_no"`
	JuzNo         int      `json:"juz_no" db:"juz_no"`
	TextUthmani   string   `json:"text_uthmani" db:"text_uthmani"`
	TextImlaei    string   `json:"text_imlaei" db:"text_imlaei"`
	TranslationEn string   `json:"translation_en" db:"translation_en"`
	Roots         []string `json:"roots" db:"-"`
}

// ScoredVerse is a verse with a vector similarity score.
type ScoredVerse struct {
	Verse
	Score float64 `json:"score"`
}

// Span is a [start, end) character (rune) range into a verse text.
type Span [2]int

// ConceptMatch records which terms of one concept matched a verse and where.
type ConceptMatch struct {
	Concept      string   `json:"concept"`
	MatchedTerms []string `json:"matched_terms"`
	Positions    []Span   `json:"positions"`
}

// VerseMatch is a scored verse in a multi-concept search result.
type VerseMatch struct {
	VerseID         string         `json:"verse_id"`
	SuraNo          int            `json:"sura_no"`
	AyaNo           int            `json:"aya_no"`
	TextUthmani     string         `json:"text_uthmani"`
	TextImlaei      string         `json:"text_imlaei"`
	HighlightedText string         `json:"highlighted_text"`
	RelevanceScore  float64        `json:"relevance_score"`
	MatchedConcepts []ConceptMatch `json:"matched_concepts"`
}

// MultiConceptSearchResponse is the payload of GET /quran/search/multi-concept.
type MultiConceptSearchResponse struct {
	OK                  bool                `json:"ok"`
	ParsedQuery         ParsedQuery         `json:"parsed_query"`
	TotalMatches        int                 `json:"total_matches"`
	Matches             []VerseMatch        `json:"matches"`
	ConceptDistribution map[string]int      `json:"concept_distribution"`
	ConceptExpansions   map[string][]string `json:"concept_expansions"`
	SearchTimeMs        float64             `json:"search_time_ms"`
}

// RelatedConcept is one typed relation surfaced by concept expansion.
type RelatedConcept struct {
	ID           string  `json:"id"`
	LabelAr      string  `json:"label_ar"`
	LabelEn      string  `json:"label_en"`
	RelationType string  `json:"relation_type"`
	Strength     float64 `json:"strength"`
}

// AliasSet holds the alias lists of a concept in both languages.
type AliasSet struct {
	Ar []string `json:"ar"`
	En []string `json:"en"`
}

// ConceptExpansionResult is the expansion of a single matched concept.
type ConceptExpansionResult struct {
	Concept         string           `json:"concept"`
	Category        string           `json:"category"`
	Aliases         AliasSet         `json:"aliases"`
	RelatedConcepts []RelatedConcept `json:"related_concepts"`
	SuggestedQuery  string           `json:"suggested_query"`
}

// CrossLanguageExpansion carries the alias set of the query's opposite
// language plus any theme concepts discovered during expansion.
type CrossLanguageExpansion struct {
	ArabicTerms    []string `json:"arabic_terms"`
	EnglishTerms   []string `json:"english_terms"`
	DetectedThemes []string `json:"detected_themes"`
}

// ConceptExpansionResponse is the payload of GET /quran/search/concepts/expand.
type ConceptExpansionResponse struct {
	OK                     bool                     `json:"ok"`
	Query                  string                   `json:"query"`
	MatchedConcepts        []ConceptExpansionResult `json:"matched_concepts"`
	Total                  int                      `json:"total"`
	CrossLanguageExpansion *CrossLanguageExpansion  `json:"cross_language_expansion,omitempty"`
}

// ConceptSuggestion is one autocomplete candidate for a partial query.
type ConceptSuggestion struct {
	Key        string   `json:"key"`
	Ar         []string `json:"ar"`
	En         []string `json:"en"`
	Related    []string `json:"related"`
	MatchScore float64  `json:"match_score"`
}

// ConceptSuggestionsResponse is the payload of GET /quran/search/concept-suggestions.
type ConceptSuggestionsResponse struct {
	OK          bool                `json:"ok"`
	Query       string              `json:"query"`
	Suggestions []ConceptSuggestion `json:"suggestions"`
	Count       int                 `json:"count"`
}

// ConceptSummary is one dictionary entry in the categorized concept list.
type ConceptSummary struct {
	Key     string   `json:"key"`
	Ar      []string `json:"ar"`
	En      []string `json:"en"`
	Related []string `json:"related"`
}

// ConceptListResponse is the payload of GET /quran/search/concepts/list.
type ConceptListResponse struct {
	OK       bool                        `json:"ok"`
	Concepts map[string][]ConceptSummary `json:"concepts"`
	Total    int                         `json:"total"`
}

// IndexStatus reports the readiness of the semantic vector index.
type IndexStatus string

const (
	IndexStatusReady      IndexStatus = "ready"
	IndexStatusNotIndexed IndexStatus = "not_indexed"
)

// SemanticSearchResult is one verse returned by vector similarity search.
type SemanticSearchResult struct {
	VerseID         string   `json:"verse_id"`
	SuraNo          int      `json:"sura_no"`
	AyaNo           int      `json:"aya_no"`
	TextUthmani     string   `json:"text_uthmani"`
	TextImlaei      string   `json:"text_imlaei"`
	SimilarityScore float64  `json:"similarity_score"`
	MatchedThemes   []string `json:"matched_themes"`
}

// SemanticSearchResponse is the payload of GET /quran/search/semantic.
type SemanticSearchResponse struct {
	OK                     bool                    `json:"ok"`
	Query                  string                  `json:"query"`
	Results                []SemanticSearchResult  `json:"results"`
	Total                  int                     `json:"total"`
	IndexStatus            IndexStatus             `json:"index_status"`
	CrossLanguageExpansion *CrossLanguageExpansion `json:"cross_language_expansion,omitempty"`
	SearchTimeMs           float64                 `json:"search_time_ms"`
}
