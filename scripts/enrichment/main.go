package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

// Verse represents a verse with its context
type Verse struct {
	VerseID       string   `db:"verse_id" json:"verse_id"`
	SuraNo        int      `db:"sura_no" json:"sura_no"`
	AyaNo         int      `db:"aya_no" json:"aya_no"`
	TextUthmani   string   `db:"text_uthmani" json:"text_uthmani"`
	TranslationEn string   `db:"translation_en" json:"translation_en"`
	Concepts      []string `json:"concepts,omitempty"`
	SuraContext   string   `json:"sura_context,omitempty"`
}

// EnrichmentResult holds both enrichment approaches for a verse
type EnrichmentResult struct {
	Verse            Verse    `json:"verse"`
	ThematicTags     []string `json:"thematic_tags"`
	SyntheticQueries []string `json:"synthetic_queries"`
	AugmentedText    string   `json:"augmented_text"`
}

// SampleConfig defines the sampling strategy
type SampleConfig struct {
	// Well-known verses to always include
	MustInclude []string
	// Number of random verses per juz
	RandomPerJuz int
}

var defaultSampleConfig = SampleConfig{
	MustInclude: []string{
		// Prophets and narratives
		"2:30", "7:142", "12:4", "19:16", "21:83", "27:15", "27:22", "27:44",
		// Virtues
		"2:45", "2:153", "3:146", "14:7", "16:90", "39:10", "94:5",
		// Tawhid and theology
		"2:255", "112:1", "112:2", "112:3", "112:4", "24:35",
		// Law and practical life
		"2:183", "2:275", "4:58", "17:23", "49:12",
	},
	RandomPerJuz: 2,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	godotenv.Load()

	ctx := context.Background()

	// Connect to PostgreSQL
	db, err := sqlx.Connect("postgres", os.Getenv("POSTGRES_URI"))
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer db.Close()

	// Initialize Vertex AI Gemini client (uses ADC)
	projectID := os.Getenv("GCP_PROJECT_ID")
	location := os.Getenv("GEMINI_LOCATION")
	if projectID == "" {
		return fmt.Errorf("GCP_PROJECT_ID is required")
	}
	if location == "" {
		location = "global"
	}
	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return fmt.Errorf("create genai client: %w", err)
	}
	defer client.Close()

	// Get sample verses
	log.Println("Selecting sample verses...")
	verses, err := getSampleVerses(ctx, db, defaultSampleConfig)
	if err != nil {
		return fmt.Errorf("get sample verses: %w", err)
	}
	log.Printf("Selected %d verses for enrichment\n", len(verses))

	// Enrich each verse
	results := make([]EnrichmentResult, 0, len(verses))
	for i, verse := range verses {
		log.Printf("[%d/%d] Enriching %s...\n", i+1, len(verses), verse.VerseID)

		result, err := enrichVerse(ctx, client, verse)
		if err != nil {
			log.Printf("  Warning: failed to enrich %s: %v\n", verse.VerseID, err)
			continue
		}
		results = append(results, result)

		// Log a preview
		log.Printf("  Tags: %v\n", result.ThematicTags[:min(3, len(result.ThematicTags))])
		log.Printf("  Queries: %v\n", result.SyntheticQueries[:min(2, len(result.SyntheticQueries))])
	}

	// Write results to JSON file
	outputFile := "enrichment_results.json"
	if err := writeResults(results, outputFile); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	log.Printf("Results written to %s\n", outputFile)

	// Also write a human-readable summary
	summaryFile := "enrichment_summary.md"
	if err := writeSummary(results, summaryFile); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	log.Printf("Summary written to %s\n", summaryFile)

	return nil
}

func getSampleVerses(ctx context.Context, db *sqlx.DB, config SampleConfig) ([]Verse, error) {
	verses := make([]Verse, 0, len(config.MustInclude)+config.RandomPerJuz*30)

	// Get must-include verses
	if len(config.MustInclude) > 0 {
		query := `
			SELECT verse_id, sura_no, aya_no, text_uthmani, translation_en
			FROM verses
			WHERE verse_id = ANY($1)
		`
		var mustInclude []Verse
		if err := db.SelectContext(ctx, &mustInclude, query, pq.Array(config.MustInclude)); err != nil {
			return nil, fmt.Errorf("get must-include verses: %w", err)
		}
		verses = append(verses, mustInclude...)
	}

	// Random sample per juz so coverage is not skewed toward the long suras
	for juz := 1; juz <= 30; juz++ {
		query := `
			SELECT verse_id, sura_no, aya_no, text_uthmani, translation_en
			FROM verses
			WHERE juz_no = $1
			AND verse_id != ALL($2)
			ORDER BY RANDOM()
			LIMIT $3
		`
		var juzVerses []Verse
		if err := db.SelectContext(ctx, &juzVerses, query, juz, pq.Array(config.MustInclude), config.RandomPerJuz); err != nil {
			return nil, fmt.Errorf("get juz %d verses: %w", juz, err)
		}
		verses = append(verses, juzVerses...)
	}

	// Enrich with concept tags and surrounding context
	for i := range verses {
		verses[i].Concepts = getConcepts(ctx, db, verses[i].VerseID)
		verses[i].SuraContext = getSuraContext(ctx, db, verses[i].SuraNo, verses[i].AyaNo)
	}

	return verses, nil
}

func getConcepts(ctx context.Context, db *sqlx.DB, verseID string) []string {
	query := `
		SELECT concept_key
		FROM concept_verses
		WHERE verse_id = $1
		LIMIT 10
	`
	var concepts []string
	db.SelectContext(ctx, &concepts, query, verseID)
	return concepts
}

func getSuraContext(ctx context.Context, db *sqlx.DB, suraNo, ayaNo int) string {
	// Get surrounding verses (5 before, 5 after)
	query := `
		SELECT translation_en
		FROM verses
		WHERE sura_no = $1
		AND aya_no BETWEEN $2 AND $3
		ORDER BY aya_no
	`
	startAya := max(1, ayaNo-5)
	endAya := ayaNo + 5

	var texts []string
	db.SelectContext(ctx, &texts, query, suraNo, startAya, endAya)
	return strings.Join(texts, " ")
}

func enrichVerse(ctx context.Context, client *genai.Client, verse Verse) (EnrichmentResult, error) {
	result := EnrichmentResult{Verse: verse}

	// Build context for the LLM
	contextInfo := buildContextInfo(verse)

	// Generate thematic tags
	tags, err := generateTags(ctx, client, verse, contextInfo)
	if err != nil {
		return result, fmt.Errorf("generate tags: %w", err)
	}
	result.ThematicTags = tags

	// Generate synthetic queries
	queries, err := generateSyntheticQueries(ctx, client, verse, contextInfo)
	if err != nil {
		return result, fmt.Errorf("generate queries: %w", err)
	}
	result.SyntheticQueries = queries

	// Augmented text is what gets embedded
	result.AugmentedText = fmt.Sprintf("%s [Themes: %s]", verse.TranslationEn, strings.Join(tags, ", "))

	return result, nil
}

func buildContextInfo(verse Verse) string {
	var parts []string

	if len(verse.Concepts) > 0 {
		parts = append(parts, fmt.Sprintf("Associated concepts: %s", strings.Join(verse.Concepts, ", ")))
	}
	if verse.SuraContext != "" {
		parts = append(parts, fmt.Sprintf("Surrounding context: %s", verse.SuraContext))
	}

	return strings.Join(parts, "\n")
}

func generateTags(ctx context.Context, client *genai.Client, verse Verse, contextInfo string) ([]string, error) {
	prompt := fmt.Sprintf(`You are a scholar of Quranic studies with expertise in tafsir, Arabic morphology, and thematic analysis of the Quran.

Analyze this Quran verse and provide 5-8 themes or concepts that this verse relates to.

VERSE: %d:%d
ARABIC: "%s"
TRANSLATION: "%s"

CONTEXT:
%s

INSTRUCTIONS:
- Include both explicit themes (directly stated) and implicit themes (derived from tafsir)
- Use standard terminology (e.g., "Tawhid", "Sabr/patience", "Tawakkul/trust in God")
- Include relevant Arabic concepts with transliteration where applicable
- Think about what topics a student of the Quran might be searching for when they need this verse

Return ONLY a JSON array of strings, no explanation. Example:
["Theme 1", "Theme 2", "Theme 3"]`,
		verse.SuraNo, verse.AyaNo, verse.TextUthmani, verse.TranslationEn, contextInfo)

	model := client.GenerativeModel("gemini-3-flash-preview")
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}

	// Parse response
	text := extractText(resp)
	return parseJSONArray(text)
}

func generateSyntheticQueries(ctx context.Context, client *genai.Client, verse Verse, contextInfo string) ([]string, error) {
	prompt := fmt.Sprintf(`You are helping build a Quran search engine. For the given verse, generate 5-7 natural language search queries that a user might type when looking for this verse.

VERSE: %d:%d
ARABIC: "%s"
TRANSLATION: "%s"

CONTEXT:
%s

INSTRUCTIONS:
- Write queries as a real user would search (natural language, not keywords)
- Include both English queries and Arabic queries
- Include queries for both obvious themes AND subtle/implicit themes
- Consider practical life questions this verse addresses
- Vary query styles: questions, topic searches, narrative lookups

Return ONLY a JSON array of strings, no explanation. Example:
["What does the Quran say about X?", "verses about Y", "آيات عن Z"]`,
		verse.SuraNo, verse.AyaNo, verse.TextUthmani, verse.TranslationEn, contextInfo)

	model := client.GenerativeModel("gemini-3-flash-preview")
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}

	text := extractText(resp)
	return parseJSONArray(text)
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var text string
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return text
}

func parseJSONArray(text string) ([]string, error) {
	// Clean up the response - remove markdown code blocks if present
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var result []string
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parse JSON array: %w (raw: %s)", err, text)
	}
	return result, nil
}

func writeResults(results []EnrichmentResult, filename string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func writeSummary(results []EnrichmentResult, filename string) error {
	var sb strings.Builder

	sb.WriteString("# Semantic Enrichment Prototype Results\n\n")
	sb.WriteString(fmt.Sprintf("**Total verses processed:** %d\n\n", len(results)))
	sb.WriteString("---\n\n")

	for _, r := range results {
		sb.WriteString(fmt.Sprintf("## %s\n\n", r.Verse.VerseID))
		sb.WriteString(fmt.Sprintf("**Text:** %s\n\n", r.Verse.TranslationEn))

		sb.WriteString("**Thematic Tags:**\n")
		for _, a := range r.ThematicTags {
			sb.WriteString(fmt.Sprintf("- %s\n", a))
		}
		sb.WriteString("\n")

		sb.WriteString("**Synthetic Queries:**\n")
		for _, q := range r.SyntheticQueries {
			sb.WriteString(fmt.Sprintf("- %s\n", q))
		}
		sb.WriteString("\n")

		sb.WriteString(fmt.Sprintf("**Augmented Text:** %s\n\n", r.AugmentedText))
		sb.WriteString("---\n\n")
	}

	return os.WriteFile(filename, []byte(sb.String()), 0644)
}
