// seed.go
//
// This script creates the verses and concept_verses tables and seeds them
// from the embedded corpus and curated concept-verse mappings.
//
// Usage:
//   go run scripts/seed/main.go
//
// Environment variables:
//   POSTGRES_URI - PostgreSQL connection string

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/lib/pq"

	"github.com/tadabbur-search-api/internal/concept"
	"github.com/tadabbur-search-api/internal/models"
	"github.com/tadabbur-search-api/internal/repository/memory"
)

// CanonicalVerse represents a verse for a concept
type CanonicalVerse struct {
	VerseID    string
	Importance int // 1 = essential, 2 = important, 3 = supporting
}

// ConceptMapping ties a dictionary concept key to its canonical verses
type ConceptMapping struct {
	ConceptKey string
	Verses     []CanonicalVerse
}

// CoreMappings holds curated canonical verses for the seeded corpus
var CoreMappings = []ConceptMapping{
	{
		ConceptKey: "patience",
		Verses: []CanonicalVerse{
			{VerseID: "2:45", Importance: 1},
			{VerseID: "2:153", Importance: 1},
			{VerseID: "39:10", Importance: 1},
			{VerseID: "3:146", Importance: 2},
			{VerseID: "21:83", Importance: 3},
		},
	},
	{
		ConceptKey: "sulayman",
		Verses: []CanonicalVerse{
			{VerseID: "27:15", Importance: 1},
			{VerseID: "27:16", Importance: 1},
			{VerseID: "27:44", Importance: 2},
		},
	},
	{
		ConceptKey: "queen_of_sheba",
		Verses: []CanonicalVerse{
			{VerseID: "27:22", Importance: 1},
			{VerseID: "27:23", Importance: 1},
			{VerseID: "27:44", Importance: 1},
		},
	},
	{
		ConceptKey: "musa",
		Verses: []CanonicalVerse{
			{VerseID: "7:143", Importance: 1},
			{VerseID: "19:52", Importance: 2},
			{VerseID: "28:34", Importance: 3},
		},
	},
	{
		ConceptKey: "gratitude",
		Verses: []CanonicalVerse{
			{VerseID: "14:7", Importance: 1},
			{VerseID: "27:15", Importance: 2},
		},
	},
	{
		ConceptKey: "justice",
		Verses: []CanonicalVerse{
			{VerseID: "16:90", Importance: 1},
			{VerseID: "38:26", Importance: 2},
		},
	},
}

const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS verses (
	verse_id           TEXT PRIMARY KEY,
	sura_no            INT NOT NULL,
	aya_no             INT NOT NULL,
	juz_no             INT NOT NULL,
	text_uthmani       TEXT NOT NULL,
	text_imlaei        TEXT NOT NULL,
	translation_en     TEXT NOT NULL,
	roots              TEXT[] NOT NULL DEFAULT '{}',
	text_folded        TEXT NOT NULL,
	translation_folded TEXT NOT NULL,
	embedding          vector(768)
);

CREATE INDEX IF NOT EXISTS idx_verses_sura_aya ON verses (sura_no, aya_no);
CREATE INDEX IF NOT EXISTS idx_verses_roots ON verses USING GIN (roots);

CREATE TABLE IF NOT EXISTS concept_verses (
	concept_key TEXT NOT NULL,
	verse_id    TEXT NOT NULL REFERENCES verses (verse_id),
	importance  INT NOT NULL DEFAULT 3,
	PRIMARY KEY (concept_key, verse_id)
);
`

func main() {
	godotenv.Load()

	db, err := sqlx.Connect("postgres", os.Getenv("POSTGRES_URI"))
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		fmt.Printf("Failed to create schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Schema ready")

	verses, err := memory.LoadEmbeddedVerses()
	if err != nil {
		fmt.Printf("Failed to load embedded corpus: %v\n", err)
		os.Exit(1)
	}

	inserted, err := insertVerses(ctx, db, verses)
	if err != nil {
		fmt.Printf("Failed to insert verses: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Inserted %d verses\n", inserted)

	fmt.Printf("Inserting %d concept mappings...\n\n", len(CoreMappings))

	totalMappings := 0
	for _, mapping := range CoreMappings {
		count, err := insertMapping(ctx, db, mapping)
		if err != nil {
			fmt.Printf("Failed to insert %s: %v\n", mapping.ConceptKey, err)
			continue
		}
		fmt.Printf("  %s - %d verses\n", mapping.ConceptKey, count)
		totalMappings += count
	}

	fmt.Printf("\nTotal verse mappings: %d\n", totalMappings)
}

func insertVerses(ctx context.Context, db *sqlx.DB, verses []models.Verse) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertSQL := `
		INSERT INTO verses (verse_id, sura_no, aya_no, juz_no, text_uthmani, text_imlaei,
		                    translation_en, roots, text_folded, translation_folded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (verse_id) DO UPDATE SET
			text_uthmani = EXCLUDED.text_uthmani,
			text_imlaei = EXCLUDED.text_imlaei,
			translation_en = EXCLUDED.translation_en,
			roots = EXCLUDED.roots,
			text_folded = EXCLUDED.text_folded,
			translation_folded = EXCLUDED.translation_folded
	`

	count := 0
	for _, v := range verses {
		// The folded columns are what the LIKE patterns search against.
		// The translation is additionally stemmed token-by-token because
		// query patterns carry stems, not surface forms.
		_, err := tx.ExecContext(ctx, insertSQL,
			v.VerseID, v.SuraNo, v.AyaNo, v.JuzNo,
			v.TextUthmani, v.TextImlaei, v.TranslationEn, pq.Array(v.Roots),
			concept.Fold(v.TextUthmani).Text,
			concept.FoldStem(v.TranslationEn),
		)
		if err != nil {
			return 0, fmt.Errorf("insert verse %s: %w", v.VerseID, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return count, nil
}

func insertMapping(ctx context.Context, db *sqlx.DB, mapping ConceptMapping) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The SELECT guard skips verses outside the seeded subset without
	// aborting the transaction on a foreign key violation.
	insertSQL := `
		INSERT INTO concept_verses (concept_key, verse_id, importance)
		SELECT $1, verse_id, $3 FROM verses WHERE verse_id = $2
		ON CONFLICT (concept_key, verse_id) DO UPDATE SET importance = EXCLUDED.importance
	`

	count := 0
	for _, cv := range mapping.Verses {
		res, err := tx.ExecContext(ctx, insertSQL, mapping.ConceptKey, cv.VerseID, cv.Importance)
		if err != nil {
			return 0, fmt.Errorf("insert mapping %s -> %s: %w", mapping.ConceptKey, cv.VerseID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return count, nil
}
