// coverage.go
//
// Audits the concept_verses mappings for a concept against a curated
// canonical verse list, reporting gaps by importance tier and printing
// the SQL to close them.
//
// Usage:
//   go run scripts/audit/coverage/main.go -concept patience

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/tadabbur-search-api/internal/concept"
)

// CanonicalVerse represents a verse that should be mapped to a concept
type CanonicalVerse struct {
	VerseID    string
	Importance int    // 1 = essential, 2 = important, 3 = supporting
	Reason     string // Why this verse is relevant to the concept
}

// canonicalSets holds curated verse lists per concept key
var canonicalSets = map[string][]CanonicalVerse{
	"patience": {
		// Tier 1: Essential
		{VerseID: "2:45", Importance: 1, Reason: "Seek help through patience and prayer"},
		{VerseID: "2:153", Importance: 1, Reason: "Allah is with the patient"},
		{VerseID: "39:10", Importance: 1, Reason: "The patient are given their reward without account"},
		{VerseID: "2:155", Importance: 1, Reason: "Give glad tidings to the patient"},
		// Tier 2: Important
		{VerseID: "3:146", Importance: 2, Reason: "Allah loves the steadfast"},
		{VerseID: "103:3", Importance: 2, Reason: "Counsel one another to patience"},
		// Tier 3: Supporting
		{VerseID: "21:83", Importance: 3, Reason: "Ayyub's patience under affliction"},
		{VerseID: "12:18", Importance: 3, Reason: "Yaqub's beautiful patience"},
	},
	"sulayman": {
		{VerseID: "27:15", Importance: 1, Reason: "Knowledge given to Dawud and Sulayman"},
		{VerseID: "27:16", Importance: 1, Reason: "Sulayman inherits Dawud, taught speech of birds"},
		{VerseID: "34:12", Importance: 2, Reason: "Wind and jinn subjected to Sulayman"},
		{VerseID: "27:44", Importance: 2, Reason: "The queen enters the palace of glass"},
		{VerseID: "38:30", Importance: 3, Reason: "Excellent servant, oft returning"},
	},
	"queen_of_sheba": {
		{VerseID: "27:22", Importance: 1, Reason: "The hoopoe brings news from Sheba"},
		{VerseID: "27:23", Importance: 1, Reason: "A woman ruling over them with a great throne"},
		{VerseID: "27:44", Importance: 1, Reason: "She submits with Sulayman to the Lord of the worlds"},
		{VerseID: "34:15", Importance: 2, Reason: "Sheba's gardens, a fair land and a forgiving Lord"},
	},
}

func main() {
	conceptKey := flag.String("concept", "patience", "Concept key to audit")
	flag.Parse()

	godotenv.Load()

	canonical, ok := canonicalSets[*conceptKey]
	if !ok {
		fmt.Printf("No canonical verse list defined for concept %q\n", *conceptKey)
		fmt.Printf("Available: %s\n", strings.Join(availableKeys(), ", "))
		os.Exit(1)
	}

	// Confirm the key exists in the dictionary before auditing
	dict, err := concept.LoadEmbedded()
	if err != nil {
		fmt.Printf("Failed to load dictionary: %v\n", err)
		os.Exit(1)
	}
	if dict.Get(*conceptKey) == nil {
		fmt.Printf("Concept %q is not in the dictionary\n", *conceptKey)
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", os.Getenv("POSTGRES_URI"))
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	var existingVerses []string
	query := `SELECT verse_id FROM concept_verses WHERE concept_key = $1`
	if err := db.SelectContext(ctx, &existingVerses, query, *conceptKey); err != nil {
		fmt.Printf("Failed to query existing mappings: %v\n", err)
		os.Exit(1)
	}

	existingSet := make(map[string]bool)
	for _, v := range existingVerses {
		existingSet[v] = true
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("CONCEPT COVERAGE AUDIT: %s\n", *conceptKey)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("\nExisting mapped verses: %d\n", len(existingVerses))
	fmt.Printf("Canonical verses defined: %d\n\n", len(canonical))

	var missing, present []CanonicalVerse
	for _, cv := range canonical {
		if existingSet[cv.VerseID] {
			present = append(present, cv)
		} else {
			missing = append(missing, cv)
		}
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Println("MISSING VERSES (should be added)")
	fmt.Println(strings.Repeat("-", 80))

	for tier := 1; tier <= 3; tier++ {
		tierMissing := filterByImportance(missing, tier)
		if len(tierMissing) == 0 {
			continue
		}
		fmt.Printf("\nTIER %d:\n", tier)
		for _, v := range tierMissing {
			fmt.Printf("   %-10s %s\n", v.VerseID, v.Reason)
		}
	}

	fmt.Println("\n" + strings.Repeat("-", 80))
	fmt.Println("ALREADY PRESENT")
	fmt.Println(strings.Repeat("-", 80))

	for tier := 1; tier <= 3; tier++ {
		tierPresent := filterByImportance(present, tier)
		fmt.Printf("\nTier %d present: %d/%d\n", tier, len(tierPresent), len(filterByImportance(canonical, tier)))
		for _, v := range tierPresent {
			fmt.Printf("   %-10s %s\n", v.VerseID, v.Reason)
		}
	}

	if len(missing) > 0 {
		fmt.Println("\n" + strings.Repeat("=", 80))
		fmt.Println("SQL TO ADD MISSING VERSES")
		fmt.Println(strings.Repeat("=", 80))
		fmt.Printf("\nINSERT INTO concept_verses (concept_key, verse_id, importance)\nVALUES\n")
		for i, v := range missing {
			comma := ","
			if i == len(missing)-1 {
				comma = ""
			}
			fmt.Printf("    ('%s', '%s', %d)%s\n", *conceptKey, v.VerseID, v.Importance, comma)
		}
		fmt.Println("ON CONFLICT DO NOTHING;")
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total canonical verses defined: %d\n", len(canonical))
	fmt.Printf("Already mapped: %d (%.0f%%)\n", len(present), float64(len(present))/float64(len(canonical))*100)
	fmt.Printf("Missing: %d\n", len(missing))
	for tier := 1; tier <= 3; tier++ {
		fmt.Printf("  - Tier %d: %d missing\n", tier, len(filterByImportance(missing, tier)))
	}
}

func filterByImportance(verses []CanonicalVerse, importance int) []CanonicalVerse {
	var result []CanonicalVerse
	for _, v := range verses {
		if v.Importance == importance {
			result = append(result, v)
		}
	}
	return result
}

func availableKeys() []string {
	keys := make([]string, 0, len(canonicalSets))
	for k := range canonicalSets {
		keys = append(keys, k)
	}
	return keys
}
