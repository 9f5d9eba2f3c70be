// export_embeddings.go
//
// This script exports verse embeddings from PostgreSQL to a JSONL file
// formatted for Vertex AI Vector Search.
//
// Usage:
//   go run scripts/export/main.go -output embeddings.jsonl
//
// The output format is one JSON object per line:
//   {"id": "2:255", "embedding": [0.1, 0.2, ...], "restricts": [{"namespace": "sura", "allow": ["2"]}]}
//
// After running this script:
// 1. Upload the file to Cloud Storage:
//    gsutil cp embeddings.jsonl gs://YOUR_BUCKET/embeddings/
//
// 2. Create the Vertex AI index using the setup script or console

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DataPoint represents a single embedding for Vertex AI Vector Search
type DataPoint struct {
	ID        string     `json:"id"`
	Embedding []float32  `json:"embedding"`
	Restricts []Restrict `json:"restricts,omitempty"`
}

// Restrict defines a token-based filter
type Restrict struct {
	Namespace string   `json:"namespace"`
	Allow     []string `json:"allow"`
}

func main() {
	outputFile := flag.String("output", "embeddings.jsonl", "Output JSONL file path")
	flag.Parse()

	// Load environment variables
	godotenv.Load()

	postgresURI := os.Getenv("POSTGRES_URI")
	if postgresURI == "" {
		log.Fatal("POSTGRES_URI environment variable is required")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	db, err := sqlx.ConnectContext(ctx, "postgres", postgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Open output file
	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	log.Printf("Exporting embeddings to %s...\n", *outputFile)

	// Process one sura at a time (avoids temp file limit)
	var suras []int
	if err := db.SelectContext(ctx, &suras, `
		SELECT sura_no FROM verses
		WHERE embedding IS NOT NULL
		GROUP BY sura_no
		ORDER BY sura_no
	`); err != nil {
		log.Fatalf("Failed to get suras: %v", err)
	}
	log.Printf("Processing %d suras...\n", len(suras))

	encoder := json.NewEncoder(f)
	count := 0

	for _, sura := range suras {
		rows, err := db.QueryxContext(ctx, `
			SELECT
				verse_id,
				sura_no,
				juz_no,
				embedding::text as embedding_text
			FROM verses
			WHERE embedding IS NOT NULL AND sura_no = $1
			ORDER BY aya_no
		`, sura)
		if err != nil {
			log.Fatalf("Failed to query verses for sura %d: %v", sura, err)
		}

		suraCount := 0
		for rows.Next() {
			var verseID, embeddingText string
			var suraNo, juzNo int
			if err := rows.Scan(&verseID, &suraNo, &juzNo, &embeddingText); err != nil {
				rows.Close()
				log.Fatalf("Failed to scan row: %v", err)
			}

			// Parse the embedding from pgvector text format: "[0.1,0.2,...]"
			embedding, err := parseEmbedding(embeddingText)
			if err != nil {
				log.Printf("Warning: failed to parse embedding for %s: %v", verseID, err)
				continue
			}

			// Sura and juz restricts drive server-side filtering later
			dp := DataPoint{
				ID:        verseID,
				Embedding: embedding,
				Restricts: []Restrict{
					{
						Namespace: "sura",
						Allow:     []string{strconv.Itoa(suraNo)},
					},
					{
						Namespace: "juz",
						Allow:     []string{strconv.Itoa(juzNo)},
					},
				},
			}

			if err := encoder.Encode(dp); err != nil {
				rows.Close()
				log.Fatalf("Failed to encode data point: %v", err)
			}

			count++
			suraCount++
		}

		if err := rows.Err(); err != nil {
			rows.Close()
			log.Fatalf("Error iterating rows for sura %d: %v", sura, err)
		}
		rows.Close()

		log.Printf("  sura %d: %d verses", sura, suraCount)
	}

	log.Printf("Successfully exported %d embeddings to %s\n", count, *outputFile)
	log.Println("\nNext steps:")
	log.Println("1. Upload to Cloud Storage:")
	log.Printf("   gsutil cp %s gs://YOUR_BUCKET/embeddings/\n", *outputFile)
	log.Println("\n2. Create Vertex AI index (see scripts/setup)")
}

// parseEmbedding parses a pgvector text representation like "[0.1,0.2,0.3]"
func parseEmbedding(text string) ([]float32, error) {
	// Remove brackets
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")

	if text == "" {
		return nil, fmt.Errorf("empty embedding")
	}

	parts := strings.Split(text, ",")
	result := make([]float32, len(parts))

	for i, p := range parts {
		var val float32
		_, err := fmt.Sscanf(strings.TrimSpace(p), "%f", &val)
		if err != nil {
			return nil, fmt.Errorf("parse float at position %d: %w", i, err)
		}
		result[i] = val
	}

	return result, nil
}
