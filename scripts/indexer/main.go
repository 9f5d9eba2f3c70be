// indexer.go
//
// This script generates embeddings for verses and stores them in the
// embedding column, using a worker pool to keep several embedding
// requests in flight.
//
// Usage:
//   go run scripts/indexer/main.go          # embed verses without embeddings
//   go run scripts/indexer/main.go -all     # re-embed everything
//
// Environment variables:
//   POSTGRES_URI - PostgreSQL connection string
//   (plus the embedding provider settings, see pkg/schema/config)

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/panjf2000/ants/v2"
	"github.com/pgvector/pgvector-go"

	pkgservices "github.com/tadabbur-search-api/pkg/schema/services"
)

type verseRow struct {
	VerseID       string `db:"verse_id"`
	TranslationEn string `db:"translation_en"`
}

func main() {
	reembedAll := flag.Bool("all", false, "Re-embed all verses, not just missing ones")
	workers := flag.Int("workers", 8, "Concurrent embedding workers")
	flag.Parse()

	godotenv.Load()

	postgresURI := os.Getenv("POSTGRES_URI")
	if postgresURI == "" {
		log.Fatal("POSTGRES_URI environment variable is required")
	}

	ctx := context.Background()

	db, err := sqlx.ConnectContext(ctx, "postgres", postgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	embeddingSvc := pkgservices.GetEmbeddingsService()
	if err := pkgservices.GetInitError(); err != nil {
		log.Fatalf("Failed to initialize embeddings service: %v", err)
	}

	query := `SELECT verse_id, translation_en FROM verses WHERE embedding IS NULL ORDER BY sura_no, aya_no`
	if *reembedAll {
		query = `SELECT verse_id, translation_en FROM verses ORDER BY sura_no, aya_no`
	}

	var verses []verseRow
	if err := db.SelectContext(ctx, &verses, query); err != nil {
		log.Fatalf("Failed to query verses: %v", err)
	}
	if len(verses) == 0 {
		log.Println("Nothing to embed")
		return
	}
	log.Printf("Embedding %d verses with %d workers...", len(verses), *workers)

	pool, err := ants.NewPool(*workers)
	if err != nil {
		log.Fatalf("Failed to create worker pool: %v", err)
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		done   atomic.Int64
		failed atomic.Int64
	)

	for _, v := range verses {
		v := v
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()

			embedding, err := embeddingSvc.EmbedVerse(ctx, v.TranslationEn)
			if err != nil {
				failed.Add(1)
				log.Printf("Warning: embed %s: %v", v.VerseID, err)
				return
			}

			vec := pgvector.NewVector(float32Slice(embedding))
			if _, err := db.ExecContext(ctx,
				`UPDATE verses SET embedding = $1 WHERE verse_id = $2`, vec, v.VerseID); err != nil {
				failed.Add(1)
				log.Printf("Warning: store %s: %v", v.VerseID, err)
				return
			}

			n := done.Add(1)
			if n%50 == 0 {
				log.Printf("  %d/%d embedded", n, len(verses))
			}
		})
		if err != nil {
			wg.Done()
			log.Fatalf("Failed to submit job: %v", err)
		}
	}

	wg.Wait()
	log.Printf("Done: %d embedded, %d failed", done.Load(), failed.Load())
}

// float32Slice converts []float64 to []float32 for pgvector
func float32Slice(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
