package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/tadabbur-search-api/internal/models"
	"github.com/tadabbur-search-api/internal/repository"
)

// VectorSearchRepository implements repository.VectorSearchRepository for
// PostgreSQL with pgvector.
type VectorSearchRepository struct {
	db *sqlx.DB
}

// NewVectorSearchRepository creates a new PostgreSQL vector search repository.
func NewVectorSearchRepository(db *sqlx.DB) repository.VectorSearchRepository {
	return &VectorSearchRepository{db: db}
}

var _ repository.VectorSearchRepository = (*VectorSearchRepository)(nil)

// IndexReady reports whether any verse embeddings exist yet. A missing
// database connection means the index was never built.
func (r *VectorSearchRepository) IndexReady(ctx context.Context) (bool, error) {
	if r.db == nil {
		return false, nil
	}
	var ready bool
	err := r.db.GetContext(ctx, &ready, `SELECT EXISTS (SELECT 1 FROM verses WHERE embedding IS NOT NULL)`)
	if err != nil {
		return false, fmt.Errorf("check vector index: %w", err)
	}
	return ready, nil
}

// SearchVersesByEmbedding performs vector similarity search on verses using pgvector.
func (r *VectorSearchRepository) SearchVersesByEmbedding(ctx context.Context, embedding []float64, topK int) ([]models.ScoredVerse, error) {
	vec := pgvector.NewVector(float32Slice(embedding))

	rows, err := r.db.QueryxContext(ctx, `
		SELECT verse_id, sura_no, aya_no, juz_no, text_uthmani, text_imlaei, translation_en, roots,
		       1 - (embedding <=> $1::vector) as score
		FROM verses
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search verses: %w", err)
	}
	defer rows.Close()

	var results []models.ScoredVerse
	for rows.Next() {
		var v models.ScoredVerse
		if err := rows.Scan(&v.VerseID, &v.SuraNo, &v.AyaNo, &v.JuzNo,
			&v.TextUthmani, &v.TextImlaei, &v.TranslationEn, pq.Array(&v.Roots), &v.Score); err != nil {
			return nil, fmt.Errorf("scan verse result: %w", err)
		}
		results = append(results, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verse results: %w", err)
	}

	if results == nil {
		results = []models.ScoredVerse{}
	}
	return results, nil
}

// float32Slice converts []float64 to []float32 for pgvector
func float32Slice(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
