package repository

import (
	"context"

	"github.com/tadabbur-search-api/internal/models"
)

// VerseRepository is the verse corpus accessor. FindCandidates returns
// every verse containing any of the folded terms (in the Arabic text or
// the stemmed English translation) or any of the roots. Candidates are a
// superset; the matcher verifies and scores them. suraNo of 0 means no
// sura filter.
type VerseRepository interface {
	FindCandidates(ctx context.Context, terms []string, roots []string, suraNo int) ([]models.Verse, error)
}

// VectorSearchRepository defines operations for vector similarity search.
type VectorSearchRepository interface {
	// SearchVersesByEmbedding performs vector similarity search on verses.
	SearchVersesByEmbedding(ctx context.Context, embedding []float64, topK int) ([]models.ScoredVerse, error)

	// IndexReady reports whether the vector index holds any embeddings.
	// A false result is the "not_indexed" state, not an error.
	IndexReady(ctx context.Context) (bool, error)
}
