package services

import "context"

// TaskType selects the Vertex AI embedding task. Queries and stored verses
// use different task types so the model places them in a shared retrieval
// space.
type TaskType string

const (
	TaskTypeQuery    TaskType = "RETRIEVAL_QUERY"
	TaskTypeDocument TaskType = "RETRIEVAL_DOCUMENT"
)

// Embedder turns text into embedding vectors. Implementations exist for the
// Vertex AI prediction API and for self-hosted instruction-tuned models.
type Embedder interface {
	Embed(ctx context.Context, text string, taskType TaskType) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string, taskType TaskType) ([][]float64, error)
}
