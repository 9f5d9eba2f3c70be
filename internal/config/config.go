package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// API Settings
	APITitle   string
	APIVersion string
	APIPrefix  string
	Port       string
	Debug      bool

	// CORS
	CORSOrigins []string

	// Verse corpus backend: "postgres" or "memory"
	CorpusBackend string
	CorpusTimeout time.Duration
	RetryBackoff  time.Duration

	// Concept dictionary override; empty uses the embedded dictionary
	ConceptsPath string

	// Search tuning
	DefaultLimit  int
	MaxLimit      int
	MaxConcepts   int
	CacheSize     int
	CacheTTL      time.Duration
	ExactWeight   float64
	RootWeight    float64
	OverlapWeight float64

	// Vector Search Backend: "pgvector" or "vertex"
	VectorBackend string

	// Vertex AI Vector Search settings (used when VectorBackend = "vertex")
	VertexProjectID            string
	VertexLocation             string
	VertexIndexEndpointID      string
	VertexDeployedIndexID      string
	VertexPublicEndpointDomain string
}

var (
	config *Config
	once   sync.Once
)

// GetConfig returns the singleton configuration instance
func GetConfig() *Config {
	once.Do(func() {
		config = loadConfig()
	})
	return config
}

func loadConfig() *Config {
	return &Config{
		APITitle:    getEnv("API_TITLE", "Tadabbur Search API"),
		APIVersion:  getEnv("API_VERSION", "1.0.0"),
		APIPrefix:   getEnv("API_PREFIX", "/quran"),
		Port:        getEnv("PORT", "8081"),
		Debug:       getEnvBool("DEBUG", false),
		CORSOrigins: parseCORSOrigins(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),

		// Corpus backend configuration
		CorpusBackend: getEnv("CORPUS_BACKEND", "postgres"), // "postgres" or "memory"
		CorpusTimeout: getEnvDuration("CORPUS_TIMEOUT", 3*time.Second),
		RetryBackoff:  getEnvDuration("CORPUS_RETRY_BACKOFF", 150*time.Millisecond),

		ConceptsPath: getEnv("CONCEPTS_PATH", ""),

		// Search tuning
		DefaultLimit:  getEnvInt("SEARCH_DEFAULT_LIMIT", 50),
		MaxLimit:      getEnvInt("SEARCH_MAX_LIMIT", 200),
		MaxConcepts:   getEnvInt("SEARCH_MAX_CONCEPTS", 10),
		CacheSize:     getEnvInt("SEARCH_CACHE_SIZE", 256),
		CacheTTL:      getEnvDuration("SEARCH_CACHE_TTL", 5*time.Minute),
		ExactWeight:   getEnvFloat("SCORE_EXACT_WEIGHT", 0.5),
		RootWeight:    getEnvFloat("SCORE_ROOT_WEIGHT", 0.3),
		OverlapWeight: getEnvFloat("SCORE_OVERLAP_WEIGHT", 0.2),

		// Vector search backend configuration
		VectorBackend: getEnv("VECTOR_BACKEND", "pgvector"), // "pgvector" or "vertex"

		// Vertex AI settings
		VertexProjectID:            getEnv("VERTEX_PROJECT_ID", ""),
		VertexLocation:             getEnv("VERTEX_LOCATION", "us-central1"),
		VertexIndexEndpointID:      getEnv("VERTEX_INDEX_ENDPOINT_ID", ""),
		VertexDeployedIndexID:      getEnv("VERTEX_DEPLOYED_INDEX_ID", ""),
		VertexPublicEndpointDomain: getEnv("VERTEX_PUBLIC_ENDPOINT_DOMAIN", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseCORSOrigins(value string) []string {
	var origins []string
	if err := json.Unmarshal([]byte(value), &origins); err == nil {
		return origins
	}
	parts := strings.Split(value, ",")
	origins = make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
