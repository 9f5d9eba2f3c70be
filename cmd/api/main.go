package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/tadabbur-search-api/internal/concept"
	"github.com/tadabbur-search-api/internal/config"
	"github.com/tadabbur-search-api/internal/handlers"
	"github.com/tadabbur-search-api/internal/middleware"
	"github.com/tadabbur-search-api/internal/repository"
	"github.com/tadabbur-search-api/internal/repository/memory"
	"github.com/tadabbur-search-api/internal/repository/postgres"
	"github.com/tadabbur-search-api/internal/repository/vertex"
	"github.com/tadabbur-search-api/internal/search"
	"github.com/tadabbur-search-api/internal/services"
	"github.com/tadabbur-search-api/pkg/schema/db"
	pkgservices "github.com/tadabbur-search-api/pkg/schema/services"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	// Get configuration
	cfg := config.GetConfig()

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSMiddleware())

	// Load concept dictionary
	dict, err := loadDictionary(cfg)
	if err != nil {
		logger.Fatal("Failed to load concept dictionary", zap.Error(err))
	}
	logger.Info("Concept dictionary loaded", zap.Int("concepts", dict.Len()))

	ctx := context.Background()

	// Create verse corpus repository
	var verseRepo repository.VerseRepository
	switch cfg.CorpusBackend {
	case "memory":
		logger.Info("Using embedded in-memory verse corpus")
		memRepo, err := memory.NewEmbeddedRepository()
		if err != nil {
			logger.Fatal("Failed to load embedded corpus", zap.Error(err))
		}
		verseRepo = memRepo
	default:
		if err := db.InitPostgres(ctx); err != nil {
			logger.Fatal("Failed to initialize PostgreSQL", zap.Error(err))
		}
		logger.Info("Database initialization complete")
		verseRepo = postgres.NewVerseRepository(db.GetPostgres())
	}

	// Create vector search repository based on configuration
	var vectorRepo repository.VectorSearchRepository
	var vertexRepo *vertex.VectorSearchRepository // For cleanup

	switch cfg.VectorBackend {
	case "vertex":
		logger.Info("Using Vertex AI Vector Search backend")
		vertexCfg := vertex.Config{
			ProjectID:            cfg.VertexProjectID,
			Location:             cfg.VertexLocation,
			IndexEndpointID:      cfg.VertexIndexEndpointID,
			DeployedIndexID:      cfg.VertexDeployedIndexID,
			PublicEndpointDomain: cfg.VertexPublicEndpointDomain,
		}
		vertexRepo, err = vertex.NewVectorSearchRepository(ctx, vertexCfg, db.GetPostgres())
		if err != nil {
			logger.Fatal("Failed to create Vertex AI vector repository", zap.Error(err))
		}
		vectorRepo = vertexRepo
	default:
		logger.Info("Using pgvector backend")
		vectorRepo = postgres.NewVectorSearchRepository(db.GetPostgres())
	}

	// Create services
	embeddingsSvc := pkgservices.GetEmbeddingsService()
	if err := pkgservices.GetInitError(); err != nil {
		logger.Fatal("Failed to initialize embeddings service", zap.Error(err))
	}

	engine := search.NewEngine(dict, verseRepo, search.Config{
		Weights: search.Weights{
			Exact:   cfg.ExactWeight,
			Root:    cfg.RootWeight,
			Overlap: cfg.OverlapWeight,
		},
		CorpusTimeout: cfg.CorpusTimeout,
		RetryBackoff:  cfg.RetryBackoff,
		DefaultLimit:  cfg.DefaultLimit,
		MaxLimit:      cfg.MaxLimit,
		MaxConcepts:   cfg.MaxConcepts,
		CacheSize:     cfg.CacheSize,
		CacheTTL:      cfg.CacheTTL,
	}, logger)

	semanticSvc := services.NewSemanticSearchService(vectorRepo, embeddingsSvc, dict, logger)

	// Create API group with prefix
	api := e.Group(cfg.APIPrefix)

	// Register handlers
	healthHandler := handlers.NewHealthHandler(dict, cfg.CorpusBackend)
	healthHandler.RegisterRoutes(api)

	searchHandler := handlers.NewSearchHandler(engine, semanticSvc, logger)
	searchHandler.RegisterRoutes(api)

	// Root health check
	e.GET("/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"name":    cfg.APITitle,
			"version": cfg.APIVersion,
			"status":  "running",
		})
	})

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logger.Info("Starting server",
			zap.String("name", cfg.APITitle),
			zap.String("version", cfg.APIVersion),
			zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", zap.Error(err))
	}

	if cfg.CorpusBackend != "memory" {
		if err := db.ClosePostgres(); err != nil {
			logger.Error("Error closing PostgreSQL", zap.Error(err))
		}
	}

	// Close Vertex AI client if used
	if vertexRepo != nil {
		if err := vertexRepo.Close(); err != nil {
			logger.Error("Error closing Vertex AI client", zap.Error(err))
		}
	}

	logger.Info("Server stopped")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadDictionary(cfg *config.Config) (*concept.Dictionary, error) {
	if cfg.ConceptsPath != "" {
		return concept.LoadFile(cfg.ConceptsPath)
	}
	return concept.LoadEmbedded()
}
