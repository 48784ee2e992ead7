package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"studypal/internal/config"
	"studypal/internal/database/kafka"
	"studypal/internal/database/milvus"
	"studypal/internal/database/minio"
	"studypal/internal/database/mysql"
	"studypal/internal/database/redis"
	"studypal/internal/embedding"
	"studypal/internal/extract"
	"studypal/internal/index"
	"studypal/internal/llm"
	"studypal/internal/rag/embeddings"
	"studypal/internal/rag/interfaces"
	"studypal/internal/rag/pipeline"
	"studypal/internal/rag/splitters"
	"studypal/internal/rag/storages/vectorstore"
	"studypal/internal/rag_service/api"
	"studypal/internal/rag_service/dal"
	"studypal/internal/rag_service/service"
	"studypal/pkg/circuitbreaker"
	"studypal/pkg/logger"
	"studypal/pkg/ratelimiter"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		return
	}

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	log := logger.New("rag_service")
	log.WithField("version", cfg.App.Version).Info("starting rag service")

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("rag service failed")
	}
}

func run(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) error {
	healthChecks := map[string]api.HealthCheck{}

	// Embedding provider, wrapped with normalization, rate limiting, and
	// retries.
	model, err := buildEmbeddingModel(ctx, &cfg.Embedding)
	if err != nil {
		return fmt.Errorf("build embedding model: %w", err)
	}

	var limiter ratelimiter.RateLimiter
	if cfg.Embedding.RateLimit.Enabled {
		limiter = ratelimiter.NewTokenBucket(cfg.Embedding.RateLimit.Rate, cfg.Embedding.RateLimit.Capacity)
	}
	embedder := embeddings.NewEmbedder(model, cfg.Embedding.Dimension, embeddings.Options{
		MaxAttempts: cfg.Embedding.Retry.MaxAttempts,
		BaseBackoff: parseDuration(cfg.Embedding.Retry.BaseBackoff, 500*time.Millisecond),
		Limiter:     limiter,
	})

	// Vector store.
	store, cleanup, err := buildVectorStore(ctx, cfg, healthChecks)
	if err != nil {
		return fmt.Errorf("build vector store: %w", err)
	}
	defer cleanup()

	// Pipelines.
	profile := cfg.ActiveChunking()
	splitter := splitters.NewRecursiveCharacterSplitter(profile.ChunkSize, profile.ChunkOverlap)
	ingestion := pipeline.NewIngestion(extract.NewService(), splitter, embedder, store)

	var cache pipeline.QueryCache
	if cfg.Databases.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Databases.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		healthChecks["redis"] = func(ctx context.Context) error {
			return redis.HealthCheck(ctx, redisClient)
		}
		cache = redis.NewEmbeddingCache(redisClient, parseDuration(cfg.Databases.Redis.TTL, 10*time.Minute))
	}
	retrieval := pipeline.NewRetrieval(embedder, store, cfg.Retrieval, cache)

	generator, err := llm.NewModel(ctx, &cfg.LLM)
	if err != nil {
		return fmt.Errorf("build llm: %w", err)
	}
	qa := pipeline.NewQA(generator)

	// Optional infrastructure.
	opts := service.Options{}

	if cfg.Databases.MySQL.Enabled {
		db, err := mysql.Open(&cfg.Databases.MySQL)
		if err != nil {
			return fmt.Errorf("connect mysql: %w", err)
		}
		defer mysql.Close(db)
		healthChecks["mysql"] = func(ctx context.Context) error {
			return mysql.HealthCheck(ctx, db)
		}
		registry, err := dal.NewDocumentDAL(db)
		if err != nil {
			return fmt.Errorf("init document registry: %w", err)
		}
		opts.Registry = registry
	}

	if cfg.Databases.MinIO.Enabled {
		archive, err := minio.NewClient(ctx, &cfg.Databases.MinIO)
		if err != nil {
			return fmt.Errorf("connect minio: %w", err)
		}
		healthChecks["minio"] = archive.HealthCheck
		opts.Archive = archive
	}

	if cfg.Databases.Kafka.Enabled {
		kafkaClient, err := kafka.NewClient(&cfg.Databases.Kafka)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaClient.Close()
		healthChecks["kafka"] = kafkaClient.HealthCheck
		opts.Events = kafka.NewStatusPublisher(kafkaClient)
	}

	if cfg.CircuitBreaker.Enabled {
		opts.Breaker = circuitbreaker.New(
			cfg.CircuitBreaker.FailureThreshold,
			cfg.CircuitBreaker.SuccessThreshold,
			parseDuration(cfg.CircuitBreaker.Timeout, 30*time.Second),
		)
	}

	svc := service.New(ingestion, retrieval, qa, opts)

	// HTTP surface.
	router := gin.New()
	router.Use(gin.Recovery())
	api.RegisterRoutes(router, api.NewAPI(svc, cfg.Server.MaxUploadBytes, healthChecks))

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("address", cfg.Server.Address).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func buildEmbeddingModel(ctx context.Context, cfg *config.EmbeddingConfig) (embedding.Embedding, error) {
	switch embedding.ModelType(cfg.Provider) {
	case embedding.Gemini:
		return embedding.NewModel(ctx, embedding.Gemini, cfg.Gemini.Model, cfg.Gemini.APIKey, "")
	case embedding.OpenAI:
		return embedding.NewModel(ctx, embedding.OpenAI, cfg.OpenAI.Model, cfg.OpenAI.APIKey, "")
	case embedding.Ollama:
		return embedding.NewModel(ctx, embedding.Ollama, cfg.Ollama.Model, "", cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}
}

// buildVectorStore returns the configured store, a cleanup func, and
// registers health checks for remote backends.
func buildVectorStore(ctx context.Context, cfg *config.AppConfig, healthChecks map[string]api.HealthCheck) (interfaces.VectorStore, func(), error) {
	switch cfg.VectorStore.Provider {
	case "milvus":
		client, err := milvus.NewClient(ctx, &cfg.VectorStore.Milvus)
		if err != nil {
			return nil, nil, err
		}
		if err := client.EnsureCollection(ctx, cfg.Embedding.Dimension); err != nil {
			client.Close()
			return nil, nil, err
		}
		store, err := vectorstore.NewMilvusStore(client,
			cfg.VectorStore.Milvus.Collection,
			cfg.Embedding.Dimension,
			cfg.VectorStore.Milvus.Index.Ef)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		healthChecks["milvus"] = client.HealthCheck
		return store, client.Close, nil

	case "memory":
		store := vectorstore.NewMemoryStore(index.NewHNSW(index.DefaultHNSWConfig()), cfg.Embedding.Dimension)
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported vector store provider: %q", cfg.VectorStore.Provider)
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
