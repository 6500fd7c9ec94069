package bootstrap

import (
	"context"
	"log"
	"strings"
	"time"

	"text2sql-be/internal/config"
	"text2sql-be/internal/controller"
	"text2sql-be/internal/pkg/logger"
	"text2sql-be/internal/repository/memory"
	"text2sql-be/internal/service"
	"text2sql-be/pkg/embedding"
	"text2sql-be/pkg/events"
	llmollama "text2sql-be/pkg/llm/ollama"
	llmopenai "text2sql-be/pkg/llm/openai"
	"text2sql-be/pkg/llm/registry"
	pktNats "text2sql-be/pkg/nats"
	"text2sql-be/pkg/sqlrag/catalog"
	"text2sql-be/pkg/sqlrag/orchestrator"
	"text2sql-be/pkg/sqlrag/query"
	"text2sql-be/pkg/sqlrag/response"
	"text2sql-be/pkg/sqlrag/retrieval"
	"text2sql-be/pkg/sqlrag/subject"
	"text2sql-be/pkg/sqlrag/tables"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	AgentController controller.IAgentController

	// IngestService is exposed for the ingest command.
	IngestService service.IIngestService

	Logger logger.ILogger

	natsPub *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	// Blocking publish keeps frames on a run's topic in emit order; without it
	// the terminal frame can overtake the token frames.
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermillLogger,
	)
	channelSink := events.NewChannelSink(pubSub)

	// NATS audit trail is best effort: the pipeline works without it.
	sinks := events.MultiSink{channelSink}
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		sinks = append(sinks, pktNats.NewSink(natsPub))
	}

	// 3. Providers
	embedder := newEmbeddingProvider(cfg)
	models := newModelRegistry(cfg)

	// 4. Pipeline
	schemaCatalog := catalog.NewSchemaCatalog(db)
	pipeline := orchestrator.NewOrchestrator(
		models,
		tables.NewSelector(schemaCatalog),
		query.NewGenerator(schemaCatalog),
		subject.NewResolver(),
		retrieval.NewExecutor(db, embedder, retrieval.WithTopK(cfg.Pipeline.TopK)),
		response.NewComposer(),
		sinks,
		cfg.Pipeline.MaxRetries,
	)

	// 5. Services
	sessionRepo := memory.NewSessionRepository()
	agentService := service.NewAgentService(pipeline, models, sessionRepo, channelSink, sysLogger)

	defaultEntry, err := models.Resolve("")
	if err != nil {
		log.Fatalf("[FATAL] No LLM models registered: %v", err)
	}
	ingestService := service.NewIngestService(db, schemaCatalog, embedder, defaultEntry.Provider, sysLogger)

	return &Container{
		AgentController: controller.NewAgentController(agentService, cfg.Keys.JWTSecret),
		IngestService:   ingestService,
		Logger:          sysLogger,
		natsPub:         natsPub,
	}
}

func (c *Container) Close() {
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	_ = c.Logger.Sync()
}

func newEmbeddingProvider(cfg *config.Config) embedding.Provider {
	var provider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "openai" {
		provider = embedding.NewOpenAIProvider(
			cfg.Ai.OpenAIBaseURL,
			cfg.Keys.OpenAI,
			cfg.Ai.EmbeddingModel,
			cfg.Ai.EmbeddingDimensions,
		)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	} else {
		provider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.EmbeddingModel,
			cfg.Ai.EmbeddingDimensions,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	}

	if cfg.Ai.EmbeddingCache {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis, embedding cache disabled: %v", err)
			return provider
		}
		provider = embedding.NewCachedProvider(provider, rdb, 24*time.Hour)
		log.Printf("[INFO] Embedding cache enabled (Redis)")
	}

	return provider
}

// newModelRegistry registers the configured default model plus any extras.
// Extra entries use the same provider backend under their own model name.
func newModelRegistry(cfg *config.Config) *registry.Registry {
	models := registry.New()

	names := append([]string{cfg.Ai.LLMModel}, splitModels(cfg.Ai.ExtraModels)...)
	for _, name := range names {
		if cfg.Ai.LLMProvider == "openai" {
			models.Register(name, llmopenai.NewOpenAIProvider(cfg.Ai.OpenAIBaseURL, cfg.Keys.OpenAI, name), registry.Capabilities{
				StructuredOutput: true,
				Streaming:        false,
			})
		} else {
			models.Register(name, llmollama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, name), registry.Capabilities{
				StructuredOutput: true,
				Streaming:        true,
			})
		}
	}
	log.Printf("[INFO] Using LLM Provider: %s (default model %s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	return models
}

func splitModels(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
