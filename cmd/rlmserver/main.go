// Command rlmserver boots the documentation retrieval service: it wires
// Mongo, Postgres, and Redis storage, the admission pipeline, the full
// tool registry, and serves both the MCP JSON-RPC transport and the REST
// surface over one HTTP listener.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"rlmengine/internal/admission"
	"rlmengine/internal/adminstore"
	"rlmengine/internal/chunkstore"
	"rlmengine/internal/config"
	"rlmengine/internal/engine"
	"rlmengine/internal/indexjob"
	"rlmengine/internal/keystore"
	"rlmengine/internal/mcptransport"
	"rlmengine/internal/memory"
	"rlmengine/internal/projectstore"
	"rlmengine/internal/ratelimit"
	"rlmengine/internal/restapi"
	"rlmengine/internal/summary"
	"rlmengine/internal/swarm"
	"rlmengine/internal/tools"
	"rlmengine/internal/webhook"
)

const (
	jobPollInterval = 5 * time.Second
	shutdownGrace   = 10 * time.Second
	connectTimeout  = 10 * time.Second
)

func main() {
	envFile := flag.String("env-file", "", "optional .env file to load before reading the environment")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		logger.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	db := mongoClient.Database(cfg.MongoDB)
	logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDB))

	pgPool, err := pgxpool.New(connectCtx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("failed to connect to Postgres", zap.Error(err))
	}
	defer pgPool.Close()
	if err := pgPool.Ping(connectCtx); err != nil {
		logger.Fatal("failed to ping Postgres", zap.Error(err))
	}
	logger.Info("connected to Postgres")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(connectCtx).Err(); err != nil {
		logger.Fatal("failed to ping Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	embedder := tools.NewEmbedder(cfg.EmbeddingProvider, cfg.EmbeddingAPIKey, cfg.EmbeddingBaseURL, 1536)
	logger.Info("embedding client configured", zap.String("provider", cfg.EmbeddingProvider))

	memoryStore, err := memory.NewStore(ctx, db, embedder)
	if err != nil {
		logger.Fatal("failed to initialize memory store", zap.Error(err))
	}
	summaryStore, err := summary.NewStore(ctx, db)
	if err != nil {
		logger.Fatal("failed to initialize summary store", zap.Error(err))
	}
	claimStore, err := swarm.NewClaimStore(ctx, db)
	if err != nil {
		logger.Fatal("failed to initialize swarm claim store", zap.Error(err))
	}
	stateStore, err := swarm.NewStateStore(ctx, db)
	if err != nil {
		logger.Fatal("failed to initialize swarm state store", zap.Error(err))
	}
	taskStore, err := swarm.NewTaskStore(ctx, db)
	if err != nil {
		logger.Fatal("failed to initialize swarm task store", zap.Error(err))
	}
	jobStore, err := indexjob.NewStore(ctx, db)
	if err != nil {
		logger.Fatal("failed to initialize index job store", zap.Error(err))
	}
	adminStore, err := adminstore.NewStore(ctx, db)
	if err != nil {
		logger.Fatal("failed to initialize integrator admin store", zap.Error(err))
	}
	logger.Info("storage layers initialized")

	chunkStore := chunkstore.NewStore(pgPool)
	if err := chunkStore.EnsureSchema(ctx, embedder.Dimensions()); err != nil {
		logger.Fatal("failed to initialize chunk store schema", zap.Error(err))
	}
	keyStore := keystore.NewStore(db)
	projectStore := projectstore.NewStore(db, cfg.UploadRoot)

	monthlyUsage := ratelimit.NewMonthlyUsage(redisClient)
	pipeline := &admission.Pipeline{
		Keys:        keyStore,
		Teams:       keyStore,
		Integrators: adminStore,
		Limiter:     ratelimit.New(redisClient, cfg.RateLimitWindow),
		Usage:       monthlyUsage,
	}
	admitter := &tools.Admitter{Pipeline: pipeline, Projects: projectStore}

	contextQueryHandler := &tools.ContextQueryHandler{Embedder: embedder, Chunks: chunkStore}
	crossProjectHandler := &tools.CrossProjectHandler{Embedder: embedder, Chunks: chunkStore, Projects: projectStore}
	handlers := []engine.Handler{
		&tools.RememberHandler{Store: memoryStore},
		&tools.RecallHandler{Store: memoryStore},
		&tools.MemoriesHandler{Store: memoryStore},
		&tools.ForgetHandler{Store: memoryStore},
		&tools.SearchHandler{Embedder: embedder, Chunks: chunkStore},
		contextQueryHandler,
		&tools.GetChunkHandler{Chunks: chunkStore},
		&tools.SummarizeHandler{Store: summaryStore},
		&tools.GetSummaryHandler{Store: summaryStore},
		&tools.SwarmClaimHandler{Claims: claimStore},
		&tools.SwarmReleaseHandler{Claims: claimStore},
		&tools.SwarmStateGetHandler{State: stateStore},
		&tools.SwarmStateSetHandler{State: stateStore},
		&tools.SwarmTaskCreateHandler{Tasks: taskStore},
		&tools.SwarmTaskClaimHandler{Tasks: taskStore},
		&tools.SwarmTaskCompleteHandler{Tasks: taskStore},
		&tools.ReindexHandler{Jobs: jobStore},
		crossProjectHandler,
	}
	usageLogger := engine.NewUsageLogger(db)
	dispatcher := engine.NewDispatcher(handlers, usageLogger, memoryStore)
	logger.Info("dispatcher built", zap.Int("tool_count", len(handlers)))

	mcpServer := mcptransport.NewServer(dispatcher, "rlmengine", "1.0.0")

	deliverer := webhook.NewDeliverer(logger)
	adminHandler := restapi.NewAdminHandler(adminStore, deliverer, logger)

	reindexProvider := &tools.ReindexProvider{Jobs: jobStore}
	limitsProvider := &tools.LimitsProvider{Usage: monthlyUsage}
	statsProvider := &tools.StatsProvider{Memory: memoryStore, Summary: summaryStore}
	contextProvider := &tools.ContextProvider{Handler: contextQueryHandler}

	router := restapi.NewRouter(dispatcher, mcpServer, adminHandler).
		WithProviders(limitsProvider, statsProvider, reindexProvider, contextProvider).
		WithAdmitter(admitter)

	worker := indexjob.NewWorker(jobStore, chunkStore, embedder, "rlmserver-worker", logger)
	worker.Start(ctx, projectStore, jobPollInterval)
	logger.Info("index job worker started", zap.Duration("poll_interval", jobPollInterval))

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during http server shutdown", zap.Error(err))
	}
	logger.Info("server shutdown complete")
}
