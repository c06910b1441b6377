package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Lakshya-akoode/my-cn-bot/internal/api/router"
	"github.com/Lakshya-akoode/my-cn-bot/internal/booking"
	appconfig "github.com/Lakshya-akoode/my-cn-bot/internal/config"
	"github.com/Lakshya-akoode/my-cn-bot/internal/conversation"
	"github.com/Lakshya-akoode/my-cn-bot/internal/observability/metrics"
	"github.com/Lakshya-akoode/my-cn-bot/internal/records"
	"github.com/Lakshya-akoode/my-cn-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.GeminiAPIKey == "" {
		logger.Error("GEMINI_API_KEY or GOOGLE_API_KEY must be set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gemini, err := conversation.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbeddingModel, cfg.LLMTimeout)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer gemini.Close()

	// Knowledge chunks come from Redis when configured, otherwise from the
	// local chunks file written by cmd/ingest.
	var knowledgeRepo conversation.KnowledgeRepository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		knowledgeRepo = conversation.NewRedisKnowledgeRepository(rdb)
	} else {
		knowledgeRepo = conversation.NewFileKnowledgeRepository(cfg.ChunksFile)
	}

	docs, err := knowledgeRepo.GetDocuments(ctx, cfg.ClinicID)
	if err != nil {
		logger.Error("failed to load knowledge base", "error", err)
		os.Exit(1)
	}
	if len(docs) == 0 {
		// No ingested chunks yet; chunk the raw site text directly.
		raw, rerr := os.ReadFile(cfg.SiteFile)
		if rerr != nil {
			logger.Error("no knowledge chunks and no site file to chunk",
				"site_file", cfg.SiteFile, "error", rerr)
			os.Exit(1)
		}
		docs = conversation.SplitText(string(raw), conversation.DefaultChunkSize, conversation.DefaultChunkOverlap)
		logger.Info("chunked site text at startup", "chunks", len(docs))
	}

	index := conversation.NewMemoryIndex(gemini, logger)
	if err := index.AddDocuments(ctx, cfg.ClinicID, docs); err != nil {
		logger.Error("failed to index knowledge base", "error", err)
		os.Exit(1)
	}

	chatMetrics := metrics.NewChatMetrics(prometheus.DefaultRegisterer)

	sink := records.NewStore(cfg.AppointmentsFile, cfg.CancellationsFile, logger, chatMetrics)
	extractor := conversation.NewExtractor(gemini, logger)
	classifier := conversation.NewClassifier(gemini, logger)
	machine := booking.NewMachine(extractor, classifier, sink, logger)

	sessions := booking.NewMemoryStore(logger)
	sessions.StartJanitor(ctx, cfg.SessionTTL, cfg.SessionSweepInterval)

	oracle := conversation.NewOracle(index, gemini, cfg.ClinicID, cfg.RetrievalTopK, logger)
	merger := conversation.NewMerger(rand.New(rand.NewSource(time.Now().UnixNano())))
	chatService := conversation.NewChatService(sessions, machine, oracle, merger, cfg.HistoryLimit, chatMetrics, logger)
	chatHandler := conversation.NewHandler(chatService, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
