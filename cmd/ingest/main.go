// Command ingest chunks scraped site text and loads it into the knowledge
// repository the API server retrieves from.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/Lakshya-akoode/my-cn-bot/internal/config"
	"github.com/Lakshya-akoode/my-cn-bot/internal/conversation"
	"github.com/Lakshya-akoode/my-cn-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	siteFile := flag.String("site", cfg.SiteFile, "path to the scraped site text")
	chunkSize := flag.Int("chunk-size", conversation.DefaultChunkSize, "target chunk size in characters")
	chunkOverlap := flag.Int("chunk-overlap", conversation.DefaultChunkOverlap, "characters carried between chunks")
	appendDocs := flag.Bool("append", false, "append to existing chunks instead of replacing them")
	flag.Parse()

	raw, err := os.ReadFile(*siteFile)
	if err != nil {
		logger.Error("failed to read site file", "path", *siteFile, "error", err)
		os.Exit(1)
	}

	chunks := conversation.SplitText(string(raw), *chunkSize, *chunkOverlap)
	if len(chunks) == 0 {
		logger.Error("site file produced no chunks", "path", *siteFile)
		os.Exit(1)
	}

	var repo conversation.KnowledgeRepository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		repo = conversation.NewRedisKnowledgeRepository(rdb)
	} else {
		repo = conversation.NewFileKnowledgeRepository(cfg.ChunksFile)
	}

	ctx := context.Background()
	if *appendDocs {
		err = repo.AppendDocuments(ctx, cfg.ClinicID, chunks)
	} else {
		err = repo.ReplaceDocuments(ctx, cfg.ClinicID, chunks)
	}
	if err != nil {
		logger.Error("failed to store chunks", "error", err)
		os.Exit(1)
	}

	logger.Info("knowledge base updated",
		"clinic_id", cfg.ClinicID,
		"chunks", len(chunks),
		"appended", *appendDocs,
	)
}
