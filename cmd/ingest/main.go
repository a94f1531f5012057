package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/app"
	"github.com/Arthursca/multi-agent-medico/internal/config"
	"github.com/Arthursca/multi-agent-medico/internal/ingest"
	"github.com/Arthursca/multi-agent-medico/internal/ingest/chunker"
	"github.com/Arthursca/multi-agent-medico/internal/ingest/cleaner"
	"github.com/Arthursca/multi-agent-medico/internal/ingest/loader"
	"github.com/Arthursca/multi-agent-medico/internal/ingest/pdfextract"
	logpkg "github.com/Arthursca/multi-agent-medico/internal/logger"
	"github.com/Arthursca/multi-agent-medico/internal/metrics"
	"github.com/Arthursca/multi-agent-medico/internal/version"
)

func main() {
	dataDir := flag.String("data-dir", "", "directory to ingest (overrides config)")
	flag.Parse()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if *dataDir != "" {
		cfg.Ingestion.DataDir = *dataDir
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ingestion",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("data_dir", cfg.Ingestion.DataDir),
		zap.Int("chunk_size", cfg.Ingestion.ChunkSize),
		zap.Int("chunk_overlap", *cfg.Ingestion.ChunkOverlap),
	)

	metrics.RegisterPipelineMetrics()

	ctx := context.Background()
	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open vector store", zap.Error(err))
	}
	defer store.Close()

	embedder, closeCache, err := app.BuildEmbedder(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build embedder", zap.Error(err))
	}
	defer closeCache()

	ch, err := chunker.New(cfg.Ingestion.ChunkSize, *cfg.Ingestion.ChunkOverlap, logger)
	if err != nil {
		logger.Fatal("Invalid chunking settings", zap.Error(err))
	}

	runner := ingest.New(
		loader.New(logger),
		pdfextract.New(logger),
		cleaner.New(logger),
		ch,
		embedder,
		store,
		logger,
	)

	sum, err := runner.Run(ctx, cfg.Ingestion.DataDir)
	if err != nil {
		logger.Error("Ingestion failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Ingestion completed",
		zap.Int("files", sum.FilesLoaded),
		zap.Int("chunks_stored", sum.ChunksStored),
		zap.Int("chunks_skipped", sum.ChunksSkipped),
	)
}
