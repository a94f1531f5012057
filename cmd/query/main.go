package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Arthursca/multi-agent-medico/internal/app"
	"github.com/Arthursca/multi-agent-medico/internal/config"
	"github.com/Arthursca/multi-agent-medico/internal/llm"
	logpkg "github.com/Arthursca/multi-agent-medico/internal/logger"
	"github.com/Arthursca/multi-agent-medico/internal/metrics"
	"github.com/Arthursca/multi-agent-medico/internal/rag"
)

func main() {
	query := flag.String("q", "", "question to ask")
	k := flag.Int("k", config.DefaultTopK, "number of chunks to retrieve")
	flag.Parse()

	if *query == "" {
		fmt.Fprintln(os.Stderr, "usage: query -q \"pergunta\" [-k N]")
		os.Exit(2)
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterPipelineMetrics()

	ctx := context.Background()
	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open vector store:", err)
		os.Exit(1)
	}
	defer store.Close()

	embedder, closeCache, err := app.BuildEmbedder(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build embedder:", err)
		os.Exit(1)
	}
	defer closeCache()

	chat, err := llm.NewChatModel(cfg.LLM, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build chat model:", err)
		os.Exit(1)
	}

	pipeline := rag.New(chat, embedder, store, config.DefaultTopK, logger)
	result := pipeline.Run(ctx, *query, *k)

	fmt.Println(result.Response)
}
