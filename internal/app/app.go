// Package app assembles the pipeline's shared dependencies for the
// binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/config"
	"github.com/Arthursca/multi-agent-medico/internal/domain"
	"github.com/Arthursca/multi-agent-medico/internal/embedding"
	"github.com/Arthursca/multi-agent-medico/internal/embedding/embcache"
	"github.com/Arthursca/multi-agent-medico/internal/llm"
	"github.com/Arthursca/multi-agent-medico/internal/vectorstore/postgres"
)

// BuildEmbedder assembles the embedder chain: provider transport ->
// retry -> cache. The cache sits outermost so a hit skips the retry
// loop entirely. The returned closer releases the Redis client, if
// one was configured.
func BuildEmbedder(cfg config.Config, logger *zap.Logger) (domain.Embedder, func(), error) {
	base, err := llm.NewEmbedder(cfg.Embedding, logger)
	if err != nil {
		return nil, nil, err
	}

	var emb domain.Embedder = embedding.New(base, embedding.DefaultPolicy(), logger)
	closer := func() {}

	if len(cfg.Cache.Addrs) > 0 {
		client, err := rueidis.NewClient(rueidis.ClientOption{
			InitAddress: cfg.Cache.Addrs,
			Password:    cfg.Cache.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to cache: %w", err)
		}
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		emb = embcache.New(emb, client, ttl, logger)
		closer = client.Close
		logger.Info("Embedding cache enabled",
			zap.Strings("addrs", cfg.Cache.Addrs),
			zap.Duration("ttl", ttl))
	}

	return emb, closer, nil
}

// OpenStore connects to the vector store and ensures its schema.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.Store, error) {
	store, err := postgres.New(ctx, postgres.Config{
		URL:       cfg.Database.URL,
		Dimension: cfg.Embedding.Dimensions,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
