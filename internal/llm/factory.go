// Package llm builds chat and embedding providers from configuration.
package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/config"
	"github.com/Arthursca/multi-agent-medico/internal/domain"
	embopenai "github.com/Arthursca/multi-agent-medico/internal/embedding/openai"
	chatopenai "github.com/Arthursca/multi-agent-medico/internal/llm/openai"
)

// NewChatModel returns the chat model for the configured provider.
func NewChatModel(cfg config.LLMConfig, logger *zap.Logger) (domain.ChatModel, error) {
	switch cfg.Provider {
	case "openai":
		return chatopenai.New(chatopenai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temp,
			Logger:      logger,
		}), nil
	default:
		return nil, fmt.Errorf("%w: chat provider %q", domain.ErrProviderNotImplemented, cfg.Provider)
	}
}

// NewEmbedder returns the embedding provider for the configured
// provider. The result is the raw transport, without retry or cache
// decorators.
func NewEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (domain.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return embopenai.NewEmbedder(&embopenai.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Logger:     logger,
		}), nil
	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrProviderNotImplemented, cfg.Provider)
	}
}
