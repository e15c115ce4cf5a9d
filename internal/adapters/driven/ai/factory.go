// Package ai selects and builds the configured embedding and LLM
// providers behind the core's service ports.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/vigil-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/vigil-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/vigil-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/vigil-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/vigil-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Provider names accepted in configuration.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// EmbeddingConfig selects and configures an embedding provider.
type EmbeddingConfig struct {
	// Provider is the embedding backend: ollama (default) or openai.
	Provider string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Model is the embedding model name; empty uses the provider default.
	Model string

	// Dimensions is the vector size the model produces; empty uses the
	// provider default. Stored versions embedded at a different size are
	// skipped during comparison, so this should only change together
	// with the model.
	Dimensions int

	// APIKey authenticates hosted providers.
	APIKey string
}

// LLMConfig selects and configures a text generation provider.
type LLMConfig struct {
	// Provider is the LLM backend: anthropic (default), ollama, or openai.
	Provider string

	// APIKey authenticates hosted providers.
	APIKey string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Model is the generation model name; empty uses the provider default.
	Model string
}

// CreateEmbeddingService builds the configured embedding provider.
// No connectivity check is made: the embedder is only exercised by
// ingestion, and commands that never embed must work offline.
func CreateEmbeddingService(cfg EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "", ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil

	case ProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return svc, nil

	case ProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not serve embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// CreateLLMService builds the configured text generation provider.
func CreateLLMService(cfg LLMConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case "", ProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		return svc, nil

	case ProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil

	case ProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// CreateAndValidateLLMService builds the configured provider and
// verifies it is reachable before handing it out. The LLM is an opt-in
// enrichment whose failures would otherwise surface only as quietly
// degraded change summaries, so a broken configuration is rejected here.
func CreateAndValidateLLMService(cfg LLMConfig) (driven.LLMService, error) {
	svc, err := CreateLLMService(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable: %w", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}
