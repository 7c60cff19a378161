package llm

import "fmt"

// ProviderConfig carries the provider settings resolved from process config.
type ProviderConfig struct {
	Provider       string // currently only "openai"
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
}

// NewTextGenerator creates the appropriate TextGenerator for the configured provider.
func NewTextGenerator(cfg ProviderConfig) (TextGenerator, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.ChatModel,
			BaseURL: cfg.BaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

// NewEmbeddingGenerator creates the appropriate EmbeddingGenerator for the
// configured provider.
func NewEmbeddingGenerator(cfg ProviderConfig) (EmbeddingGenerator, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIEmbeddingClient(OpenAIEmbeddingConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.EmbeddingModel,
			BaseURL: cfg.BaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}
}
