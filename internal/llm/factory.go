package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/agenthands/tax-copilot/internal/config"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// NewClient builds the configured provider. API keys fall back to the
// provider's environment variable when the config leaves them empty.
func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "anthropic", "claude":
		key, err := resolveKey(cfg.APIKey, "ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewClaudeClient(key, cfg.Model), nil

	case "openai":
		key, err := resolveKey(cfg.APIKey, "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewOpenAIClient(key, cfg.Model, cfg.BaseURL), nil

	case "gemini":
		key, err := resolveKey(cfg.APIKey, "GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewGeminiClient(ctx, key, cfg.Model)

	case "ollama":
		// Ollama speaks the OpenAI API; the key is ignored but required
		// by the client config.
		if cfg.Model == "" {
			return nil, fmt.Errorf("ollama provider requires a model name: set llm.model in config or DEFAULT_MODEL")
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = strings.TrimRight(baseURL, "/") + "/v1"
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, cfg.Model, baseURL), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

func resolveKey(configured, envVar string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("api key not provided: set the %s environment variable or llm.api_key in config", envVar)
}
