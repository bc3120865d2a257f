package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type StorageConfig struct {
	Dir string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	LLM     LLMConfig     `toml:"llm"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		LLM:     LLMConfig{Provider: "openai"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// DefaultPath is ~/.tax_copilot/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".tax_copilot", "config.toml"), nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads the config file when it exists and falls back to
// defaults when it doesn't. Either way the environment overlay is applied.
func LoadOrDefault(path string) (*Config, error) {
	var cfg *Config
	if _, err := os.Stat(path); err == nil {
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = Default()
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overlays environment variables onto the config. API keys are
// intentionally not read here: the llm factory resolves the provider's own
// key variable (ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY).
func (c *Config) ApplyEnv() {
	if v := os.Getenv("DEFAULT_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("DEFAULT_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" && c.LLM.BaseURL == "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("TAX_COPILOT_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}
