// Package config loads docq configuration from a TOML file with
// API keys supplied through the environment. The resulting Config is
// an explicit value passed into services at construction; there is no
// process-wide mutable configuration state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Supported providers.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
)

// DefaultSystemPrompt frames the assistant for institutional document QA.
const DefaultSystemPrompt = "You are a helpful assistant for institutional documents. " +
	"Answer questions based on the provided context passages from uploaded documents. " +
	"If the information is not in the context, say so clearly."

// Config is the full application configuration.
type Config struct {
	// DataDir holds the persistent index (default ~/.docq/data).
	DataDir string `toml:"data_dir"`

	Chunking  Chunking  `toml:"chunking"`
	Retrieval Retrieval `toml:"retrieval"`
	Limits    Limits    `toml:"limits"`
	Embedding Embedding `toml:"embedding"`
	LLM       LLM       `toml:"llm"`
}

// Chunking controls how document text is split.
type Chunking struct {
	// Size is the maximum chunk length in characters.
	Size int `toml:"size"`

	// Overlap is the shared region between consecutive chunks.
	Overlap int `toml:"overlap"`
}

// Retrieval controls query-time lookup and ingestion batching.
type Retrieval struct {
	// TopK is the number of chunks retrieved per question.
	TopK int `toml:"top_k"`

	// MinScore excludes results below this similarity.
	MinScore float64 `toml:"min_score"`

	// BatchSize is how many chunks are embedded per request.
	BatchSize int `toml:"batch_size"`

	// MaxRetries is how often a failed embedding batch is retried.
	MaxRetries int `toml:"max_retries"`

	// EmbedRate caps embedding calls per second.
	EmbedRate float64 `toml:"embed_rate"`
}

// Limits bounds the upload boundary.
type Limits struct {
	// MaxFileSizeMB is the per-file upload cap.
	MaxFileSizeMB int `toml:"max_file_size_mb"`

	// MaxBatchFiles is the per-command upload cap.
	MaxBatchFiles int `toml:"max_batch_files"`
}

// Embedding selects and configures the embedding provider.
type Embedding struct {
	// Provider is one of openai, ollama.
	Provider string `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`

	// Dimensions overrides the model's vector size.
	Dimensions int `toml:"dimensions"`

	// APIKey comes from the environment, never the config file.
	APIKey string `toml:"-"`
}

// LLM selects and configures the language model provider.
type LLM struct {
	// Provider is one of openai, openrouter, anthropic.
	Provider string `toml:"provider"`

	// Model is the chat model name.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`

	// MaxTokens caps answer length.
	MaxTokens int `toml:"max_tokens"`

	// Temperature controls randomness; 0 for factual answers.
	Temperature float64 `toml:"temperature"`

	// SystemPrompt overrides the default QA framing.
	SystemPrompt string `toml:"system_prompt"`

	// APIKey comes from the environment, never the config file.
	APIKey string `toml:"-"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Chunking: Chunking{
			Size:    1000,
			Overlap: 200,
		},
		Retrieval: Retrieval{
			TopK:       5,
			MinScore:   0,
			BatchSize:  16,
			MaxRetries: 3,
			EmbedRate:  10,
		},
		Limits: Limits{
			MaxFileSizeMB: 10,
			MaxBatchFiles: 5,
		},
		Embedding: Embedding{
			Provider: ProviderOpenAI,
			Model:    "text-embedding-3-small",
		},
		LLM: LLM{
			Provider:     ProviderOpenAI,
			Model:        "gpt-4o-mini",
			MaxTokens:    1024,
			Temperature:  0,
			SystemPrompt: DefaultSystemPrompt,
		},
	}
}

// DefaultPath returns ~/.docq/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".docq", "config.toml"), nil
}

// Load reads the config file at path, overlaying it on the defaults,
// then resolves API keys from the environment (a .env file in the
// working directory is honoured). A missing file is not an error;
// a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults apply.
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Best effort; absence of a .env file is normal.
	_ = godotenv.Load()

	cfg.Embedding.APIKey = apiKeyFor(cfg.Embedding.Provider)
	cfg.LLM.APIKey = apiKeyFor(cfg.LLM.Provider)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// apiKeyFor maps a provider to its environment variable.
func apiKeyFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderOpenRouter:
		return os.Getenv("OPENROUTER_API_KEY")
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be in [0, size), got %d", c.Chunking.Overlap)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Limits.MaxFileSizeMB <= 0 {
		return fmt.Errorf("limits.max_file_size_mb must be positive, got %d", c.Limits.MaxFileSizeMB)
	}
	if c.Limits.MaxBatchFiles <= 0 {
		return fmt.Errorf("limits.max_batch_files must be positive, got %d", c.Limits.MaxBatchFiles)
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("embedding.provider %q is not supported", c.Embedding.Provider)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderAnthropic:
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}

	return nil
}

// MaxFileSizeBytes converts the configured cap to bytes.
func (c *Config) MaxFileSizeBytes() int {
	return c.Limits.MaxFileSizeMB * 1024 * 1024
}
