package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type LLMConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type EmbedderConfig struct {
	BaseURL   string  `yaml:"base_url"`
	Model     string  `yaml:"model"`
	RateLimit float64 `yaml:"rate_limit"`
	Dimension int     `yaml:"dimension"`
}

type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	MinChunkSize int `yaml:"min_chunk_size"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

type SessionConfig struct {
	OnDuplicate        string `yaml:"on_duplicate"` // reject or replace
	SummaryChunks      int    `yaml:"summary_chunks_per_doc"`
	SummaryCharBudget  int    `yaml:"summary_char_budget"`
	SectionWords       int    `yaml:"section_words"`
	ContextCharBudget  int    `yaml:"context_char_budget"`
	CheckpointOnChange bool   `yaml:"checkpoint_on_change"`
}

type IntentConfig struct {
	ReadThreshold   float64 `yaml:"read_threshold"`
	DeleteThreshold float64 `yaml:"delete_threshold"`
	AmbiguityMargin float64 `yaml:"ambiguity_margin"`
}

type DatabaseConfig struct {
	URL       string `yaml:"url"`
	TableName string `yaml:"table_name"`
	BatchSize int    `yaml:"batch_size"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Session   SessionConfig   `yaml:"session"`
	Intent    IntentConfig    `yaml:"intent"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/voxdoc/config.yaml"),
			"/etc/voxdoc/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.TimeoutSeconds == 0 {
		config.LLM.TimeoutSeconds = 60
	}

	if config.Embedder.Model == "" {
		config.Embedder.Model = "nomic-embed-text:latest"
	}
	if config.Embedder.BaseURL == "" {
		config.Embedder.BaseURL = config.LLM.BaseURL
	}
	if config.Embedder.RateLimit == 0 {
		config.Embedder.RateLimit = 4.0
	}
	if config.Embedder.Dimension == 0 {
		config.Embedder.Dimension = 768
	}

	if config.Chunker.ChunkSize == 0 {
		config.Chunker.ChunkSize = 1000
	}
	if config.Chunker.ChunkOverlap == 0 {
		config.Chunker.ChunkOverlap = 200
	}
	if config.Chunker.MinChunkSize == 0 {
		config.Chunker.MinChunkSize = 100
	}

	if config.Retrieval.TopK == 0 {
		config.Retrieval.TopK = 5
	}

	if config.Session.OnDuplicate == "" {
		config.Session.OnDuplicate = "reject"
	}
	if config.Session.SummaryChunks == 0 {
		config.Session.SummaryChunks = 3
	}
	if config.Session.SummaryCharBudget == 0 {
		config.Session.SummaryCharBudget = 10000
	}
	if config.Session.SectionWords == 0 {
		config.Session.SectionWords = 600
	}
	if config.Session.ContextCharBudget == 0 {
		config.Session.ContextCharBudget = 8000
	}

	if config.Intent.ReadThreshold == 0 {
		config.Intent.ReadThreshold = 0.50
	}
	if config.Intent.DeleteThreshold == 0 {
		config.Intent.DeleteThreshold = 0.65
	}
	if config.Intent.AmbiguityMargin == 0 {
		config.Intent.AmbiguityMargin = 0.10
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "voxdoc"
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "console"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
		config.Embedder.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
}
