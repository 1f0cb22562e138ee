package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  base_url: "http://localhost:11434"
  model: "llama3"
  max_tokens: 1000
  temperature: 0.5

embedder:
  model: "nomic-embed-text:latest"
  dimension: 768
  rate_limit: 2.5

chunker:
  chunk_size: 500
  chunk_overlap: 100

session:
  on_duplicate: "replace"
  section_words: 400

intent:
  read_threshold: 0.55
  delete_threshold: 0.7
  ambiguity_margin: 0.15

database:
  url: "postgres://localhost:5432/test"
  table_name: "test_docs"
  batch_size: 50
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "llama3", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, 768, config.Embedder.Dimension)
	assert.Equal(t, 500, config.Chunker.ChunkSize)
	assert.Equal(t, "replace", config.Session.OnDuplicate)
	assert.Equal(t, 400, config.Session.SectionWords)
	assert.Equal(t, 0.55, config.Intent.ReadThreshold)
	assert.Equal(t, 0.7, config.Intent.DeleteThreshold)
	assert.Equal(t, "postgres://localhost:5432/test", config.Database.URL)
	assert.Equal(t, 50, config.Database.BatchSize)
}

func TestLoadConfigDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  model: mistral\n"), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, 2000, config.LLM.MaxTokens)
	assert.Equal(t, 1000, config.Chunker.ChunkSize)
	assert.Equal(t, "reject", config.Session.OnDuplicate)
	assert.Equal(t, 600, config.Session.SectionWords)
	assert.Equal(t, 0.50, config.Intent.ReadThreshold)
	assert.Equal(t, 0.65, config.Intent.DeleteThreshold)
	assert.Equal(t, 0.10, config.Intent.AmbiguityMargin)
	assert.Equal(t, 5, config.Retrieval.TopK)
	assert.Equal(t, "8080", config.Server.Port)
}

func TestConfigValidation(t *testing.T) {
	valid, err := getDefaultConfig()
	require.NoError(t, err)
	assert.Empty(t, valid.Validate())

	invalid, err := getDefaultConfig()
	require.NoError(t, err)
	invalid.LLM.MaxTokens = 5000
	invalid.LLM.Temperature = 3.0
	invalid.Session.OnDuplicate = "maybe"
	invalid.Intent.ReadThreshold = 0.8
	invalid.Intent.DeleteThreshold = 0.6

	errs := invalid.Validate()
	require.Len(t, errs, 4)

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Error())
	}
	assert.Contains(t, messages[0], "max_tokens must be between 1 and 4096")
	assert.Contains(t, messages[1], "temperature must be between 0 and 2")
	assert.Contains(t, messages[2], "on_duplicate must be reject or replace")
	assert.Contains(t, messages[3], "delete_threshold must not be below read_threshold")
}

func TestEnvironmentOverrides(t *testing.T) {
	os.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	os.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	defer func() {
		os.Unsetenv("OLLAMA_BASE_URL")
		os.Unsetenv("DATABASE_URL")
	}()

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "http://env-ollama:11434", config.Embedder.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/test", config.Database.URL)
}
