package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/voxdoc/voxdoc/internal/models"
)

// ChatConfig configures the answer synthesizer.
type ChatConfig struct {
	Model             string
	BaseURL           string
	MaxTokens         int
	Temperature       float64
	Timeout           time.Duration
	SystemTemplate    string
	ContextCharBudget int
}

// ChatEngine assembles bounded prompts from retrieved chunks and
// delegates to the language model. External failures and timeouts come
// back as SynthesisUnavailable so the session can speak a fallback and
// carry on.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a ChatEngine backed by an Ollama model.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	model, err := ollama.New(
		ollama.WithModel(defaultModel(config.Model)),
		ollama.WithServerURL(defaultBaseURL(config.BaseURL)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return NewWithModel(model, config), nil
}

// NewWithModel wires an explicit model, which keeps the synthesizer
// testable with deterministic fakes.
func NewWithModel(model llms.Model, config ChatConfig) *ChatEngine {
	config.Model = defaultModel(config.Model)
	config.BaseURL = defaultBaseURL(config.BaseURL)
	if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.Temperature <= 0 || config.Temperature > 1 {
		config.Temperature = 0.7
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You are a voice reading assistant. Answer using only the provided document excerpts, and say so when they do not contain the answer. Keep answers short enough to be spoken aloud."
	}
	if config.ContextCharBudget == 0 {
		config.ContextCharBudget = 8000
	}
	return &ChatEngine{config: config, llm: model}
}

// Answer produces a grounded answer to the question from the retrieved
// chunks. Chunks are already ranked; lower-ranked ones are dropped when
// the context budget fills up.
func (ce *ChatEngine) Answer(ctx context.Context, question string, chunks []models.RetrievedChunk) (string, error) {
	var contextBuilder strings.Builder
	for _, chunk := range chunks {
		excerpt := fmt.Sprintf("Source: %s\n%s\n\n", chunk.DocName, chunk.Text)
		if contextBuilder.Len()+len(excerpt) > ce.config.ContextCharBudget {
			break
		}
		contextBuilder.WriteString(excerpt)
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ce.config.SystemTemplate),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf("Relevant excerpts:\n%s\nQuestion: %s", contextBuilder.String(), question)),
	}
	return ce.generate(ctx, content)
}

// Summarize condenses per-document samples into one spoken summary. The
// samples arrive in registry order so every loaded document contributes
// regardless of embedding similarity.
func (ce *ChatEngine) Summarize(ctx context.Context, samples []models.SummarySample, granularity models.Granularity) (string, error) {
	instruction := "Summarize the following material in three or four spoken sentences."
	if granularity == models.SummaryDetailed {
		instruction = "Write a thorough summary of the following material, covering each document in turn."
	}

	var promptBuilder strings.Builder
	promptBuilder.WriteString(instruction)
	promptBuilder.WriteString("\n\n")
	for _, s := range samples {
		sample := fmt.Sprintf("Document: %s\n%s\n\n", s.DocName, s.Text)
		if promptBuilder.Len()+len(sample) > ce.config.ContextCharBudget {
			break
		}
		promptBuilder.WriteString(sample)
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ce.config.SystemTemplate),
		llms.TextParts(llms.ChatMessageTypeHuman, promptBuilder.String()),
	}
	return ce.generate(ctx, content)
}

func (ce *ChatEngine) generate(ctx context.Context, content []llms.MessageContent) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ce.config.Timeout)
	defer cancel()

	resp, err := ce.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(ce.config.MaxTokens),
		llms.WithTemperature(ce.config.Temperature),
	)
	if err != nil {
		return "", &models.SynthesisUnavailable{Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", &models.SynthesisUnavailable{Err: fmt.Errorf("empty response from model %s", ce.config.Model)}
	}
	return resp.Choices[0].Content, nil
}

func defaultModel(model string) string {
	if model == "" {
		return "mistral"
	}
	return model
}

func defaultBaseURL(baseURL string) string {
	if baseURL == "" {
		return "http://localhost:11434"
	}
	return baseURL
}
