package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/doc2dev/doc2dev/internal/config"
	"github.com/doc2dev/doc2dev/internal/metrics"
)

// Model wraps a langchaingo LLM for summarizing search results.
type Model struct {
	llm       llms.Model
	modelName string
	metrics   *metrics.Collector
}

// NewModel creates an LLM model based on configuration. The collector may
// be nil.
func NewModel(cfg config.Config, mc *metrics.Collector) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
		metrics:   mc,
	}, nil
}

// GenerateWithSystem generates text with a system prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, messages)
	if m.metrics != nil {
		m.metrics.RecordTiming(metrics.OpLLMSummarize, time.Since(start))
	}
	if err != nil {
		return "", fmt.Errorf("generate with system: %w", wrapFatalError(err))
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return response.Choices[0].Content, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

const summarizeSystemPrompt = `You are a documentation assistant. Given a user's question and excerpts from a project's documentation, distill the excerpts into the snippets most relevant to the question.

For each relevant snippet output:

TITLE: short descriptive title
DESCRIPTION: one or two sentences on what it covers
SOURCE: the source file of the excerpt
LANGUAGE: language of the code block, or "text" if none
CODE:
` + "```" + `
the relevant code or commands, verbatim from the excerpts
` + "```" + `

Use ONLY the provided excerpts. If nothing is relevant, say so briefly. Never invent code that does not appear in the excerpts.`

// SummarizeResults condenses search hits into query-focused snippets.
func (m *Model) SummarizeResults(ctx context.Context, query string, results []SearchHit) (string, error) {
	var b strings.Builder
	for i, hit := range results {
		fmt.Fprintf(&b, "--- Excerpt %d (source: %s", i+1, hit.Source)
		if hit.HeadingPath != "" {
			fmt.Fprintf(&b, ", section: %s", hit.HeadingPath)
		}
		b.WriteString(") ---\n")
		b.WriteString(hit.Content)
		b.WriteString("\n\n")
	}

	userPrompt := fmt.Sprintf("Question: %s\n\nDocumentation excerpts:\n\n%s", query, b.String())
	return m.GenerateWithSystem(ctx, summarizeSystemPrompt, userPrompt)
}

// SearchHit is one retrieved document excerpt handed to the summarizer.
type SearchHit struct {
	Content     string
	Source      string
	HeadingPath string
}
