package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const legacyMaxTokens = 2000

// ChatBackend talks to any OpenAI-compatible chat completions endpoint
// (OpenAI itself, OpenRouter, or a self-hosted server).
type ChatBackend struct {
	client *openai.Client
	name   string
	model  string
	effort string
}

// NewChatBackend builds a chat backend. An empty baseURL targets the
// provider default. effort, when set, requests that reasoning effort and
// leaves sampling temperature to the provider; otherwise temperature 0.7
// is used.
func NewChatBackend(name, apiKey, baseURL, model, effort string) *ChatBackend {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	return &ChatBackend{
		client: openai.NewClientWithConfig(cfg),
		name:   strings.TrimSpace(name),
		model:  strings.TrimSpace(model),
		effort: strings.TrimSpace(effort),
	}
}

func (b *ChatBackend) Name() string {
	if b == nil || b.name == "" {
		return "openai"
	}
	return b.name
}

func (b *ChatBackend) Answer(ctx context.Context, prompt string) (*Completion, error) {
	if b == nil || b.client == nil {
		return nil, errors.New("llm: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: openai: nil context")
	}

	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if b.effort != "" {
		req.ReasoningEffort = b.effort
	} else {
		req.Temperature = 0.7
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm: %s: %w", b.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm: %s: empty choices", b.Name())
	}

	out := &Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
		Raw: marshalRaw(resp),
	}
	if resp.Usage.PromptTokensDetails != nil {
		out.Usage.CachedTokens = resp.Usage.PromptTokensDetails.CachedTokens
	}
	return out, nil
}

// LegacyBackend talks to an OpenAI-compatible legacy /completions endpoint
// (the Qiskit Code Assistant serving shape). The system prompt is
// prepended to the prompt text because the endpoint has no message roles.
type LegacyBackend struct {
	client *openai.Client
	name   string
	model  string
}

func NewLegacyBackend(name, apiKey, baseURL, model string) *LegacyBackend {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	return &LegacyBackend{
		client: openai.NewClientWithConfig(cfg),
		name:   strings.TrimSpace(name),
		model:  strings.TrimSpace(model),
	}
}

func (b *LegacyBackend) Name() string {
	if b == nil || b.name == "" {
		return "legacy"
	}
	return b.name
}

func (b *LegacyBackend) Answer(ctx context.Context, prompt string) (*Completion, error) {
	if b == nil || b.client == nil {
		return nil, errors.New("llm: legacy: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: legacy: nil context")
	}

	resp, err := b.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       b.model,
		Prompt:      SystemPrompt + "\n\n" + prompt,
		Temperature: 0.7,
		MaxTokens:   legacyMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: %s: %w", b.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm: %s: empty choices", b.Name())
	}

	return &Completion{
		Text: resp.Choices[0].Text,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
		Raw: marshalRaw(resp),
	}, nil
}

func marshalRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
