package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const claudeMaxTokens = 4096

// ClaudeBackend talks to the Anthropic messages API.
type ClaudeBackend struct {
	client *anthropic.Client
	model  string
}

func NewClaudeBackend(apiKey, baseURL, model string) *ClaudeBackend {
	opts := make([]option.RequestOption, 0, 3)
	if v := strings.TrimSpace(apiKey); v != "" {
		opts = append(opts, option.WithAPIKey(v))
	}
	if v := strings.TrimSpace(baseURL); v != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(v, "/")))
	}
	// Retries are owned by the harness retry policy, not the SDK.
	opts = append(opts, option.WithMaxRetries(0))

	client := anthropic.NewClient(opts...)
	return &ClaudeBackend{
		client: &client,
		model:  strings.TrimSpace(model),
	}
}

func (b *ClaudeBackend) Name() string { return "claude" }

func (b *ClaudeBackend) Answer(ctx context.Context, prompt string) (*Completion, error) {
	if b == nil || b.client == nil {
		return nil, errors.New("llm: claude: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: claude: nil context")
	}

	msg, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: claudeMaxTokens,
		System: []anthropic.TextBlockParam{{
			Text: SystemPrompt,
			Type: "text",
		}},
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(prompt),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("llm: claude: %w", err)
	}
	if msg == nil {
		return nil, errors.New("llm: claude: nil response")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	return &Completion{
		Text: sb.String(),
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CachedTokens:     int(msg.Usage.CacheReadInputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
		},
		Raw: json.RawMessage(msg.RawJSON()),
	}, nil
}
