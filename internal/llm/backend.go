// Package llm adapts heterogeneous model-serving APIs behind a single
// "answer a prompt" capability. The evaluation engine never sees backend
// shapes; it sees text, token usage, and an opaque raw response to cache.
package llm

import (
	"context"
	"encoding/json"
)

// SystemPrompt is sent with every request, on whichever channel the
// backend supports (system message, system block, or prompt prefix).
const SystemPrompt = "You are a very intelligent assistant, who follows instructions directly."

// Usage is the token accounting for one completed call.
type Usage struct {
	PromptTokens     int `json:"input_tokens"`
	CachedTokens     int `json:"cached_tokens"`
	CompletionTokens int `json:"output_tokens"`
}

// Add returns the element-wise sum of two usages. Reasoning-mode runs sum
// the usage of both turns.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CachedTokens:     u.CachedTokens + other.CachedTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
	}
}

// Completion is the outcome of one backend call.
type Completion struct {
	Text  string
	Usage Usage
	// Raw is the provider response as returned, kept only for the
	// per-item cache artifact.
	Raw json.RawMessage
}

// Backend answers a single prompt. Implementations must surface failures
// as errors whose text allows the retry classification (status codes or
// the provider's wording preserved).
type Backend interface {
	Name() string
	Answer(ctx context.Context, prompt string) (*Completion, error)
}
