package llm

import (
	"fmt"
	"strings"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Options selects and configures a concrete backend.
type Options struct {
	// Client is the serving shape: openai, openrouter, local, qiskit,
	// or claude.
	Client  string
	APIKey  string
	BaseURL string
	Model   string
	// Effort is the reasoning effort level for backends that support it
	// (minimal, low, medium, high). Empty disables reasoning mode.
	Effort string
}

// New builds the backend for the given options.
func New(opts Options) (Backend, error) {
	client := strings.ToLower(strings.TrimSpace(opts.Client))

	switch client {
	case "openai":
		return NewChatBackend("openai", opts.APIKey, opts.BaseURL, opts.Model, opts.Effort), nil
	case "openrouter":
		base := strings.TrimSpace(opts.BaseURL)
		if base == "" {
			base = openRouterBaseURL
		}
		return NewChatBackend("openrouter", opts.APIKey, base, opts.Model, opts.Effort), nil
	case "local":
		base := strings.TrimSpace(opts.BaseURL)
		if base == "" {
			return nil, fmt.Errorf("llm: local client requires a base URL")
		}
		if !strings.HasSuffix(base, "/v1") {
			base = strings.TrimRight(base, "/") + "/v1"
		}
		return NewChatBackend("local", opts.APIKey, base, opts.Model, opts.Effort), nil
	case "qiskit":
		return NewLegacyBackend("qiskit", opts.APIKey, opts.BaseURL, opts.Model), nil
	case "claude", "anthropic":
		return NewClaudeBackend(opts.APIKey, opts.BaseURL, opts.Model), nil
	case "":
		return nil, fmt.Errorf("llm: missing client type")
	default:
		return nil, fmt.Errorf("llm: unknown client type %q (expected openai|openrouter|local|qiskit|claude)", opts.Client)
	}
}
