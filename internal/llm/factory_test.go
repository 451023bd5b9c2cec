package llm

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		client string
		opts   Options
		want   string
		ok     bool
	}{
		{client: "openai", opts: Options{Client: "openai", Model: "gpt-5"}, want: "openai", ok: true},
		{client: "openrouter", opts: Options{Client: "openrouter", Model: "meta/llama-3"}, want: "openrouter", ok: true},
		{client: "local", opts: Options{Client: "local", BaseURL: "http://127.0.0.1:8000", Model: "qwen"}, want: "local", ok: true},
		{client: "local no url", opts: Options{Client: "local", Model: "qwen"}, ok: false},
		{client: "qiskit", opts: Options{Client: "qiskit", BaseURL: "https://qca.example.com/v1", Model: "granite"}, want: "qiskit", ok: true},
		{client: "claude", opts: Options{Client: "claude", Model: "claude-sonnet-4-5"}, want: "claude", ok: true},
		{client: "anthropic alias", opts: Options{Client: "Anthropic", Model: "claude-sonnet-4-5"}, want: "claude", ok: true},
		{client: "unknown", opts: Options{Client: "cohere"}, ok: false},
		{client: "empty", opts: Options{}, ok: false},
	}

	for _, tc := range tests {
		b, err := New(tc.opts)
		if tc.ok && err != nil {
			t.Fatalf("%s: New: %v", tc.client, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%s: expected error", tc.client)
			}
			continue
		}
		if got := b.Name(); got != tc.want {
			t.Fatalf("%s: Name: got %q want %q", tc.client, got, tc.want)
		}
	}
}

func TestUsageAdd(t *testing.T) {
	a := Usage{PromptTokens: 10, CachedTokens: 2, CompletionTokens: 5}
	b := Usage{PromptTokens: 7, CachedTokens: 1, CompletionTokens: 3}

	got := a.Add(b)
	want := Usage{PromptTokens: 17, CachedTokens: 3, CompletionTokens: 8}
	if got != want {
		t.Fatalf("Add: got %+v want %+v", got, want)
	}
}
