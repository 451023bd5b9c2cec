package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stellarlinkco/qbench/internal/llm"
)

// artifact is the per-item debugging record written next to the run. It
// holds the full final-turn prompt, the extracted response text, and
// the provider's raw response, unlike the truncated CSV cell.
type artifact struct {
	Prompt   string          `json:"prompt"`
	Response string          `json:"response"`
	Raw      json.RawMessage `json:"raw_response,omitempty"`
	Usage    llm.Usage       `json:"usage"`
}

type cache struct {
	dir string
}

// newCache prepares the artifact directory. An empty dir disables
// caching and returns a nil cache.
func newCache(dir string) (*cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create cache dir %q: %w", dir, err)
	}
	return &cache{dir: dir}, nil
}

func (c *cache) put(id int, a artifact) error {
	if c == nil {
		return nil
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("engine: marshal artifact %d: %w", id, err)
	}
	path := filepath.Join(c.dir, fmt.Sprintf("%d_response.json", id))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("engine: write artifact %q: %w", path, err)
	}
	return nil
}
