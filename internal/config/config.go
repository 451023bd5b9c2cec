package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Dataset    DatasetConfig    `yaml:"dataset"`
	Output     OutputConfig     `yaml:"output"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
}

type LLMConfig struct {
	DefaultBackend string                   `yaml:"default_backend,omitempty"`
	Backends       map[string]BackendConfig `yaml:"backends,omitempty"`
}

type BackendConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
	Effort  string `yaml:"effort,omitempty"`
}

type EvaluationConfig struct {
	Workers    int           `yaml:"workers,omitempty"`
	Seed       int64         `yaml:"seed"`
	Prompt     string        `yaml:"prompt,omitempty"`
	MaxRetries int           `yaml:"max_retries,omitempty"`
	RetryDelay time.Duration `yaml:"retry_delay,omitempty"`
}

type DatasetConfig struct {
	Questions  string `yaml:"questions,omitempty"`
	Categories string `yaml:"categories,omitempty"`
	HumanEval  string `yaml:"human_eval,omitempty"`
	Problem    string `yaml:"problem,omitempty"`
}

type OutputConfig struct {
	Dir      string `yaml:"dir,omitempty"`
	CacheDir string `yaml:"cache_dir,omitempty"`
}

type StorageConfig struct {
	Type string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Default is the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		LLM: LLMConfig{
			DefaultBackend: "openai",
			Backends:       make(map[string]BackendConfig),
		},
		Evaluation: EvaluationConfig{
			Workers:    5,
			Prompt:     "zeroshot",
			MaxRetries: 3,
			RetryDelay: 2 * time.Second,
		},
		Dataset: DatasetConfig{
			Questions:  "quantumbench/dataset.csv",
			Categories: "quantumbench/category.csv",
			HumanEval:  "quantumbench/human-evaluation.csv",
			Problem:    "quantumbench",
		},
		Output: OutputConfig{
			Dir:      "outputs",
			CacheDir: "cache",
		},
		Storage: StorageConfig{
			Type: "sqlite",
			Path: "data/qbench.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
	applyEnv(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	if cfg.LLM.Backends == nil {
		cfg.LLM.Backends = make(map[string]BackendConfig)
	}
	if strings.TrimSpace(cfg.LLM.DefaultBackend) == "" {
		cfg.LLM.DefaultBackend = "openai"
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv lets API keys from the environment win over the file, so that
// keys never have to live in a checked-in config.
func applyEnv(cfg *Config) {
	setKey := func(backend, value string) {
		if v := strings.TrimSpace(value); v != "" {
			b := cfg.LLM.Backends[backend]
			b.APIKey = v
			cfg.LLM.Backends[backend] = b
		}
	}

	setKey("openai", os.Getenv("OPENAI_API_KEY"))
	setKey("openrouter", os.Getenv("OPENROUTER_API_KEY"))
	setKey("qiskit", os.Getenv("QISKIT_API_KEY"))

	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		setKey("claude", v)
	} else {
		setKey("claude", os.Getenv("ANTHROPIC_AUTH_TOKEN"))
	}
}
