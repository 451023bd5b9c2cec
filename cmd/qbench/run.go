package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/qbench/internal/config"
	"github.com/stellarlinkco/qbench/internal/dataset"
	"github.com/stellarlinkco/qbench/internal/engine"
	"github.com/stellarlinkco/qbench/internal/leaderboard"
	"github.com/stellarlinkco/qbench/internal/llm"
	"github.com/stellarlinkco/qbench/internal/prompt"
	"github.com/stellarlinkco/qbench/internal/results"
	"github.com/stellarlinkco/qbench/internal/retry"
)

type runOptions struct {
	backend    string
	model      string
	effort     string
	promptMode string
	seed       int64
	workers    int
	questions  string
	categories string
	outDir     string
	cacheDir   string
	problem    string
	noResume   bool
	noSave     bool
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark against a model and write a results CSV",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.backend, "backend", "", "backend: openai|openrouter|local|qiskit|claude (overrides config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides config)")
	cmd.Flags().StringVar(&opts.effort, "effort", "", "reasoning effort: minimal|low|medium|high")
	cmd.Flags().StringVar(&opts.promptMode, "prompt", "", "prompt mode: zeroshot|zeroshot-cot (overrides config)")
	cmd.Flags().Int64Var(&opts.seed, "seed", -1, "shuffle seed (overrides config)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent workers (0 = config)")
	cmd.Flags().StringVar(&opts.questions, "questions", "", "questions CSV path (overrides config)")
	cmd.Flags().StringVar(&opts.categories, "categories", "", "category CSV path (overrides config)")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "output directory (overrides config)")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "response cache directory (overrides config)")
	cmd.Flags().StringVar(&opts.problem, "problem-name", "", "problem name used in output file names (overrides config)")
	cmd.Flags().BoolVar(&opts.noResume, "no-resume", false, "ignore an existing results file and start fresh")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not record the run in the leaderboard")

	return cmd
}

func runBenchmark(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}
	cfg := st.cfg
	out := cmd.OutOrStdout()

	backend, modelName, backendName, err := resolveBackend(cfg, opts)
	if err != nil {
		return err
	}

	mode, err := prompt.ParseMode(orConfig(opts.promptMode, cfg.Evaluation.Prompt))
	if err != nil {
		return err
	}

	seed := opts.seed
	if seed < 0 {
		seed = cfg.Evaluation.Seed
	}

	questions := orConfig(opts.questions, cfg.Dataset.Questions)
	categories := annotationPath(opts.categories, cfg.Dataset.Categories)
	examples, err := dataset.Load(questions, categories, seed)
	if err != nil {
		return err
	}
	if len(examples) == 0 {
		return fmt.Errorf("run: no questions loaded from %q", questions)
	}
	fmt.Fprintf(out, "Loaded %d questions from %s\n", len(examples), questions)

	problem := orConfig(opts.problem, cfg.Dataset.Problem)
	outDir := orConfig(opts.outDir, cfg.Output.Dir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("run: create output dir %q: %w", outDir, err)
	}
	outPath := filepath.Join(outDir, resultsFileName(problem, modelName, seed))

	var prior []results.Row
	if !opts.noResume {
		if _, err := os.Stat(outPath); err == nil {
			prior, err = results.Read(outPath)
			if err != nil {
				return err
			}
			answered := 0
			for _, row := range prior {
				if dataset.ValidLetter(row.ModelLetter) {
					answered++
				}
			}
			fmt.Fprintf(out, "Resuming from %s: %d answered items will be kept\n", outPath, answered)
		}
	}

	cacheDir := orConfig(opts.cacheDir, cfg.Output.CacheDir)
	if cacheDir != "" {
		cacheDir = filepath.Join(cacheDir, fmt.Sprintf("%s_%s_%d", problem, modelTag(modelName), seed))
	}

	workers := opts.workers
	if workers <= 0 {
		workers = cfg.Evaluation.Workers
	}

	// An interrupt aborts immediately. Finished items are lost unless a
	// previous pass already wrote them; the resume path covers reruns.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	go func() {
		<-sig
		fmt.Fprintln(stderrWriter, "interrupted")
		osExit(1)
	}()

	fmt.Fprintf(out, "Evaluating %s with %s prompts (%d workers)\n", modelName, mode, workers)
	start := time.Now()

	rows, sum, err := engine.Run(context.Background(), engine.Config{
		Backend:  backend,
		Mode:     mode,
		Workers:  workers,
		Retry:    retryPolicy(cfg),
		CacheDir: cacheDir,
		Prior:    prior,
		Progress: func(done, total int) {
			fmt.Fprintf(out, "Progress: %d/%d\n", done, total)
		},
	}, examples)
	if err != nil {
		return err
	}

	if err := results.Write(outPath, rows); err != nil {
		return err
	}

	printSummary(out, sum, outPath, time.Since(start))

	if !opts.noSave {
		if err := saveRun(cmd.Context(), cfg, backendName, modelName, string(mode), problem, seed, sum); err != nil {
			fmt.Fprintf(stderrWriter, "warning: %v\n", err)
		}
	}
	return nil
}

func resolveBackend(cfg *config.Config, opts *runOptions) (llm.Backend, string, string, error) {
	name := strings.ToLower(strings.TrimSpace(opts.backend))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(cfg.LLM.DefaultBackend))
	}
	if name == "anthropic" {
		name = "claude"
	}
	if name == "" {
		return nil, "", "", fmt.Errorf("run: missing backend")
	}

	bcfg, ok := cfg.LLM.Backends[name]
	if !ok && len(cfg.LLM.Backends) > 0 && strings.TrimSpace(opts.model) == "" {
		available := make([]string, 0, len(cfg.LLM.Backends))
		for k := range cfg.LLM.Backends {
			available = append(available, k)
		}
		sort.Strings(available)
		return nil, "", "", fmt.Errorf("run: backend %q not configured (available: %s)", name, strings.Join(available, ", "))
	}

	model := orConfig(opts.model, bcfg.Model)
	if model == "" {
		return nil, "", "", fmt.Errorf("run: missing model for backend %q", name)
	}

	b, err := llm.New(llm.Options{
		Client:  name,
		APIKey:  bcfg.APIKey,
		BaseURL: bcfg.BaseURL,
		Model:   model,
		Effort:  orConfig(opts.effort, bcfg.Effort),
	})
	if err != nil {
		return nil, "", "", err
	}
	return b, model, name, nil
}

func retryPolicy(cfg *config.Config) retry.Policy {
	p := retry.DefaultPolicy()
	if cfg.Evaluation.MaxRetries > 0 {
		p.MaxRetries = cfg.Evaluation.MaxRetries
	}
	if cfg.Evaluation.RetryDelay > 0 {
		p.InitialDelay = cfg.Evaluation.RetryDelay
	}
	return p
}

// resultsFileName mirrors the published result naming so old runs keep
// resuming: <problem>_results_<model tag>_<seed>.csv.
func resultsFileName(problem, model string, seed int64) string {
	return fmt.Sprintf("%s_results_%s_%d.csv", problem, modelTag(model), seed)
}

// modelTag is the model name with any provider prefix stripped.
func modelTag(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}

func printSummary(out io.Writer, sum engine.Summary, outPath string, elapsed time.Duration) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Accuracy:          %.2f%% (%d/%d)\n", sum.Accuracy()*100, sum.Correct, sum.Total)
	fmt.Fprintf(out, "Answered:          %d\n", sum.Answered)
	fmt.Fprintf(out, "No answer:         %d\n", sum.NoAnswer)
	fmt.Fprintf(out, "Errored:           %d\n", sum.Errored)
	if sum.Replayed > 0 {
		fmt.Fprintf(out, "Replayed:          %d\n", sum.Replayed)
	}
	fmt.Fprintf(out, "Prompt tokens:     %d (cached: %d)\n", sum.Usage.PromptTokens, sum.Usage.CachedTokens)
	fmt.Fprintf(out, "Completion tokens: %d\n", sum.Usage.CompletionTokens)
	fmt.Fprintf(out, "Elapsed:           %s\n", elapsed.Round(time.Second))
	fmt.Fprintf(out, "Results saved to %s\n", outPath)
	fmt.Fprintln(out, rule)
}

func saveRun(ctx context.Context, cfg *config.Config, backendName, model, mode, problem string, seed int64, sum engine.Summary) error {
	lb, err := openLeaderboardStore(cfg)
	if err != nil {
		return err
	}
	defer lb.Close()

	return lb.Save(ctx, &leaderboard.Entry{
		Model:            model,
		Backend:          backendName,
		PromptMode:       mode,
		Problem:          problem,
		Seed:             seed,
		Accuracy:         sum.Accuracy(),
		Correct:          sum.Correct,
		Answered:         sum.Answered,
		Total:            sum.Total,
		PromptTokens:     sum.Usage.PromptTokens,
		CachedTokens:     sum.Usage.CachedTokens,
		CompletionTokens: sum.Usage.CompletionTokens,
		EvalDate:         time.Now().UTC(),
	})
}

func openLeaderboardStore(cfg *config.Config) (*leaderboard.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("leaderboard: missing config")
	}

	storageType := strings.ToLower(strings.TrimSpace(cfg.Storage.Type))
	if storageType == "" {
		storageType = "sqlite"
	}

	switch storageType {
	case "sqlite":
		path := strings.TrimSpace(cfg.Storage.Path)
		if path == "" {
			path = "data/qbench.db"
		}
		return leaderboard.NewStore(path)
	case "memory":
		return leaderboard.NewStore(":memory:")
	default:
		return nil, fmt.Errorf("leaderboard: unsupported type %q", storageType)
	}
}

func orConfig(flagValue, cfgValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	return strings.TrimSpace(cfgValue)
}
