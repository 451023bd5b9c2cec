// Package engine runs a benchmark: it fans examples out to a worker
// pool, evaluates each one against a backend with retries, and collects
// the rows for the CSV report. A failed item never fails the run; it is
// recorded with an error response and no answer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/stellarlinkco/qbench/internal/answer"
	"github.com/stellarlinkco/qbench/internal/dataset"
	"github.com/stellarlinkco/qbench/internal/llm"
	"github.com/stellarlinkco/qbench/internal/prompt"
	"github.com/stellarlinkco/qbench/internal/results"
	"github.com/stellarlinkco/qbench/internal/retry"
)

const errorTextLimit = 100

// Config drives a single benchmark run.
type Config struct {
	Backend llm.Backend
	Mode    prompt.Mode
	Workers int
	Retry   retry.Policy

	// CacheDir, when set, receives one JSON artifact per evaluated item
	// with the full prompt and response. Replayed items are not re-cached.
	CacheDir string

	// Prior holds rows from an earlier interrupted run. Items whose prior
	// row carries a valid answer letter are replayed without an API call.
	Prior []results.Row

	// Progress, when set, is called after every finished item.
	Progress func(done, total int)
}

// Summary aggregates a finished run. Errored counts items whose call
// failed outright; NoAnswer counts every item without a parseable
// letter, which includes the errored ones.
type Summary struct {
	Total    int
	Answered int
	Correct  int
	Replayed int
	Errored  int
	NoAnswer int
	Usage    llm.Usage
}

// Accuracy is correct over total. A run with no items scores zero.
func (s Summary) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// Run evaluates every example and returns the report rows sorted by
// question id, together with a summary.
func Run(ctx context.Context, cfg Config, examples []dataset.Example) ([]results.Row, Summary, error) {
	if cfg.Backend == nil {
		return nil, Summary{}, errors.New("engine: nil backend")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(examples) && len(examples) > 0 {
		workers = len(examples)
	}

	prior := make(map[int]results.Row, len(cfg.Prior))
	for _, row := range cfg.Prior {
		if dataset.ValidLetter(row.ModelLetter) {
			prior[row.QuestionID] = row
		}
	}

	cache, err := newCache(cfg.CacheDir)
	if err != nil {
		return nil, Summary{}, err
	}

	rows := make([]results.Row, len(examples))
	replayed := make([]bool, len(examples))
	var done atomic.Int64

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				ex := examples[id]

				if row, ok := prior[id]; ok {
					rows[id] = row
					replayed[id] = true
				} else {
					rows[id] = evaluate(ctx, cfg, cache, id, &ex)
				}

				if cfg.Progress != nil {
					cfg.Progress(int(done.Add(1)), len(examples))
				}
			}
		}()
	}
	for i := range examples {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sort.Slice(rows, func(i, j int) bool { return rows[i].QuestionID < rows[j].QuestionID })

	sum := Summary{Total: len(rows)}
	for i, row := range rows {
		if replayed[i] {
			sum.Replayed++
		}
		if strings.HasPrefix(row.ModelResponse, "Error") {
			sum.Errored++
		}
		if row.ModelLetter == results.NoResponse {
			sum.NoAnswer++
		} else {
			sum.Answered++
		}
		if row.Correct {
			sum.Correct++
		}
		sum.Usage = sum.Usage.Add(row.Usage())
	}
	return rows, sum, nil
}

// evaluate runs one example end to end. Call failures and unparseable
// responses are folded into the returned row instead of propagating.
func evaluate(ctx context.Context, cfg Config, cache *cache, id int, ex *dataset.Example) results.Row {
	final, usage, promptText, err := converse(ctx, cfg, ex)
	if err != nil {
		return results.NewRow(id, ex, results.NoResponse, "Error: "+truncateHead(err.Error(), errorTextLimit), llm.Usage{})
	}

	if cache != nil {
		// A failed artifact write is not worth failing the item over.
		_ = cache.put(id, artifact{Prompt: promptText, Response: final.Text, Raw: final.Raw, Usage: usage})
	}

	letter, ok := answer.Extract(final.Text)
	if !ok {
		letter = results.NoResponse
	}
	return results.NewRow(id, ex, letter, final.Text, usage)
}

// converse performs the one- or two-turn exchange for an example. It
// returns the final turn's completion, the usage summed across turns,
// and the prompt that produced the final turn, so the cache records
// the conversation the model actually answered.
func converse(ctx context.Context, cfg Config, ex *dataset.Example) (final *llm.Completion, usage llm.Usage, promptText string, err error) {
	promptText, err = prompt.Render(ex, cfg.Mode)
	if err != nil {
		return nil, llm.Usage{}, "", err
	}

	first, err := ask(ctx, cfg, promptText)
	if err != nil {
		return nil, llm.Usage{}, promptText, err
	}
	if cfg.Mode != prompt.ModeZeroShotCoT {
		return first, first.Usage, promptText, nil
	}

	// Chain-of-thought needs a second turn to force the answer format.
	followUp := prompt.FollowUp(promptText, first.Text)
	second, err := ask(ctx, cfg, followUp)
	if err != nil {
		return nil, llm.Usage{}, followUp, err
	}
	return second, first.Usage.Add(second.Usage), followUp, nil
}

func ask(ctx context.Context, cfg Config, p string) (*llm.Completion, error) {
	out, err := retry.Do(ctx, cfg.Retry, func() (*llm.Completion, error) {
		return cfg.Backend.Answer(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("engine: %s: nil completion", cfg.Backend.Name())
	}
	return out, nil
}

func truncateHead(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
