// Package results owns the fixed-schema CSV report. The file is always
// rewritten whole from the in-memory record set; that is what makes
// resuming by reading the existing file meaningful.
package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/stellarlinkco/qbench/internal/dataset"
	"github.com/stellarlinkco/qbench/internal/llm"
)

const (
	// NoResponse marks an item with no extractable answer or a failed call.
	NoResponse = "No response"
	// NoAnswer marks an answer letter that maps to no rendered choice.
	NoAnswer = "No answer"

	// responseTail is how much of the model response survives in the CSV.
	// Full responses live in the per-item cache artifacts.
	responseTail = 100
)

// Header is the fixed column order of the report. The two "index" columns
// hold option letters, matching the published result format.
var Header = []string{
	"Question id",
	"Question",
	"Correct answer",
	"Correct index",
	"Model answer index",
	"Model answer",
	"Correct",
	"Model response",
	"Subdomain",
	"Prompt tokens",
	"Cached tokens",
	"Completion tokens",
}

// Row is one report line.
type Row struct {
	QuestionID       int
	Question         string
	CorrectAnswer    string
	CorrectLetter    string
	ModelLetter      string
	ModelAnswer      string
	Correct          bool
	ModelResponse    string
	Subdomain        string
	PromptTokens     int
	CachedTokens     int
	CompletionTokens int
}

// NewRow derives a report line from an evaluated example. answerLetter is
// either an option letter or the NoResponse sentinel; response is the raw
// final-turn model text (or the truncated error text for failed items).
func NewRow(id int, ex *dataset.Example, answerLetter, response string, usage llm.Usage) Row {
	correctLetter, _ := dataset.IndexToLetter(ex.CorrectIndex)

	modelAnswer := NoAnswer
	if idx, ok := dataset.LetterToIndex(answerLetter); ok && idx < len(ex.Choices) {
		modelAnswer = ex.Choices[idx]
	}

	return Row{
		QuestionID:       id,
		Question:         ex.Question,
		CorrectAnswer:    ex.Choices[ex.CorrectIndex],
		CorrectLetter:    correctLetter,
		ModelLetter:      answerLetter,
		ModelAnswer:      modelAnswer,
		Correct:          answerLetter == correctLetter,
		ModelResponse:    truncateTail(response, responseTail),
		Subdomain:        ex.Subdomain,
		PromptTokens:     usage.PromptTokens,
		CachedTokens:     usage.CachedTokens,
		CompletionTokens: usage.CompletionTokens,
	}
}

// Write rewrites the report at path from scratch, sorted by question id.
func Write(path string, rows []Row) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("results: empty output path")
	}

	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].QuestionID < sorted[j].QuestionID })

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("results: create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("results: write header: %w", err)
	}
	for _, r := range sorted {
		rec := []string{
			strconv.Itoa(r.QuestionID),
			r.Question,
			r.CorrectAnswer,
			r.CorrectLetter,
			r.ModelLetter,
			r.ModelAnswer,
			strconv.FormatBool(r.Correct),
			r.ModelResponse,
			r.Subdomain,
			strconv.Itoa(r.PromptTokens),
			strconv.Itoa(r.CachedTokens),
			strconv.Itoa(r.CompletionTokens),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("results: write row %d: %w", r.QuestionID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("results: flush %q: %w", path, err)
	}
	return f.Close()
}

// Read loads a previously written report. Unknown extra columns are
// ignored; numeric cells that fail to parse read as zero so that a
// hand-edited file still resumes.
func Read(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("results: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("results: read %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range Header {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("results: %q: missing column %q", path, name)
		}
	}

	cell := func(rec []string, name string) string {
		i := col[name]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	out := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		id, err := strconv.Atoi(strings.TrimSpace(cell(rec, "Question id")))
		if err != nil {
			continue
		}
		out = append(out, Row{
			QuestionID:       id,
			Question:         cell(rec, "Question"),
			CorrectAnswer:    cell(rec, "Correct answer"),
			CorrectLetter:    cell(rec, "Correct index"),
			ModelLetter:      cell(rec, "Model answer index"),
			ModelAnswer:      cell(rec, "Model answer"),
			Correct:          strings.EqualFold(strings.TrimSpace(cell(rec, "Correct")), "true"),
			ModelResponse:    cell(rec, "Model response"),
			Subdomain:        cell(rec, "Subdomain"),
			PromptTokens:     atoiOrZero(cell(rec, "Prompt tokens")),
			CachedTokens:     atoiOrZero(cell(rec, "Cached tokens")),
			CompletionTokens: atoiOrZero(cell(rec, "Completion tokens")),
		})
	}
	return out, nil
}

// Usage reconstructs the token usage recorded on a row.
func (r Row) Usage() llm.Usage {
	return llm.Usage{
		PromptTokens:     r.PromptTokens,
		CachedTokens:     r.CachedTokens,
		CompletionTokens: r.CompletionTokens,
	}
}

func truncateTail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
