// Package report turns result rows into aggregate statistics: overall
// pass rate, breakdowns by human-rated difficulty and expertise, by
// subdomain and question type, and side-by-side comparison of two runs.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/stellarlinkco/qbench/internal/results"
)

// Annotations carries the per-question metadata that is not part of the
// run output: averaged human ratings and category labels.
type Annotations struct {
	Difficulty   map[int]float64
	Expertise    map[int]float64
	Subdomain    map[int]string
	QuestionType map[int]string
}

// LoadAnnotations reads the human-evaluation and category CSV files.
// Either path may be empty, leaving the matching maps empty. Ratings are
// averaged over the raters that actually scored a question; a question
// no rater scored gets no entry at all.
func LoadAnnotations(humanEvalPath, categoryPath string) (*Annotations, error) {
	ann := &Annotations{
		Difficulty:   make(map[int]float64),
		Expertise:    make(map[int]float64),
		Subdomain:    make(map[int]string),
		QuestionType: make(map[int]string),
	}

	if p := strings.TrimSpace(humanEvalPath); p != "" {
		if err := ann.loadHumanEval(p); err != nil {
			return nil, err
		}
	}
	if p := strings.TrimSpace(categoryPath); p != "" {
		if err := ann.loadCategories(p); err != nil {
			return nil, err
		}
	}
	return ann, nil
}

func (a *Annotations) loadHumanEval(path string) error {
	rows, col, err := readTable(path)
	if err != nil {
		return err
	}
	for _, name := range []string{"Question id", "Difficulty1", "Expertise1"} {
		if _, ok := col[name]; !ok {
			return fmt.Errorf("report: %q: missing column %q", path, name)
		}
	}

	difficultyCols := []string{"Difficulty1", "Difficulty2", "Difficulty3"}
	expertiseCols := []string{"Expertise1", "Expertise2", "Expertise3"}

	for _, rec := range rows {
		id, err := strconv.Atoi(strings.TrimSpace(field(rec, col, "Question id")))
		if err != nil {
			continue
		}
		if v, ok := meanOf(rec, col, difficultyCols); ok {
			a.Difficulty[id] = v
		}
		if v, ok := meanOf(rec, col, expertiseCols); ok {
			a.Expertise[id] = v
		}
	}
	return nil
}

func (a *Annotations) loadCategories(path string) error {
	rows, col, err := readTable(path)
	if err != nil {
		return err
	}
	for _, name := range []string{"Question id", "Subdomain_question", "QuestionType"} {
		if _, ok := col[name]; !ok {
			return fmt.Errorf("report: %q: missing column %q", path, name)
		}
	}

	for _, rec := range rows {
		id, err := strconv.Atoi(strings.TrimSpace(field(rec, col, "Question id")))
		if err != nil {
			continue
		}
		if v := strings.TrimSpace(field(rec, col, "Subdomain_question")); v != "" {
			a.Subdomain[id] = v
		}
		if v := strings.TrimSpace(field(rec, col, "QuestionType")); v != "" {
			a.QuestionType[id] = v
		}
	}
	return nil
}

// Item is one result row joined with its annotations. The rating fields
// are only meaningful when the matching Has flag is set.
type Item struct {
	Row results.Row

	Difficulty    float64
	HasDifficulty bool
	Expertise     float64
	HasExpertise  bool

	Subdomain    string
	QuestionType string
}

// Enrich joins result rows with annotations. Rows without a matching
// annotation keep zero values and unset Has flags; category labels fall
// back to the subdomain recorded on the row itself.
func Enrich(rows []results.Row, ann *Annotations) []Item {
	items := make([]Item, len(rows))
	for i, row := range rows {
		item := Item{Row: row, Subdomain: row.Subdomain}
		if ann != nil {
			if v, ok := ann.Difficulty[row.QuestionID]; ok {
				item.Difficulty, item.HasDifficulty = v, true
			}
			if v, ok := ann.Expertise[row.QuestionID]; ok {
				item.Expertise, item.HasExpertise = v, true
			}
			if v, ok := ann.Subdomain[row.QuestionID]; ok {
				item.Subdomain = v
			}
			if v, ok := ann.QuestionType[row.QuestionID]; ok {
				item.QuestionType = v
			}
		}
		items[i] = item
	}
	return items
}

// Load reads a results CSV and joins it with the annotation files in one
// step. Annotation paths may be empty.
func Load(resultsPath, humanEvalPath, categoryPath string) ([]Item, error) {
	rows, err := results.Read(resultsPath)
	if err != nil {
		return nil, err
	}
	ann, err := LoadAnnotations(humanEvalPath, categoryPath)
	if err != nil {
		return nil, err
	}
	return Enrich(rows, ann), nil
}

func readTable(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("report: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("report: read %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, map[string]int{}, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	return records[1:], col, nil
}

func field(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// meanOf averages the numeric cells among names that are present and
// parseable. Blank or malformed cells are skipped, not zeroed.
func meanOf(rec []string, col map[string]int, names []string) (float64, bool) {
	var sum float64
	var n int
	for _, name := range names {
		if _, ok := col[name]; !ok {
			continue
		}
		s := strings.TrimSpace(field(rec, col, name))
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
