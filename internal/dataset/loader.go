package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var questionColumns = []string{
	"Question id",
	"Question",
	"Incorrect Answer 1",
	"Incorrect Answer 2",
	"Incorrect Answer 3",
	"Incorrect Answer 4",
	"Incorrect Answer 5",
	"Incorrect Answer 6",
	"Incorrect Answer 7",
	"Correct Answer",
}

// Load reads the question and category tables and builds the full example
// sequence for the given seed. The category table is optional; questions
// without a category row get the "Unknown" subdomain.
func Load(questionPath, categoryPath string, seed int64) ([]Example, error) {
	rows, err := LoadQuestions(questionPath)
	if err != nil {
		return nil, err
	}

	subdomains := map[string]string{}
	if strings.TrimSpace(categoryPath) != "" {
		subdomains, err = LoadCategories(categoryPath)
		if err != nil {
			return nil, err
		}
	}

	return BuildExamples(rows, subdomains, seed), nil
}

// LoadQuestions reads the raw question table. Row order is preserved; the
// position of a row is its item id for the rest of the pipeline.
func LoadQuestions(path string) ([]QuestionRow, error) {
	records, header, err := readTable(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read questions %q: %w", path, err)
	}

	col, err := columnIndex(header, questionColumns)
	if err != nil {
		return nil, fmt.Errorf("dataset: questions %q: %w", path, err)
	}

	out := make([]QuestionRow, 0, len(records))
	for _, rec := range records {
		row := QuestionRow{
			ID:       strings.TrimSpace(rec[col["Question id"]]),
			Question: rec[col["Question"]],
			Correct:  rec[col["Correct Answer"]],
		}
		for i := 0; i < NumChoices-1; i++ {
			row.Incorrect[i] = rec[col[fmt.Sprintf("Incorrect Answer %d", i+1)]]
		}
		out = append(out, row)
	}
	return out, nil
}

// LoadCategories reads the category table and returns question id ->
// subdomain label.
func LoadCategories(path string) (map[string]string, error) {
	records, header, err := readTable(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read categories %q: %w", path, err)
	}

	col, err := columnIndex(header, []string{"Question id", "Subdomain_question"})
	if err != nil {
		return nil, fmt.Errorf("dataset: categories %q: %w", path, err)
	}

	out := make(map[string]string, len(records))
	for _, rec := range records {
		id := strings.TrimSpace(rec[col["Question id"]])
		if id == "" {
			continue
		}
		out[id] = strings.TrimSpace(rec[col["Subdomain_question"]])
	}
	return out, nil
}

func readTable(path string) ([][]string, []string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil, errors.New("empty path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, errors.New("empty table")
		}
		return nil, nil, err
	}

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		// Short rows index like full rows with empty trailing cells.
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		records = append(records, rec)
	}
	return records, header, nil
}

func columnIndex(header []string, required []string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return col, nil
}
