package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stellarlinkco/qbench/internal/results"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const humanEvalCSV = `Question id,Difficulty1,Difficulty2,Difficulty3,Expertise1,Expertise2,Expertise3
1,1,1,2,1,1,1
2,3,3,,2,2,2
3,5,5,5,4,4,
4,2,,,,,
`

const categoryCSV = `Question id,Subdomain_question,QuestionType
1,Circuits,Conceptual
2,Algorithms,Calculation
3,Algorithms,Calculation
`

func TestLoadAnnotations(t *testing.T) {
	ann, err := LoadAnnotations(
		writeFile(t, "human.csv", humanEvalCSV),
		writeFile(t, "category.csv", categoryCSV),
	)
	if err != nil {
		t.Fatalf("LoadAnnotations: %v", err)
	}

	if got := ann.Difficulty[2]; got != 3 {
		t.Fatalf("difficulty 2: got %v, blank rating must be skipped", got)
	}
	if got := ann.Expertise[3]; got != 4 {
		t.Fatalf("expertise 3: got %v", got)
	}
	if got := ann.Difficulty[4]; got != 2 {
		t.Fatalf("difficulty 4: got %v", got)
	}
	if _, ok := ann.Expertise[4]; ok {
		t.Fatal("expertise 4 has no ratings and must be absent")
	}
	if ann.Subdomain[1] != "Circuits" || ann.QuestionType[2] != "Calculation" {
		t.Fatalf("categories: %+v", ann)
	}
}

func TestLoadAnnotationsEmptyPaths(t *testing.T) {
	ann, err := LoadAnnotations("", "")
	if err != nil {
		t.Fatalf("LoadAnnotations: %v", err)
	}
	if len(ann.Difficulty) != 0 || len(ann.Subdomain) != 0 {
		t.Fatalf("expected empty annotations: %+v", ann)
	}
}

func TestLevelBins(t *testing.T) {
	tests := []struct {
		v    float64
		diff int
		exp  int
	}{
		{0, 1, 1},
		{1.5, 1, 1},
		{1.6, 2, 2},
		{2.5, 2, 2},
		{3.5, 3, 3},
		{4.5, 4, 4},
		{5.0, 5, 0},
		{5.5, 5, 0},
		{6.0, 0, 0},
		{-1, 0, 0},
	}
	for _, tc := range tests {
		if got := difficultyLevel(tc.v); got != tc.diff {
			t.Fatalf("difficultyLevel(%v) = %d, want %d", tc.v, got, tc.diff)
		}
		if got := expertiseLevel(tc.v); got != tc.exp {
			t.Fatalf("expertiseLevel(%v) = %d, want %d", tc.v, got, tc.exp)
		}
	}
}

func makeItems() []Item {
	rows := []results.Row{
		{QuestionID: 1, Correct: true, Subdomain: "Circuits", PromptTokens: 10, CompletionTokens: 5},
		{QuestionID: 2, Correct: false, Subdomain: "Algorithms", PromptTokens: 20, CompletionTokens: 8},
		{QuestionID: 3, Correct: true, Subdomain: "Algorithms", PromptTokens: 30, CompletionTokens: 12},
		{QuestionID: 4, Correct: false, Subdomain: "Noise"},
	}
	ann := &Annotations{
		Difficulty:   map[int]float64{1: 1.0, 2: 3.0, 3: 5.0},
		Expertise:    map[int]float64{1: 1.0, 2: 2.0, 3: 4.0},
		Subdomain:    map[int]string{1: "Circuits", 2: "Algorithms", 3: "Algorithms"},
		QuestionType: map[int]string{1: "Conceptual", 2: "Calculation", 3: "Calculation"},
	}
	return Enrich(rows, ann)
}

func TestAnalyze(t *testing.T) {
	a := Analyze(makeItems())

	if a.Overall.Total != 4 || a.Overall.Correct != 2 || a.Overall.PassRate != 50 {
		t.Fatalf("overall: %+v", a.Overall)
	}
	if a.Overall.AvgDifficulty != 3 {
		t.Fatalf("avg difficulty: %v, unrated items must not drag the mean", a.Overall.AvgDifficulty)
	}
	if a.Overall.PromptTokens != 60 || a.Overall.CompletionTokens != 25 {
		t.Fatalf("tokens: %+v", a.Overall)
	}

	// Difficulty bins: 1.0 -> Level 1, 3.0 -> Level 3, 5.0 -> Level 5.
	if len(a.ByDifficulty) != 3 {
		t.Fatalf("difficulty groups: %+v", a.ByDifficulty)
	}
	if a.ByDifficulty[0].Key != "Level 1" || a.ByDifficulty[0].PassRate() != 100 {
		t.Fatalf("level 1: %+v", a.ByDifficulty[0])
	}
	if a.ByDifficulty[1].Key != "Level 3" || a.ByDifficulty[1].PassRate() != 0 {
		t.Fatalf("level 3: %+v", a.ByDifficulty[1])
	}

	// Subdomains sorted by pass rate descending.
	if a.BySubdomain[0].Key != "Circuits" {
		t.Fatalf("subdomain order: %+v", a.BySubdomain)
	}
	var algo GroupStat
	for _, g := range a.BySubdomain {
		if g.Key == "Algorithms" {
			algo = g
		}
	}
	if algo.Total != 2 || algo.Correct != 1 {
		t.Fatalf("algorithms: %+v", algo)
	}

	// Matrix: question 3 has difficulty 5.0 and expertise 4.0.
	cell := a.Matrix[4][3]
	if cell.Total != 1 || cell.Correct != 1 {
		t.Fatalf("matrix cell D5/E4: %+v", cell)
	}
}

func TestRender(t *testing.T) {
	var sb strings.Builder
	if err := Render(&sb, Analyze(makeItems()), "benchmark results"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		"BENCHMARK RESULTS",
		"Overall Pass Rate:         50.00%",
		"ANALYSIS BY DIFFICULTY LEVEL",
		"Level 1",
		"Circuits",
		"DIFFICULTY x EXPERTISE MATRIX",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in report:\n%s", want, out)
		}
	}
}

func TestCompare(t *testing.T) {
	items1 := makeItems()
	items2 := makeItems()
	// Second run flips questions 2 and 3.
	items2[1].Row.Correct = true
	items2[2].Row.Correct = false

	c := Compare(items1, items2, "Zero-Shot", "Zero-Shot CoT")
	if c.Overall1.Correct != 2 || c.Overall2.Correct != 2 {
		t.Fatalf("overall: %+v %+v", c.Overall1, c.Overall2)
	}
	if c.BothCorrect != 1 || c.BothIncorrect != 1 || c.OnlyFirst != 1 || c.OnlySecond != 1 {
		t.Fatalf("agreement: %+v", c)
	}

	var sb strings.Builder
	if err := RenderComparison(&sb, c); err != nil {
		t.Fatalf("RenderComparison: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		"COMPARISON: Zero-Shot vs Zero-Shot CoT",
		"QUESTION-LEVEL COMPARISON",
		"COMPARISON BY DIFFICULTY LEVEL",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in report:\n%s", want, out)
		}
	}
}

func TestLoadJoinsResults(t *testing.T) {
	dir := t.TempDir()
	resultsPath := filepath.Join(dir, "results.csv")
	rows := []results.Row{
		{QuestionID: 1, Question: "q1", CorrectAnswer: "x", CorrectLetter: "A", ModelLetter: "A", ModelAnswer: "x", Correct: true, Subdomain: "Circuits"},
	}
	if err := results.Write(resultsPath, rows); err != nil {
		t.Fatal(err)
	}

	items, err := Load(resultsPath, writeFile(t, "human.csv", humanEvalCSV), writeFile(t, "category.csv", categoryCSV))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items: %d", len(items))
	}
	it := items[0]
	if !it.HasDifficulty || it.Subdomain != "Circuits" || it.QuestionType != "Conceptual" {
		t.Fatalf("item: %+v", it)
	}
}
