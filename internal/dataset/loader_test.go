package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const questionsCSV = `Question id,Question,Incorrect Answer 1,Incorrect Answer 2,Incorrect Answer 3,Incorrect Answer 4,Incorrect Answer 5,Incorrect Answer 6,Incorrect Answer 7,Correct Answer
q-1,What is 1+1?,0,1,3,4,5,6,7,2
q-2,"What is ""two"" plus two?",1,2,3,5,6,7,8,4
`

const categoriesCSV = `Question id,Subdomain_question,QuestionType
q-1,Arithmetic,Conceptual
`

func TestLoad_JoinsCategories(t *testing.T) {
	dir := t.TempDir()
	qPath := writeFile(t, dir, "questions.csv", questionsCSV)
	cPath := writeFile(t, dir, "category.csv", categoriesCSV)

	examples, err := Load(qPath, cPath, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(examples) != 2 {
		t.Fatalf("examples: got %d want 2", len(examples))
	}

	if examples[0].Subdomain != "Arithmetic" {
		t.Fatalf("subdomain[0]: got %q want %q", examples[0].Subdomain, "Arithmetic")
	}
	if examples[1].Subdomain != "Unknown" {
		t.Fatalf("subdomain[1]: got %q want %q", examples[1].Subdomain, "Unknown")
	}

	for i, ex := range examples {
		if len(ex.Choices) != NumChoices {
			t.Fatalf("example %d: %d choices", i, len(ex.Choices))
		}
	}
	if examples[0].Choices[examples[0].CorrectIndex] != "2" {
		t.Fatalf("example 0 correct text: got %q", examples[0].Choices[examples[0].CorrectIndex])
	}
	if examples[1].Question != `What is "two" plus two?` {
		t.Fatalf("quoted question mangled: %q", examples[1].Question)
	}
}

func TestLoad_DeterministicAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	qPath := writeFile(t, dir, "questions.csv", questionsCSV)

	first, err := Load(qPath, "", 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := Load(qPath, "", 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for i := range first {
		for j := range first[i].Choices {
			if first[i].Choices[j] != second[i].Choices[j] {
				t.Fatalf("example %d choice %d differs: %q vs %q", i, j, first[i].Choices[j], second[i].Choices[j])
			}
		}
		if first[i].CorrectIndex != second[i].CorrectIndex {
			t.Fatalf("example %d correct index differs", i)
		}
	}
}

func TestLoadQuestions_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.csv", "Question id,Question\nq-1,hello\n")

	if _, err := LoadQuestions(path); err == nil {
		t.Fatalf("expected error for missing columns")
	}
}
