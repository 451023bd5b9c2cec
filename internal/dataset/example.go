package dataset

import (
	"math/rand"
	"strings"
)

// NumChoices is the number of options every example carries. The source
// tables supply seven incorrect answers plus one correct answer.
const NumChoices = 8

// Example is one immutable evaluation item: a question with shuffled
// choices and the index of the correct option after shuffling.
type Example struct {
	Question     string
	Choices      []string
	CorrectIndex int
	Subdomain    string
}

// QuestionRow is one raw row of the question table before shuffling.
type QuestionRow struct {
	ID        string
	Question  string
	Incorrect [NumChoices - 1]string
	Correct   string
}

// IndexToLetter maps a choice index to its option letter (0 -> "A").
func IndexToLetter(i int) (string, bool) {
	if i < 0 || i >= NumChoices {
		return "", false
	}
	return string(rune('A' + i)), true
}

// LetterToIndex maps an option letter to its choice index. The letter is
// matched case-insensitively.
func LetterToIndex(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 1 {
		return 0, false
	}
	c := s[0]
	if c < 'A' || c >= 'A'+NumChoices {
		return 0, false
	}
	return int(c - 'A'), true
}

// ValidLetter reports whether s is a single option letter within A-H.
func ValidLetter(s string) bool {
	_, ok := LetterToIndex(s)
	return ok
}

// BuildExample shuffles the row's choices under a generator seeded with
// seed+idx and records where the correct answer landed. For a fixed seed
// and index the result is fully reproducible. If the correct answer text
// is duplicated among the incorrect answers, the first matching position
// after the shuffle wins; deduplicating here would silently change ground
// truth for affected items.
func BuildExample(row *QuestionRow, idx int, seed int64, subdomain string) Example {
	choices := make([]string, 0, NumChoices)
	choices = append(choices, row.Incorrect[:]...)
	choices = append(choices, row.Correct)

	rng := rand.New(rand.NewSource(seed + int64(idx)))
	rng.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	correct := 0
	for i, c := range choices {
		if c == row.Correct {
			correct = i
			break
		}
	}

	if strings.TrimSpace(subdomain) == "" {
		subdomain = "Unknown"
	}

	return Example{
		Question:     row.Question,
		Choices:      choices,
		CorrectIndex: correct,
		Subdomain:    subdomain,
	}
}

// BuildExamples builds one example per question row, in row order. The item
// id of each example is its position in the returned slice.
func BuildExamples(rows []QuestionRow, subdomains map[string]string, seed int64) []Example {
	out := make([]Example, 0, len(rows))
	for i := range rows {
		out = append(out, BuildExample(&rows[i], i, seed, subdomains[rows[i].ID]))
	}
	return out
}
