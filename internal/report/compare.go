package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// GroupDelta is one grouping key with both runs' pass rates.
type GroupDelta struct {
	Key       string  `json:"key"`
	Total     int     `json:"total"`
	PassRate1 float64 `json:"pass_rate_1"`
	PassRate2 float64 `json:"pass_rate_2"`
}

// Delta is the second run's pass rate minus the first's, in points.
func (g GroupDelta) Delta() float64 { return g.PassRate2 - g.PassRate1 }

// Comparison is the side-by-side view of two runs over the same items.
type Comparison struct {
	Label1 string `json:"label_1"`
	Label2 string `json:"label_2"`

	Overall1 Overall `json:"overall_1"`
	Overall2 Overall `json:"overall_2"`

	// Question-level agreement over the ids present in both runs.
	BothCorrect   int `json:"both_correct"`
	BothIncorrect int `json:"both_incorrect"`
	OnlyFirst     int `json:"only_first"`
	OnlySecond    int `json:"only_second"`

	ByDifficulty   []GroupDelta `json:"by_difficulty"`
	ByExpertise    []GroupDelta `json:"by_expertise"`
	BySubdomain    []GroupDelta `json:"by_subdomain"`
	ByQuestionType []GroupDelta `json:"by_question_type"`
}

// Compare analyzes both runs and lines their breakdowns up.
func Compare(items1, items2 []Item, label1, label2 string) *Comparison {
	a1, a2 := Analyze(items1), Analyze(items2)

	c := &Comparison{
		Label1:   orDefault(label1, "Run 1"),
		Label2:   orDefault(label2, "Run 2"),
		Overall1: a1.Overall,
		Overall2: a2.Overall,
	}

	correct2 := make(map[int]bool, len(items2))
	for _, it := range items2 {
		correct2[it.Row.QuestionID] = it.Row.Correct
	}
	for _, it := range items1 {
		ok2, shared := correct2[it.Row.QuestionID]
		if !shared {
			continue
		}
		switch {
		case it.Row.Correct && ok2:
			c.BothCorrect++
		case !it.Row.Correct && !ok2:
			c.BothIncorrect++
		case it.Row.Correct:
			c.OnlyFirst++
		default:
			c.OnlySecond++
		}
	}

	c.ByDifficulty = zipGroups(a1.ByDifficulty, a2.ByDifficulty, false)
	c.ByExpertise = zipGroups(a1.ByExpertise, a2.ByExpertise, false)
	c.BySubdomain = zipGroups(a1.BySubdomain, a2.BySubdomain, true)
	c.ByQuestionType = zipGroups(a1.ByQuestionType, a2.ByQuestionType, true)
	return c
}

// zipGroups merges two breakdowns on key. A key present in only one run
// contributes a zero pass rate on the other side. sortByDelta keeps
// level breakdowns in level order and categorical ones by improvement.
func zipGroups(g1, g2 []GroupStat, sortByDelta bool) []GroupDelta {
	index := make(map[string]*GroupDelta)
	var order []string

	for _, g := range g1 {
		index[g.Key] = &GroupDelta{Key: g.Key, Total: g.Total, PassRate1: g.PassRate()}
		order = append(order, g.Key)
	}
	for _, g := range g2 {
		d, ok := index[g.Key]
		if !ok {
			d = &GroupDelta{Key: g.Key, Total: g.Total}
			index[g.Key] = d
			order = append(order, g.Key)
		}
		d.PassRate2 = g.PassRate()
	}

	out := make([]GroupDelta, 0, len(order))
	for _, key := range order {
		out = append(out, *index[key])
	}
	if sortByDelta {
		sort.Slice(out, func(i, j int) bool {
			if out[i].Delta() != out[j].Delta() {
				return out[i].Delta() > out[j].Delta()
			}
			return out[i].Key < out[j].Key
		})
	}
	return out
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// RenderComparison writes the comparison as a plain-text report.
func RenderComparison(w io.Writer, c *Comparison) error {
	if c == nil {
		return nil
	}
	rule := strings.Repeat("=", 100)
	thin := strings.Repeat("-", 100)

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "COMPARISON: %s vs %s\n", c.Label1, c.Label2)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "OVERALL STATISTICS")
	fmt.Fprintln(w, thin)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Metric\t%s\t%s\tDifference\n", c.Label1, c.Label2)
	fmt.Fprintf(tw, "Total Questions\t%d\t%d\t%+d\n", c.Overall1.Total, c.Overall2.Total, c.Overall2.Total-c.Overall1.Total)
	fmt.Fprintf(tw, "Correct Answers\t%d\t%d\t%+d\n", c.Overall1.Correct, c.Overall2.Correct, c.Overall2.Correct-c.Overall1.Correct)
	fmt.Fprintf(tw, "Pass Rate (%%)\t%.2f\t%.2f\t%+.2f\n", c.Overall1.PassRate, c.Overall2.PassRate, c.Overall2.PassRate-c.Overall1.PassRate)
	t1 := c.Overall1.PromptTokens + c.Overall1.CompletionTokens
	t2 := c.Overall2.PromptTokens + c.Overall2.CompletionTokens
	fmt.Fprintf(tw, "Total Tokens\t%d\t%d\t%+d\n", t1, t2, t2-t1)
	fmt.Fprintf(tw, "Prompt Tokens\t%d\t%d\t%+d\n", c.Overall1.PromptTokens, c.Overall2.PromptTokens, c.Overall2.PromptTokens-c.Overall1.PromptTokens)
	fmt.Fprintf(tw, "Completion Tokens\t%d\t%d\t%+d\n", c.Overall1.CompletionTokens, c.Overall2.CompletionTokens, c.Overall2.CompletionTokens-c.Overall1.CompletionTokens)
	tw.Flush()
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, thin)
	delta := c.Overall2.PassRate - c.Overall1.PassRate
	switch {
	case delta > 0:
		fmt.Fprintf(w, "%s performs better by %.2f percentage points\n", c.Label2, delta)
	case delta < 0:
		fmt.Fprintf(w, "%s performs better by %.2f percentage points\n", c.Label1, -delta)
	default:
		fmt.Fprintln(w, "Both runs have equal pass rates")
	}
	if t1 > 0 && t2 != t1 {
		fmt.Fprintf(w, "%s uses %+d tokens (%.1f%% change)\n", c.Label2, t2-t1, float64(t2-t1)/float64(t1)*100)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "QUESTION-LEVEL COMPARISON")
	fmt.Fprintln(w, thin)
	shared := c.BothCorrect + c.BothIncorrect + c.OnlyFirst + c.OnlySecond
	if shared == 0 {
		fmt.Fprintln(w, "No shared questions")
	} else {
		pct := func(n int) float64 { return float64(n) / float64(shared) * 100 }
		fmt.Fprintf(w, "Both Correct:        %d (%.1f%%)\n", c.BothCorrect, pct(c.BothCorrect))
		fmt.Fprintf(w, "Both Incorrect:      %d (%.1f%%)\n", c.BothIncorrect, pct(c.BothIncorrect))
		fmt.Fprintf(w, "Only %s Correct: %d (%.1f%%)\n", c.Label1, c.OnlyFirst, pct(c.OnlyFirst))
		fmt.Fprintf(w, "Only %s Correct: %d (%.1f%%)\n", c.Label2, c.OnlySecond, pct(c.OnlySecond))
	}
	fmt.Fprintln(w)

	renderDeltas(w, thin, "COMPARISON BY DIFFICULTY LEVEL", "Difficulty", c, c.ByDifficulty)
	renderDeltas(w, thin, "COMPARISON BY EXPERTISE LEVEL", "Expertise", c, c.ByExpertise)
	renderDeltas(w, thin, "COMPARISON BY QUESTION TYPE", "Question Type", c, c.ByQuestionType)
	renderDeltas(w, thin, "COMPARISON BY SUBDOMAIN", "Subdomain", c, c.BySubdomain)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "END OF COMPARISON")
	fmt.Fprintln(w, rule)
	return nil
}

func renderDeltas(w io.Writer, thin, title, label string, c *Comparison, deltas []GroupDelta) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, thin)
	if len(deltas) == 0 {
		fmt.Fprintln(w, "No data available")
		fmt.Fprintln(w)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tQuestions\t%s\t%s\tDifference\n", label, c.Label1, c.Label2)
	for _, d := range deltas {
		fmt.Fprintf(tw, "%s\t%d\t%.2f%%\t%.2f%%\t%+.2f\n", d.Key, d.Total, d.PassRate1, d.PassRate2, d.Delta())
	}
	tw.Flush()
	fmt.Fprintln(w)
}
