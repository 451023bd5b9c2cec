package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

const (
	difficultyLevels = 5
	expertiseLevels  = 4
)

// difficultyLevel bins an averaged rating into levels 1 to 5 using
// half-open intervals with 1.5-wide steps. Out-of-range values bin to 0.
func difficultyLevel(v float64) int {
	switch {
	case v < 0 || v > 5.5:
		return 0
	case v <= 1.5:
		return 1
	case v <= 2.5:
		return 2
	case v <= 3.5:
		return 3
	case v <= 4.5:
		return 4
	default:
		return 5
	}
}

// expertiseLevel bins an averaged rating into levels 1 to 4.
func expertiseLevel(v float64) int {
	switch {
	case v < 0 || v > 4.5:
		return 0
	case v <= 1.5:
		return 1
	case v <= 2.5:
		return 2
	case v <= 3.5:
		return 3
	default:
		return 4
	}
}

// GroupStat aggregates the items sharing one grouping key.
type GroupStat struct {
	Key           string  `json:"key"`
	Total         int     `json:"total"`
	Correct       int     `json:"correct"`
	AvgDifficulty float64 `json:"avg_difficulty"`
	AvgExpertise  float64 `json:"avg_expertise"`
}

// PassRate is the group's correct share in percent.
func (g GroupStat) PassRate() float64 {
	if g.Total == 0 {
		return 0
	}
	return float64(g.Correct) / float64(g.Total) * 100
}

// Overall summarizes a whole run.
type Overall struct {
	Total            int     `json:"total"`
	Correct          int     `json:"correct"`
	PassRate         float64 `json:"pass_rate"`
	AvgDifficulty    float64 `json:"avg_difficulty"`
	AvgExpertise     float64 `json:"avg_expertise"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
}

// MatrixCell is one difficulty-by-expertise bucket.
type MatrixCell struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Analysis is the full breakdown of one run.
type Analysis struct {
	Overall        Overall     `json:"overall"`
	ByDifficulty   []GroupStat `json:"by_difficulty"`
	ByExpertise    []GroupStat `json:"by_expertise"`
	BySubdomain    []GroupStat `json:"by_subdomain"`
	ByQuestionType []GroupStat `json:"by_question_type"`

	// Matrix is indexed [difficulty level - 1][expertise level - 1] and
	// covers only items rated on both axes.
	Matrix [difficultyLevels][expertiseLevels]MatrixCell `json:"matrix"`
}

// Analyze computes the full breakdown. Items missing a rating are
// excluded from the breakdown on that axis but still count overall.
func Analyze(items []Item) *Analysis {
	a := &Analysis{}

	var diffSum, expSum float64
	var diffN, expN int
	diffBins := make(map[int]*GroupStat)
	expBins := make(map[int]*GroupStat)
	subdomains := make(map[string]*GroupStat)
	qtypes := make(map[string]*GroupStat)

	for _, it := range items {
		a.Overall.Total++
		if it.Row.Correct {
			a.Overall.Correct++
		}
		a.Overall.PromptTokens += it.Row.PromptTokens
		a.Overall.CompletionTokens += it.Row.CompletionTokens

		if it.HasDifficulty {
			diffSum += it.Difficulty
			diffN++
			if lvl := difficultyLevel(it.Difficulty); lvl > 0 {
				accumulate(diffBins, lvl, fmt.Sprintf("Level %d", lvl), it)
			}
		}
		if it.HasExpertise {
			expSum += it.Expertise
			expN++
			if lvl := expertiseLevel(it.Expertise); lvl > 0 {
				accumulate(expBins, lvl, fmt.Sprintf("Level %d", lvl), it)
			}
		}
		if it.HasDifficulty && it.HasExpertise {
			d, e := difficultyLevel(it.Difficulty), expertiseLevel(it.Expertise)
			if d > 0 && e > 0 {
				cell := &a.Matrix[d-1][e-1]
				cell.Total++
				if it.Row.Correct {
					cell.Correct++
				}
			}
		}
		if key := strings.TrimSpace(it.Subdomain); key != "" {
			accumulateKey(subdomains, key, it)
		}
		if key := strings.TrimSpace(it.QuestionType); key != "" {
			accumulateKey(qtypes, key, it)
		}
	}

	if a.Overall.Total > 0 {
		a.Overall.PassRate = float64(a.Overall.Correct) / float64(a.Overall.Total) * 100
	}
	if diffN > 0 {
		a.Overall.AvgDifficulty = diffSum / float64(diffN)
	}
	if expN > 0 {
		a.Overall.AvgExpertise = expSum / float64(expN)
	}

	a.ByDifficulty = orderedLevels(diffBins, difficultyLevels)
	a.ByExpertise = orderedLevels(expBins, expertiseLevels)
	a.BySubdomain = orderedByPassRate(subdomains)
	a.ByQuestionType = orderedByPassRate(qtypes)
	return a
}

func accumulate(bins map[int]*GroupStat, lvl int, key string, it Item) {
	g, ok := bins[lvl]
	if !ok {
		g = &GroupStat{Key: key}
		bins[lvl] = g
	}
	addItem(g, it)
}

func accumulateKey(groups map[string]*GroupStat, key string, it Item) {
	g, ok := groups[key]
	if !ok {
		g = &GroupStat{Key: key}
		groups[key] = g
	}
	addItem(g, it)
}

// addItem folds one item into a group, keeping the rating averages
// incremental over the rated subset of the group.
func addItem(g *GroupStat, it Item) {
	g.Total++
	if it.Row.Correct {
		g.Correct++
	}
	if it.HasDifficulty {
		g.AvgDifficulty += (it.Difficulty - g.AvgDifficulty) / float64(g.Total)
	}
	if it.HasExpertise {
		g.AvgExpertise += (it.Expertise - g.AvgExpertise) / float64(g.Total)
	}
}

func orderedLevels(bins map[int]*GroupStat, max int) []GroupStat {
	out := make([]GroupStat, 0, len(bins))
	for lvl := 1; lvl <= max; lvl++ {
		if g, ok := bins[lvl]; ok {
			out = append(out, *g)
		}
	}
	return out
}

func orderedByPassRate(groups map[string]*GroupStat) []GroupStat {
	out := make([]GroupStat, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PassRate() != out[j].PassRate() {
			return out[i].PassRate() > out[j].PassRate()
		}
		return out[i].Key < out[j].Key
	})
	return out
}

var difficultyCriteria = []string{
	"Level 1: A problem whose correct answer can be obtained immediately",
	"Level 2: A problem with an obvious solution that can be solved with simple calculations",
	"Level 3: A problem whose solution comes to mind quickly but requires somewhat tedious steps",
	"Level 4: A problem that requires some thought to discover the solution",
	"Level 5: A problem whose solution cannot be easily identified",
}

var expertiseCriteria = []string{
	"Level 1: An elementary problem; non-specialists can understand the question",
	"Level 2: People who studied physics can understand the question",
	"Level 3: Understanding requires having read technical texts in the field",
	"Level 4: Only experts who conduct research in that field can understand the question",
}

// Render writes the analysis as a plain-text report.
func Render(w io.Writer, a *Analysis, title string) error {
	if a == nil {
		return nil
	}
	rule := strings.Repeat("=", 100)
	thin := strings.Repeat("-", 100)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, strings.ToUpper(strings.TrimSpace(title)))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "OVERALL STATISTICS")
	fmt.Fprintln(w, thin)
	fmt.Fprintf(w, "Total Questions:           %d\n", a.Overall.Total)
	fmt.Fprintf(w, "Correct Answers:           %d\n", a.Overall.Correct)
	fmt.Fprintf(w, "Overall Pass Rate:         %.2f%%\n", a.Overall.PassRate)
	fmt.Fprintf(w, "Average Difficulty Level:  %.2f\n", a.Overall.AvgDifficulty)
	fmt.Fprintf(w, "Average Expertise Level:   %.2f\n", a.Overall.AvgExpertise)
	if total := a.Overall.PromptTokens + a.Overall.CompletionTokens; total > 0 {
		fmt.Fprintf(w, "Total Tokens Used:         %d (Prompt: %d, Completion: %d)\n",
			total, a.Overall.PromptTokens, a.Overall.CompletionTokens)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "ANALYSIS BY DIFFICULTY LEVEL")
	fmt.Fprintln(w, thin)
	for _, line := range difficultyCriteria {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)
	renderGroups(w, a.ByDifficulty, "Difficulty")

	fmt.Fprintln(w, "ANALYSIS BY EXPERTISE LEVEL")
	fmt.Fprintln(w, thin)
	for _, line := range expertiseCriteria {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)
	renderGroups(w, a.ByExpertise, "Expertise")

	fmt.Fprintln(w, "ANALYSIS BY SUBDOMAIN")
	fmt.Fprintln(w, thin)
	renderGroups(w, a.BySubdomain, "Subdomain")

	fmt.Fprintln(w, "ANALYSIS BY QUESTION TYPE")
	fmt.Fprintln(w, thin)
	renderGroups(w, a.ByQuestionType, "Question Type")

	fmt.Fprintln(w, "DIFFICULTY x EXPERTISE MATRIX")
	fmt.Fprintln(w, thin)
	renderMatrix(w, a)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "END OF REPORT")
	fmt.Fprintln(w, rule)
	return nil
}

func renderGroups(w io.Writer, groups []GroupStat, label string) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No data available")
		fmt.Fprintln(w)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tQuestions\tCorrect\tPass Rate\tAvg Difficulty\tAvg Expertise\n", label)
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\t%.2f\t%.2f\n",
			g.Key, g.Total, g.Correct, g.PassRate(), g.AvgDifficulty, g.AvgExpertise)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func renderMatrix(w io.Writer, a *Analysis) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "Pass Rate %")
	for e := 1; e <= expertiseLevels; e++ {
		fmt.Fprintf(tw, "\tE%d", e)
	}
	fmt.Fprintln(tw)
	for d := 0; d < difficultyLevels; d++ {
		fmt.Fprintf(tw, "D%d", d+1)
		for e := 0; e < expertiseLevels; e++ {
			cell := a.Matrix[d][e]
			if cell.Total == 0 {
				fmt.Fprint(tw, "\t-")
				continue
			}
			fmt.Fprintf(tw, "\t%.1f (%d)", float64(cell.Correct)/float64(cell.Total)*100, cell.Total)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
	fmt.Fprintln(w)
}
