// Package answer extracts a single letter choice from free-text model
// output. Models restate draft answers, wrap the final one in markdown or
// LaTeX, or skip the requested format entirely, so extraction runs a fixed
// set of patterns over the whole text and keeps the match that starts last.
package answer

import (
	"regexp"
	"strings"

	"github.com/stellarlinkco/qbench/internal/dataset"
)

// Patterns are tried over the entire text; each captures the letter token.
// Order does not decide ties - the match with the largest start offset wins
// across the whole set, so a final "Answer: (D)" beats an earlier draft.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`[Aa]nswer(?: is)?:? \((\w)\)`),
	regexp.MustCompile(`[Aa]nswer(?: is)?:? (\w)`),
	regexp.MustCompile(`[Aa]nswer(?: is)?:? \$?\\boxed\{\((\w)\)\}`),
	regexp.MustCompile(`[Aa]nswer(?: is)?:? \*\*\((\w)\)\*\*`),
	regexp.MustCompile(`[Aa]nswer(?: is)?:? \$?\\boxed\{\\text\{(\w)\}\}`),
	regexp.MustCompile(`[Aa]nswer(?: is)?:? \$?\\boxed\{(\w)\}`),
	regexp.MustCompile(`[Aa]nswer(?: is)?:? \$?\\boxed\{\\text\{\((\w)\)\}\}`),
}

// Extract returns the extracted option letter, normalized to uppercase, and
// whether any qualifying match was found. Only letters within A-H qualify;
// a match capturing any other token is ignored regardless of position.
func Extract(text string) (string, bool) {
	lastPos := -1
	last := ""

	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			start, gs, ge := m[0], m[2], m[3]
			if gs < 0 {
				continue
			}
			letter := strings.ToUpper(text[gs:ge])
			if !dataset.ValidLetter(letter) {
				continue
			}
			if start > lastPos {
				lastPos = start
				last = letter
			}
		}
	}

	if lastPos < 0 {
		return "", false
	}
	return last, true
}
