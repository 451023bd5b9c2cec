package prompt

import (
	"fmt"
	"strings"

	"github.com/stellarlinkco/qbench/internal/dataset"
)

// Mode selects how an example is turned into prompts.
type Mode string

const (
	// ModeZeroShot asks for the answer directly in a forced format.
	ModeZeroShot Mode = "zeroshot"
	// ModeZeroShotCoT elicits free-form reasoning first; the answer is
	// forced into format in a second turn built with FollowUp.
	ModeZeroShotCoT Mode = "zeroshot-cot"
)

const formatInstruction = "\n\nFormat your response as follows: \"The correct answer is (<insert answer id here>).\""

// ParseMode validates a mode string. Unknown modes are a configuration
// error and must fail the run before any dispatch.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModeZeroShot):
		return ModeZeroShot, nil
	case "zeroshot-cot", "cot":
		return ModeZeroShotCoT, nil
	default:
		return "", fmt.Errorf("prompt: unknown prompt mode %q (expected zeroshot|zeroshot-cot)", s)
	}
}

// Render builds the first-turn prompt for an example.
func Render(ex *dataset.Example, mode Mode) (string, error) {
	if ex == nil {
		return "", fmt.Errorf("prompt: nil example")
	}

	switch mode {
	case ModeZeroShot:
		return base(ex) + formatInstruction, nil
	case ModeZeroShotCoT:
		return base(ex) + "\n\nLet's think step by step:\n", nil
	default:
		return "", fmt.Errorf("prompt: unknown prompt mode %q", mode)
	}
}

// FollowUp builds the second-turn prompt for the reasoning mode: the first
// prompt, the model's free-form response, then the same forced-format
// instruction the direct mode uses.
func FollowUp(firstPrompt, response string) string {
	return firstPrompt + response + formatInstruction
}

func base(ex *dataset.Example) string {
	var sb strings.Builder
	sb.WriteString("What is the correct answer to this question: ")
	sb.WriteString(ex.Question)
	sb.WriteString("\n\nChoices:")
	for i, c := range ex.Choices {
		letter, _ := dataset.IndexToLetter(i)
		sb.WriteString("\n(")
		sb.WriteString(letter)
		sb.WriteString(") ")
		sb.WriteString(c)
	}
	return sb.String()
}
