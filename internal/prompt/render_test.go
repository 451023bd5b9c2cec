package prompt

import (
	"strings"
	"testing"

	"github.com/stellarlinkco/qbench/internal/dataset"
)

func sampleExample() *dataset.Example {
	return &dataset.Example{
		Question:     "Which planet is known as the Red Planet?",
		Choices:      []string{"Earth", "Mars", "Jupiter", "Venus", "Mercury", "Saturn", "Neptune", "Uranus"},
		CorrectIndex: 1,
		Subdomain:    "Astronomy",
	}
}

func TestRender_ZeroShot(t *testing.T) {
	got, err := Render(sampleExample(), ModeZeroShot)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.HasPrefix(got, "What is the correct answer to this question: Which planet") {
		t.Fatalf("missing question prefix: %q", got)
	}
	for _, want := range []string{"(A) Earth", "(D) Venus", "(H) Uranus"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing labeled choice %q in:\n%s", want, got)
		}
	}
	if !strings.Contains(got, `"The correct answer is (<insert answer id here>)."`) {
		t.Fatalf("missing format instruction:\n%s", got)
	}
}

func TestRender_ZeroShotCoT(t *testing.T) {
	got, err := Render(sampleExample(), ModeZeroShotCoT)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.Contains(got, "Let's think step by step:") {
		t.Fatalf("missing CoT instruction:\n%s", got)
	}
	if strings.Contains(got, "The correct answer is") {
		t.Fatalf("first CoT turn must not force format:\n%s", got)
	}
}

func TestFollowUp(t *testing.T) {
	first, err := Render(sampleExample(), ModeZeroShotCoT)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	got := FollowUp(first, "It has iron oxide on its surface, so (B).")
	if !strings.HasPrefix(got, first) {
		t.Fatalf("follow-up must start with first prompt")
	}
	if !strings.Contains(got, "iron oxide") {
		t.Fatalf("follow-up must embed the first response")
	}
	if !strings.HasSuffix(got, `"The correct answer is (<insert answer id here>)."`) {
		t.Fatalf("follow-up must end with format instruction:\n%s", got)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{in: "zeroshot", want: ModeZeroShot, ok: true},
		{in: " ZeroShot ", want: ModeZeroShot, ok: true},
		{in: "zeroshot-CoT", want: ModeZeroShotCoT, ok: true},
		{in: "fewshot", ok: false},
		{in: "", ok: false},
	}

	for _, tc := range tests {
		got, err := ParseMode(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseMode(%q): %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseMode(%q): expected error", tc.in)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("ParseMode(%q): got %q want %q", tc.in, got, tc.want)
		}
	}
}
