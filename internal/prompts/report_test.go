package prompts

import (
	"strings"
	"testing"
)

func TestReportPrompt(t *testing.T) {
	got := ReportPrompt([]string{"user: I need a shelter", "assistant: Here are three nearby."})

	if !strings.Contains(got, "user: I need a shelter\nassistant: Here are three nearby.") {
		t.Error("transcript not interpolated in order")
	}
	for _, section := range []string{
		"Summary of the person's situation",
		"Identified needs and concerns",
		"Resources and assistance discussed",
		"Recommended next steps and action items",
		"Follow-up recommendations",
	} {
		if !strings.Contains(got, section) {
			t.Errorf("missing section %q", section)
		}
	}
}
