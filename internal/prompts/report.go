package prompts

import (
	"fmt"
	"strings"
)

// ReportSystem frames the model as a report writer rather than the
// conversational agent.
const ReportSystem = "You are a helpful assistant that generates professional social service reports."

// reportTemplate is the prompt for summarizing a finished conversation.
// The single format verb is the transcript as role: content lines.
const reportTemplate = `Based on the following conversation, generate a detailed report that includes:

1. Summary of the person's situation
2. Identified needs and concerns
3. Resources and assistance discussed
4. Recommended next steps and action items
5. Follow-up recommendations

Please format the report in a clear, professional manner that can be shared with social workers or service providers.

Conversation:
%s`

// ReportPrompt returns the fully interpolated report prompt for the
// given transcript lines ("role: content").
func ReportPrompt(lines []string) string {
	return fmt.Sprintf(reportTemplate, strings.Join(lines, "\n"))
}
