package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/havenline/haven/internal/convo"
	"github.com/havenline/haven/internal/llm"
	"github.com/havenline/haven/internal/prompts"
)

// Generation settings for report writing. Cooler and longer than a
// conversational turn.
var reportGen = llm.GenConfig{Temperature: 0.5, MaxTokens: 1000}

// ReportGenerator summarizes a finished conversation into a report
// suitable for handing to a social worker or service provider.
type ReportGenerator struct {
	logger *slog.Logger
	llm    llm.Client
	model  string
}

// NewReportGenerator creates a report generator.
func NewReportGenerator(client llm.Client, model string, logger *slog.Logger) *ReportGenerator {
	return &ReportGenerator{logger: logger, llm: client, model: model}
}

// Generate produces the Markdown report for the transcript in a single
// model call.
func (g *ReportGenerator) Generate(ctx context.Context, history []convo.Message) (string, error) {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}

	messages := []llm.Message{
		{Role: "system", Content: prompts.ReportSystem},
		{Role: "user", Content: prompts.ReportPrompt(lines)},
	}

	resp, err := g.llm.Chat(ctx, g.model, messages, nil, reportGen)
	if err != nil {
		return "", fmt.Errorf("generate report: %w", err)
	}
	if resp.Message.Content == "" {
		return "", fmt.Errorf("generate report: model returned no text")
	}

	g.logger.Debug("report generated",
		"messages", len(history),
		"output_tokens", resp.OutputTokens,
	)
	return resp.Message.Content, nil
}
