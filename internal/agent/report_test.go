package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/havenline/haven/internal/convo"
	"github.com/havenline/haven/internal/llm"
	"github.com/havenline/haven/internal/prompts"
)

func TestReportGenerate(t *testing.T) {
	client := &mockClient{responses: []*llm.ChatResponse{textResponse("# Report\n\nNeeds shelter and food assistance.")}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g := NewReportGenerator(client, "test-model", logger)

	history := []convo.Message{
		{Role: convo.RoleUser, Content: "I need a shelter tonight"},
		{Role: convo.RoleAssistant, Content: "The Overflow Shelter on 5th is open."},
	}
	report, err := g.Generate(context.Background(), history)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(report, "Needs shelter") {
		t.Errorf("got report %q", report)
	}

	if len(client.calls) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(client.calls))
	}
	call := client.calls[0]
	if call.gen != reportGen {
		t.Errorf("gen = %+v, want %+v", call.gen, reportGen)
	}
	if len(call.tools) != 0 {
		t.Error("report call must not offer capabilities")
	}
	if call.messages[0].Content != prompts.ReportSystem {
		t.Error("missing report system instruction")
	}
	if !strings.Contains(call.messages[1].Content, "user: I need a shelter tonight") {
		t.Error("transcript missing from prompt")
	}
}

func TestReportGenerateError(t *testing.T) {
	client := &mockClient{err: errors.New("model offline")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g := NewReportGenerator(client, "test-model", logger)

	if _, err := g.Generate(context.Background(), nil); err == nil {
		t.Error("expected error")
	}
}
