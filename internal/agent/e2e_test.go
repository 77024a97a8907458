package agent

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/havenline/haven/internal/llm"
	"github.com/havenline/haven/internal/search"
	"github.com/havenline/haven/internal/tools"
)

// fixedProvider returns a canned result set.
type fixedProvider struct {
	queries []string
	results []search.Result
}

func (p *fixedProvider) Name() string { return "fixed" }

func (p *fixedProvider) SearchPage(query string) string {
	return "https://example.org/search?q=" + query
}

func (p *fixedProvider) Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	p.queries = append(p.queries, query)
	return p.results, nil
}

// The full shelter scenario: model asks for a search, the real search
// stack formats three results, the resubmitted model call produces the
// final reply.
func TestTurnShelterScenario(t *testing.T) {
	provider := &fixedProvider{results: []search.Result{
		{Title: "Springfield Overflow Shelter", Snippet: "Open 7pm-7am nightly", URL: "https://example.org/overflow"},
		{Title: "Helping Hands Shelter", Snippet: "Families welcome", URL: "https://example.org/hands"},
		{Title: "Safe Harbor", Snippet: "Walk-ins after 6pm", URL: "https://example.org/harbor"},
	}}
	manager := search.NewManager("fixed")
	manager.Register(provider)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	searcher := search.NewResourceSearcher(manager, nil, 0, 0, logger)

	registry := tools.NewRegistry()
	if err := search.RegisterTool(registry, searcher); err != nil {
		t.Fatalf("RegisterTool: %v", err)
	}

	client := &mockClient{responses: []*llm.ChatResponse{
		callResponse("", tools.SearchWeb, map[string]any{"query": "homeless shelters"}),
		textResponse("Three shelters are open tonight. Start with the Springfield Overflow Shelter at 7pm."),
	}}
	o := NewOrchestrator(client, "test-model", registry, logger)

	reply := o.Turn(context.Background(), userTurn("I need a shelter tonight"), nil)

	if !strings.Contains(reply, "shelter") && !strings.Contains(reply, "Shelter") {
		t.Errorf("reply not shelter-related: %q", reply)
	}
	if len(provider.queries) != 1 || provider.queries[0] != "homeless shelters" {
		t.Errorf("provider queries = %v", provider.queries)
	}

	// The resubmitted capability result is the numbered list.
	resubmitted := client.calls[1].messages
	toolMsg := resubmitted[len(resubmitted)-1]
	for _, want := range []string{"1. Springfield Overflow Shelter", "2. Helping Hands Shelter", "3. Safe Harbor", "https://example.org/overflow"} {
		if !strings.Contains(toolMsg.Content, want) {
			t.Errorf("formatted results missing %q:\n%s", want, toolMsg.Content)
		}
	}
}
