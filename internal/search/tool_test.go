package search

import (
	"context"
	"strings"
	"testing"

	"github.com/havenline/haven/internal/tools"
)

func TestToolHandler(t *testing.T) {
	p := &mockProvider{name: "mock", results: []Result{
		{Title: "Springfield Shelter", Snippet: "Open 24/7", URL: "https://a.com"},
	}}
	rs := newSearcher(p, &mockGeocoder{place: "Springfield, IL"})

	handler := ToolHandler(rs)

	ctx := tools.WithLocation(context.Background(), 39.78, -89.65)
	out, err := handler(ctx, map[string]any{"query": "homeless shelters", "max_results": float64(3)})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	if !strings.Contains(out, "1. Springfield Shelter") {
		t.Errorf("output = %q", out)
	}
	if p.queries[0] != "homeless shelters near Springfield, IL" {
		t.Errorf("query = %q", p.queries[0])
	}
}

func TestToolHandlerNoLocation(t *testing.T) {
	p := &mockProvider{name: "mock", results: []Result{{Title: "A"}}}
	rs := newSearcher(p, &mockGeocoder{place: "Springfield, IL"})

	out, err := ToolHandler(rs)(context.Background(), map[string]any{"query": "clinics"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if out == "" {
		t.Fatal("expected formatted output")
	}
	if p.queries[0] != "clinics" {
		t.Errorf("query = %q, want unmodified", p.queries[0])
	}
}

func TestRegisterTool(t *testing.T) {
	reg := tools.NewRegistry()
	p := &mockProvider{name: "mock", results: []Result{{Title: "A"}}}
	rs := newSearcher(p, nil)

	if err := RegisterTool(reg, rs); err != nil {
		t.Fatalf("RegisterTool: %v", err)
	}

	out, err := reg.Execute(context.Background(), tools.SearchWeb, map[string]any{"query": "food banks"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "1. A") {
		t.Errorf("output = %q", out)
	}
}
