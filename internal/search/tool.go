package search

import (
	"context"

	"github.com/havenline/haven/internal/tools"
)

// RegisterTool attaches the search_web execution handler to the
// capability registry. The user's last known location rides in the
// execution context (see [tools.WithLocation]) so the model never has
// to echo coordinates through its arguments.
func RegisterTool(reg *tools.Registry, rs *ResourceSearcher) error {
	return reg.SetHandler(tools.SearchWeb, ToolHandler(rs))
}

// ToolHandler returns a function compatible with the tools.Tool Handler
// signature, wrapping the resource searcher.
func ToolHandler(rs *ResourceSearcher) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		query, _ := args["query"].(string)

		maxResults := 5
		// JSON numbers decode as float64.
		if n, ok := args["max_results"].(float64); ok && n > 0 {
			maxResults = int(n)
		}

		var loc *Location
		if l, ok := tools.LocationFromContext(ctx); ok {
			loc = &Location{Lat: l.Lat, Lon: l.Lon}
		}

		results := rs.Search(ctx, query, maxResults, loc)
		return FormatResults(results), nil
	}
}
