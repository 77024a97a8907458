package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Fallback values used when the search stack is degraded. Crisis-response
// queries must always yield something actionable, so "no results" and
// "search down" both become present-but-degraded results instead of
// empty lists or errors.
const (
	fallbackTitle   = "Search Unavailable"
	fallbackSnippet = "Unable to search at this time. Try: Call 211 for local resources, or visit https://www.211.org"
	fallbackURL     = "https://www.211.org"
)

// ResourceSearcher runs location-aware resource searches. It rewrites
// the query with a reverse-geocoded place name when the user's location
// is known, and it never returns an empty result list: backend and
// geocoder failures are absorbed here, not propagated.
type ResourceSearcher struct {
	manager        *Manager
	geocoder       Geocoder
	logger         *slog.Logger
	geocodeTimeout time.Duration
	searchTimeout  time.Duration
}

// NewResourceSearcher creates a resource searcher. The geocoder may be
// nil, in which case queries are never location-enriched by place name.
func NewResourceSearcher(mgr *Manager, geo Geocoder, geocodeTimeout, searchTimeout time.Duration, logger *slog.Logger) *ResourceSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	if geocodeTimeout <= 0 {
		geocodeTimeout = 5 * time.Second
	}
	if searchTimeout <= 0 {
		searchTimeout = 10 * time.Second
	}
	return &ResourceSearcher{
		manager:        mgr,
		geocoder:       geo,
		logger:         logger.With("component", "search"),
		geocodeTimeout: geocodeTimeout,
		searchTimeout:  searchTimeout,
	}
}

// Location is an optional latitude/longitude pair for a search.
type Location struct {
	Lat float64
	Lon float64
}

// Search runs a resource search. The returned slice always holds at
// least one and at most maxResults results (maxResults below 1 falls
// back to the default of 5). It never returns an error; degraded
// conditions produce a fixed fallback result instead.
func (rs *ResourceSearcher) Search(ctx context.Context, query string, maxResults int, loc *Location) []Result {
	if maxResults < 1 {
		maxResults = 5
	}

	effective := rs.rewriteQuery(ctx, query, loc)

	provider, err := rs.manager.Primary()
	if err != nil {
		rs.logger.Error("no search provider configured", "error", err)
		return []Result{fallbackResult()}
	}

	searchCtx, cancel := context.WithTimeout(ctx, rs.searchTimeout)
	defer cancel()

	results, err := provider.Search(searchCtx, effective, Options{Count: maxResults})
	if err != nil {
		rs.logger.Warn("search backend failed", "provider", provider.Name(), "query", effective, "error", err)
		return []Result{fallbackResult()}
	}

	if len(results) == 0 {
		// any result beats no result
		return []Result{{
			Title:   "Search Info",
			Snippet: fmt.Sprintf("Search query: %s. For better results, try searching online directly or contact local 211 services.", effective),
			URL:     provider.SearchPage(effective),
		}}
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// rewriteQuery appends the user's whereabouts to the query: a geocoded
// place name when available, raw coordinates when geocoding fails, and
// the unmodified query when no location is known.
func (rs *ResourceSearcher) rewriteQuery(ctx context.Context, query string, loc *Location) string {
	if loc == nil {
		return query
	}
	if rs.geocoder == nil {
		return fmt.Sprintf("%s near %g,%g", query, loc.Lat, loc.Lon)
	}

	geoCtx, cancel := context.WithTimeout(ctx, rs.geocodeTimeout)
	defer cancel()

	place, err := rs.geocoder.LocationName(geoCtx, loc.Lat, loc.Lon)
	if err != nil {
		rs.logger.Debug("reverse geocoding failed, using raw coordinates", "error", err)
		return fmt.Sprintf("%s near %g,%g", query, loc.Lat, loc.Lon)
	}

	rs.logger.Debug("query enriched with location", "place", place)
	return fmt.Sprintf("%s near %s", query, place)
}

func fallbackResult() Result {
	return Result{
		Title:   fallbackTitle,
		Snippet: fallbackSnippet,
		URL:     fallbackURL,
	}
}
