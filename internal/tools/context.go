package tools

import "context"

type contextKey string

const conversationIDKey contextKey = "conversation_id"
const locationKey contextKey = "location"

// Location is a latitude/longitude pair carried through capability
// execution contexts.
type Location struct {
	Lat float64
	Lon float64
}

// WithConversationID adds the conversation ID to the context.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationIDKey, id)
}

// ConversationIDFromContext extracts the conversation ID from the context.
// Returns "default" if not set.
func ConversationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(conversationIDKey).(string); ok && id != "" {
		return id
	}
	return "default"
}

// WithLocation adds the user's last known location to the context so
// location-aware capabilities (search_web) can bias their results.
func WithLocation(ctx context.Context, lat, lon float64) context.Context {
	return context.WithValue(ctx, locationKey, Location{Lat: lat, Lon: lon})
}

// LocationFromContext extracts the user's location from the context.
// The second return is false when no location was set.
func LocationFromContext(ctx context.Context) (Location, bool) {
	loc, ok := ctx.Value(locationKey).(Location)
	return loc, ok
}
