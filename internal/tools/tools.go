// Package tools defines the capabilities available to the agent.
//
// A capability is a named, schema-typed action the model may request
// instead of replying directly. The registry holds the declarations
// passed to the model, validates invocations against their schemas,
// and dispatches execution to the registered handler.
package tools

import (
	"context"
	"fmt"
)

// Capability names shipped by default.
const (
	// RequestUserLocation asks the client to prompt the user for GPS
	// coordinates. It has no server-side handler: execution is delegated
	// to the client, which supplies coordinates out of band.
	RequestUserLocation = "request_user_location"

	// SearchWeb runs a live web search for nearby resources.
	SearchWeb = "search_web"
)

// Tool represents a callable capability.
type Tool struct {
	Name        string                                                         `json:"name"`
	Description string                                                         `json:"description"`
	Parameters  map[string]any                                                 `json:"parameters"`
	Handler     func(ctx context.Context, args map[string]any) (string, error) `json:"-"`
}

// Registry holds available capabilities.
type Registry struct {
	tools map[string]*Tool
	order []string // declaration order, for stable List output
}

// NewRegistry creates a registry with the default capability
// declarations. The search_web handler is attached by the search
// package; request_user_location never gets one.
func NewRegistry() *Registry {
	r := &Registry{
		tools: make(map[string]*Tool),
	}
	r.registerBuiltins()
	return r
}

func (r *Registry) registerBuiltins() {
	r.Register(&Tool{
		Name:        RequestUserLocation,
		Description: "Request the user's current GPS location to help find nearby resources such as shelters, food banks, or services. Use this when the user needs location-based assistance.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"reason": map[string]any{
					"type":        "string",
					"description": "Brief explanation of why location is needed (e.g., 'to find nearby shelters')",
				},
			},
			"required": []string{"reason"},
		},
	})

	r.Register(&Tool{
		Name:        SearchWeb,
		Description: "Search the web to find resources like shelters, food banks, healthcare services, and other assistance programs. Use this when you need real, current information. If the user's location is known it is automatically added to the search.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query, e.g. 'food banks' or 'homeless shelters'. Do NOT include a location; it is added automatically when known.",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Maximum number of search results to return (default: 5)",
				},
			},
			"required": []string{"query"},
		},
	})
}

// Register adds a capability to the registry. Registering an existing
// name replaces the previous declaration.
func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// SetHandler attaches an execution handler to an already-declared
// capability. Returns an error for unknown names.
func (r *Registry) SetHandler(name string, h func(ctx context.Context, args map[string]any) (string, error)) error {
	t, ok := r.tools[name]
	if !ok {
		return fmt.Errorf("unknown capability: %s", name)
	}
	t.Handler = h
	return nil
}

// Get retrieves a capability by name. Returns nil if not registered.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// List returns all capability declarations for the model, in
// registration order.
func (r *Registry) List() []map[string]any {
	result := make([]map[string]any, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		result = append(result, map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"parameters":  t.Parameters,
		})
	}
	return result
}

// Validate checks an invocation against the capability's schema.
// It fails with a *SchemaError when the name is unknown or a required
// argument is missing or blank. Pure lookup; no side effects.
func (r *Registry) Validate(name string, args map[string]any) error {
	t, ok := r.tools[name]
	if !ok {
		return &SchemaError{Capability: name, Reason: "unknown capability"}
	}

	for _, param := range requiredParams(t.Parameters) {
		v, present := args[param]
		if !present || v == nil {
			return &SchemaError{Capability: name, Param: param, Reason: "required argument missing"}
		}
		if s, isString := v.(string); isString && s == "" {
			return &SchemaError{Capability: name, Param: param, Reason: "required argument is blank"}
		}
	}

	return nil
}

// Execute validates and runs a capability by name.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	if err := r.Validate(name, args); err != nil {
		return "", err
	}

	t := r.tools[name]
	if t.Handler == nil {
		return "", fmt.Errorf("capability %s has no server-side handler", name)
	}

	return t.Handler(ctx, args)
}

// requiredParams extracts the required parameter names from a JSON-schema
// parameters map. The schema is built in Go, so required is []string, but
// a schema decoded from JSON carries []any; both are handled.
func requiredParams(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		names := make([]string, 0, len(req))
		for _, v := range req {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}
