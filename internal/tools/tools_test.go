package tools

import (
	"context"
	"errors"
	"testing"
)

func TestDefaultDeclarations(t *testing.T) {
	r := NewRegistry()

	defs := r.List()
	if len(defs) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(defs))
	}
	// Registration order is stable.
	if defs[0]["name"] != RequestUserLocation || defs[1]["name"] != SearchWeb {
		t.Errorf("declaration order = %v, %v", defs[0]["name"], defs[1]["name"])
	}

	if r.Get(SearchWeb) == nil {
		t.Error("search_web not registered")
	}
	if r.Get(RequestUserLocation).Handler != nil {
		t.Error("request_user_location must not have a server-side handler")
	}
}

func TestValidate(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantErr bool
	}{
		{"search ok", SearchWeb, map[string]any{"query": "food banks"}, false},
		{"search with max", SearchWeb, map[string]any{"query": "shelters", "max_results": float64(3)}, false},
		{"search missing query", SearchWeb, map[string]any{"max_results": float64(3)}, true},
		{"search blank query", SearchWeb, map[string]any{"query": ""}, true},
		{"search nil query", SearchWeb, map[string]any{"query": nil}, true},
		{"location ok", RequestUserLocation, map[string]any{"reason": "to find nearby shelters"}, false},
		{"location missing reason", RequestUserLocation, map[string]any{}, true},
		{"unknown capability", "order_pizza", map[string]any{"size": "large"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate(tt.tool, tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var se *SchemaError
				if !errors.As(err, &se) {
					t.Errorf("error type = %T, want *SchemaError", err)
				}
			}
		})
	}
}

func TestExecuteDispatchesHandler(t *testing.T) {
	r := NewRegistry()

	var gotQuery string
	err := r.SetHandler(SearchWeb, func(_ context.Context, args map[string]any) (string, error) {
		gotQuery, _ = args["query"].(string)
		return "results", nil
	})
	if err != nil {
		t.Fatal(err)
	}

	out, err := r.Execute(context.Background(), SearchWeb, map[string]any{"query": "clinics"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "results" || gotQuery != "clinics" {
		t.Errorf("out = %q, query = %q", out, gotQuery)
	}
}

func TestExecuteValidatesFirst(t *testing.T) {
	r := NewRegistry()

	called := false
	_ = r.SetHandler(SearchWeb, func(context.Context, map[string]any) (string, error) {
		called = true
		return "", nil
	})

	_, err := r.Execute(context.Background(), SearchWeb, map[string]any{})
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
	if called {
		t.Error("handler must not run for an invalid invocation")
	}
}

func TestExecuteNoHandler(t *testing.T) {
	r := NewRegistry()

	_, err := r.Execute(context.Background(), RequestUserLocation, map[string]any{"reason": "x"})
	if err == nil {
		t.Fatal("expected error for handler-less capability")
	}
	var se *SchemaError
	if errors.As(err, &se) {
		t.Error("missing handler is not a schema error")
	}
}

func TestSetHandlerUnknown(t *testing.T) {
	r := NewRegistry()
	if err := r.SetHandler("nope", nil); err == nil {
		t.Fatal("expected error for unknown capability")
	}
}

func TestRequiredParamsDecodedSchema(t *testing.T) {
	// Schemas decoded from JSON carry []any rather than []string.
	r := NewRegistry()
	r.Register(&Tool{
		Name: "custom",
		Parameters: map[string]any{
			"type":     "object",
			"required": []any{"a", "b"},
		},
	})

	if err := r.Validate("custom", map[string]any{"a": "x"}); err == nil {
		t.Fatal("expected error for missing required arg from []any schema")
	}
	if err := r.Validate("custom", map[string]any{"a": "x", "b": "y"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSchemaErrorMessage(t *testing.T) {
	e := &SchemaError{Capability: "search_web", Param: "query", Reason: "required argument missing"}
	want := `capability "search_web": parameter "query": required argument missing`
	if e.Error() != want {
		t.Errorf("Error() = %q", e.Error())
	}
}
