// Package tools provides the capability registry and execution framework.
//
// This file defines sentinel error types for capability validation.
package tools

import "fmt"

// SchemaError is returned when a capability invocation references an
// unknown name or violates the declared parameter schema. It indicates
// a malformed invocation from the model, not a transient execution
// failure; callers should reply with a generic refusal rather than
// executing anything.
type SchemaError struct {
	Capability string
	Param      string
	Reason     string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("capability %q: parameter %q: %s", e.Capability, e.Param, e.Reason)
	}
	return fmt.Sprintf("capability %q: %s", e.Capability, e.Reason)
}
