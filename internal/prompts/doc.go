// Package prompts holds the model-facing prompt text.
//
// Prompts live here as constants rather than config so that behavior
// changes go through code review. Callers treat them as opaque strings.
package prompts
