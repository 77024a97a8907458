package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestRunVersionText(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), &out, &out, []string{"version"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Haven") {
		t.Errorf("output missing banner: %q", out.String())
	}
	if !strings.Contains(out.String(), "go_version:") {
		t.Errorf("output missing fields: %q", out.String())
	}
}

func TestRunVersionJSON(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), &out, &out, []string{"-o", "json", "version"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if info["go_version"] == "" {
		t.Errorf("missing go_version in %v", info)
	}
}

func TestRunUsage(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), &out, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"serve", "ask", "version", "-config"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"bogus"}},
		{"unknown flag", []string{"-bogus"}},
		{"bad output format", []string{"-o", "xml", "version"}},
		{"ask without question", []string{"ask"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(context.Background(), &out, &out, tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunConfigFlagForms(t *testing.T) {
	// Both -config forms resolve; a missing explicit path must fail
	// rather than fall back to discovery.
	for _, args := range [][]string{
		{"-config", "/nonexistent/haven.yaml", "serve"},
		{"-config=/nonexistent/haven.yaml", "serve"},
	} {
		var out bytes.Buffer
		if err := run(context.Background(), &out, &out, args); err == nil {
			t.Errorf("args %v: expected error for missing config", args)
		}
	}
}
