package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/havenline/haven/internal/convo"
	"github.com/havenline/haven/internal/llm"
)

type stubReporter struct {
	report    string
	err       error
	histories [][]convo.Message
}

func (s *stubReporter) Generate(ctx context.Context, history []convo.Message) (string, error) {
	s.histories = append(s.histories, history)
	return s.report, s.err
}

type stubLLM struct {
	pingErr error
}

func (s *stubLLM) Chat(ctx context.Context, model string, messages []llm.Message, tools []map[string]any, gen llm.GenConfig) (*llm.ChatResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *stubLLM) Ping(ctx context.Context) error { return s.pingErr }

type testServer struct {
	srv      *httptest.Server
	store    *convo.MemStore
	reporter *stubReporter
	llm      *stubLLM
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := convo.NewMemStore()
	reporter := &stubReporter{report: "# Report\n\nNeeds shelter."}
	client := &stubLLM{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gateway := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	s := NewServer("127.0.0.1", 0, store, reporter, gateway, client, logger)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, store: store, reporter: reporter, llm: client}
}

func (ts *testServer) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.srv.URL+path, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(ts.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return resp, decodeBody(t, resp)
	}
	return resp, nil
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestStartConversation(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.post(t, "/conversation/start", `{"user_id": "user-1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	id, _ := body["conversation_id"].(string)
	if id == "" {
		t.Fatal("missing conversation_id")
	}

	conv, err := ts.store.Conversation(id)
	if err != nil {
		t.Fatalf("conversation not stored: %v", err)
	}
	if conv.UserID != "user-1" {
		t.Errorf("user = %q", conv.UserID)
	}
}

func TestStartConversationBadRequest(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{`{}`, `{"user_id": "  "}`, `not json`} {
		if resp, _ := ts.post(t, "/conversation/start", body); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: status %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestEndConversation(t *testing.T) {
	ts := newTestServer(t)
	conv, _ := ts.store.CreateConversation("user-1")
	ts.store.AppendMessage(conv.ID, convo.Message{ID: "m1", Role: convo.RoleUser, Content: "I need help"})

	resp, body := ts.post(t, "/conversation/"+conv.ID+"/end", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if body["report"] != "# Report\n\nNeeds shelter." {
		t.Errorf("report = %v", body["report"])
	}
	if len(ts.reporter.histories) != 1 || len(ts.reporter.histories[0]) != 1 {
		t.Error("reporter did not receive the transcript")
	}

	stored, _ := ts.store.Conversation(conv.ID)
	if !stored.Ended() || stored.Report == "" {
		t.Error("end or report not persisted")
	}

	// Second end conflicts.
	if resp, _ := ts.post(t, "/conversation/"+conv.ID+"/end", ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("second end: status %d, want 409", resp.StatusCode)
	}
}

func TestEndConversationNotFound(t *testing.T) {
	ts := newTestServer(t)
	if resp, _ := ts.post(t, "/conversation/nope/end", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status %d, want 404", resp.StatusCode)
	}
}

func TestEndConversationReportFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.reporter.report = ""
	ts.reporter.err = errors.New("model offline")
	conv, _ := ts.store.CreateConversation("user-1")

	// The end stands even when the report cannot be generated.
	resp, body := ts.post(t, "/conversation/"+conv.ID+"/end", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if body["report"] != "" {
		t.Errorf("report = %v", body["report"])
	}
	stored, _ := ts.store.Conversation(conv.ID)
	if !stored.Ended() {
		t.Error("conversation not ended")
	}
}

func TestLocation(t *testing.T) {
	ts := newTestServer(t)
	conv, _ := ts.store.CreateConversation("user-1")

	resp, _ := ts.post(t, "/conversation/"+conv.ID+"/location", `{"latitude": 39.78, "longitude": -89.65}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	stored, _ := ts.store.Conversation(conv.ID)
	if lat, lon, ok := stored.Location(); !ok || lat != 39.78 || lon != -89.65 {
		t.Errorf("location = (%g, %g, %v)", lat, lon, ok)
	}

	if resp, _ := ts.post(t, "/conversation/"+conv.ID+"/location", `{"latitude": 100, "longitude": 0}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("out of range: status %d, want 400", resp.StatusCode)
	}
	if resp, _ := ts.post(t, "/conversation/nope/location", `{"latitude": 1, "longitude": 2}`); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown: status %d, want 404", resp.StatusCode)
	}

	ts.store.EndConversation(conv.ID)
	if resp, _ := ts.post(t, "/conversation/"+conv.ID+"/location", `{"latitude": 1, "longitude": 2}`); resp.StatusCode != http.StatusConflict {
		t.Errorf("ended: status %d, want 409", resp.StatusCode)
	}
}

func TestReport(t *testing.T) {
	ts := newTestServer(t)
	conv, _ := ts.store.CreateConversation("user-1")

	// Not available until generated.
	if resp, _ := ts.get(t, "/conversation/"+conv.ID+"/report"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("before end: status %d, want 404", resp.StatusCode)
	}

	ts.store.EndConversation(conv.ID)
	ts.store.SetReport(conv.ID, "# Summary\n\nNeeds **urgent** shelter.")

	resp, body := ts.get(t, "/conversation/"+conv.ID+"/report")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if body["report"] != "# Summary\n\nNeeds **urgent** shelter." {
		t.Errorf("report = %v", body["report"])
	}
}

func TestReportHTML(t *testing.T) {
	ts := newTestServer(t)
	conv, _ := ts.store.CreateConversation("user-1")
	ts.store.EndConversation(conv.ID)
	ts.store.SetReport(conv.ID, "# Summary\n\nNeeds **urgent** shelter.")

	resp, _ := ts.get(t, "/conversation/"+conv.ID+"/report?format=html")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	defer resp.Body.Close()
	html, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"<h1>Summary</h1>", "<strong>urgent</strong>", "<!DOCTYPE html>"} {
		if !strings.Contains(string(html), want) {
			t.Errorf("missing %q in rendered report", want)
		}
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.get(t, "/healthz")
	if resp.StatusCode != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("status %d, body %v", resp.StatusCode, body)
	}

	ts.llm.pingErr = errors.New("connection refused")
	resp, body = ts.get(t, "/healthz")
	if resp.StatusCode != http.StatusServiceUnavailable || body["status"] != "degraded" {
		t.Errorf("status %d, body %v", resp.StatusCode, body)
	}
}

func TestRoot(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.get(t, "/")
	if resp.StatusCode != http.StatusOK || body["name"] != "Haven" {
		t.Errorf("status %d, body %v", resp.StatusCode, body)
	}
}
