package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/havenline/haven/internal/httpkit"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient is a client for the Gemini generateContent API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGeminiClient creates a new Gemini client. The API key is required;
// a missing key is a construction-time error rather than a deferred
// failure on the first request.
func NewGeminiClient(apiKey string, timeout time.Duration, logger *slog.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
		logger:  logger.With("provider", "gemini"),
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(timeout),
		),
	}, nil
}

// Gemini request/response types

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	Tools             []geminiTool     `json:"tools,omitempty"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string              `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResp `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type geminiFunctionResp struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiTool struct {
	FunctionDeclarations []map[string]any `json:"functionDeclarations"`
}

type geminiGenConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// Chat sends a non-streaming generateContent request.
func (c *GeminiClient) Chat(ctx context.Context, model string, messages []Message, tools []map[string]any, gen GenConfig) (*ChatResponse, error) {
	contents, systemPrompt := convertToGemini(messages)

	req := geminiRequest{
		Contents: contents,
	}
	if systemPrompt != "" {
		req.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		}
	}
	if len(tools) > 0 {
		req.Tools = []geminiTool{{FunctionDeclarations: tools}}
	}
	if gen.Temperature != 0 || gen.MaxTokens != 0 {
		gc := &geminiGenConfig{MaxOutputTokens: gen.MaxTokens}
		if gen.Temperature != 0 {
			t := gen.Temperature
			gc.Temperature = &t
		}
		req.GenerationConfig = gc
	}

	c.logger.Debug("preparing request",
		"model", model,
		"contents", len(contents),
		"tools", len(tools),
		"system_len", len(systemPrompt),
	)

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Log(ctx, LevelTrace, "request payload", "json", string(jsonData))

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody := httpkit.ReadErrorBody(resp.Body, 4096)
		c.logger.Error("API error", "status", resp.StatusCode, "body", errBody)
		return nil, fmt.Errorf("gemini API error %d: %s", resp.StatusCode, errBody)
	}

	return c.handleResponse(ctx, model, resp.Body)
}

func (c *GeminiClient) handleResponse(ctx context.Context, model string, body io.Reader) (*ChatResponse, error) {
	var gr geminiResponse
	if err := json.NewDecoder(body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(gr.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	result := convertFromGemini(&gr)
	if result.Model == "" {
		result.Model = model
	}

	c.logger.Debug("response received",
		"model", result.Model,
		"input_tokens", result.InputTokens,
		"output_tokens", result.OutputTokens,
		"tool_calls", len(result.Message.ToolCalls),
	)
	c.logger.Log(ctx, LevelTrace, "response content", "content", result.Message.Content)

	return result, nil
}

// Ping checks if the Gemini API is reachable and the key is valid.
// The models list endpoint is cheap and requires authentication.
func (c *GeminiClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("invalid API key")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status from Gemini API: %d", resp.StatusCode)
	}
	return nil
}

// convertToGemini maps neutral messages to Gemini contents. The first
// system message becomes the system instruction; assistant messages map
// to role "model"; tool results become functionResponse parts under
// role "user", which is how the generateContent API expects them.
func convertToGemini(messages []Message) ([]geminiContent, string) {
	var systemPrompt string
	contents := make([]geminiContent, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case "system":
			if systemPrompt == "" {
				systemPrompt = m.Content
			}
		case "assistant":
			gc := geminiContent{Role: "model"}
			if m.Content != "" {
				gc.Parts = append(gc.Parts, geminiPart{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				gc.Parts = append(gc.Parts, geminiPart{
					FunctionCall: &geminiFunctionCall{
						Name: tc.Function.Name,
						Args: tc.Function.Arguments,
					},
				})
			}
			if len(gc.Parts) > 0 {
				contents = append(contents, gc)
			}
		case "tool":
			contents = append(contents, geminiContent{
				Role: "user",
				Parts: []geminiPart{{
					FunctionResponse: &geminiFunctionResp{
						Name:     m.ToolCallID,
						Response: map[string]any{"content": m.Content},
					},
				}},
			})
		default: // user
			contents = append(contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: m.Content}},
			})
		}
	}

	return contents, systemPrompt
}

// convertFromGemini maps a Gemini response to the neutral ChatResponse.
// Text parts are concatenated; functionCall parts become ToolCalls.
func convertFromGemini(gr *geminiResponse) *ChatResponse {
	resp := &ChatResponse{
		Model:        gr.ModelVersion,
		InputTokens:  gr.UsageMetadata.PromptTokenCount,
		OutputTokens: gr.UsageMetadata.CandidatesTokenCount,
	}
	resp.Message.Role = "assistant"

	for _, part := range gr.Candidates[0].Content.Parts {
		if part.Text != "" {
			resp.Message.Content += part.Text
		}
		if part.FunctionCall != nil {
			resp.Message.ToolCalls = append(resp.Message.ToolCalls,
				NewToolCall(part.FunctionCall.Name, part.FunctionCall.Args))
		}
	}

	return resp
}
