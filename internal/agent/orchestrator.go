// Package agent implements the per-turn orchestration loop: one model
// call, at most one capability execution, at most one resubmission.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/havenline/haven/internal/convo"
	"github.com/havenline/haven/internal/llm"
	"github.com/havenline/haven/internal/prompts"
	"github.com/havenline/haven/internal/tools"
)

// Generation settings for conversational turns.
var turnGen = llm.GenConfig{Temperature: 0.7, MaxTokens: 500}

// Orchestrator drives a single conversation turn against the model and
// the capability registry.
type Orchestrator struct {
	logger   *slog.Logger
	llm      llm.Client
	model    string
	registry *tools.Registry
}

// NewOrchestrator creates a turn orchestrator.
func NewOrchestrator(client llm.Client, model string, registry *tools.Registry, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		logger:   logger,
		llm:      client,
		model:    model,
		registry: registry,
	}
}

// Turn produces the assistant's reply to the latest user message. The
// full history, latest message last, goes into a single model call.
// Whatever goes wrong, the caller always gets something speakable: any
// failure collapses to a fixed apologetic reply.
func (o *Orchestrator) Turn(ctx context.Context, history []convo.Message, loc *tools.Location) string {
	reply, err := o.turn(ctx, history, loc)
	if err != nil {
		o.logger.Error("turn failed", "error", err)
		return prompts.TurnFallback
	}
	return reply
}

func (o *Orchestrator) turn(ctx context.Context, history []convo.Message, loc *tools.Location) (string, error) {
	if len(history) == 0 {
		return prompts.Greeting, nil
	}

	messages := buildMessages(history)

	resp, err := o.llm.Chat(ctx, o.model, messages, o.registry.List(), turnGen)
	if err != nil {
		return "", err
	}

	switch inv := ParseInvocation(resp).(type) {
	case NoInvocation:
		return textOrErr(resp)

	case LocationRequest:
		// Delegated to the client: the reply is a JSON payload the
		// frontend recognizes, and no capability runs.
		o.logger.Debug("location requested", "reason", inv.Reason)
		return locationReply(inv)

	case CapabilityCall:
		o.logger.Debug("capability requested",
			"capability", inv.Name,
			"has_location", loc != nil,
		)
		if loc != nil {
			ctx = tools.WithLocation(ctx, loc.Lat, loc.Lon)
		}
		result, err := o.registry.Execute(ctx, inv.Name, inv.Args)
		if err != nil {
			var schemaErr *tools.SchemaError
			if errors.As(err, &schemaErr) {
				o.logger.Warn("capability rejected", "error", schemaErr)
				return prompts.UnsupportedRequest, nil
			}
			return "", err
		}

		// Resubmit once with the capability result so the model can
		// speak to the user about it. A second capability request
		// here is not honored; only the text comes back.
		messages = append(messages,
			llm.Message{Role: "assistant", Content: resp.Message.Content, ToolCalls: resp.Message.ToolCalls[:1]},
			llm.Message{Role: "tool", Content: result, ToolCallID: inv.Name},
		)
		resp, err = o.llm.Chat(ctx, o.model, messages, o.registry.List(), turnGen)
		if err != nil {
			return "", err
		}
		return textOrErr(resp)

	default:
		return "", errors.New("unhandled invocation variant")
	}
}

// buildMessages prefixes the standing instruction and converts the
// stored history for the model.
func buildMessages(history []convo.Message) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: "system", Content: prompts.System})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	return messages
}

func textOrErr(resp *llm.ChatResponse) (string, error) {
	if resp.Message.Content == "" {
		return "", errors.New("model returned no text")
	}
	return resp.Message.Content, nil
}

// locationReply serializes the client-delegated location request.
func locationReply(req LocationRequest) (string, error) {
	reason := req.Reason
	if reason == "" {
		reason = "to assist you better"
	}
	payload := struct {
		Type    string `json:"type"`
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}{
		Type:    "request_location",
		Reason:  reason,
		Message: prompts.LocationRequest(reason),
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
