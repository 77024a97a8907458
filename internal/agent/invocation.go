package agent

import (
	"github.com/havenline/haven/internal/llm"
	"github.com/havenline/haven/internal/tools"
)

// Invocation is what the model asked for in a reply, as a closed set of
// variants. The adapter never probes response internals beyond this.
type Invocation interface{ invocation() }

// NoInvocation means the reply is plain text.
type NoInvocation struct{}

// LocationRequest asks the client to supply coordinates. Nothing runs
// server-side.
type LocationRequest struct {
	Reason string
}

// CapabilityCall asks for a server-side capability. Arguments stay raw
// so the registry can validate them against the declared schema.
type CapabilityCall struct {
	Name string
	Args map[string]any
}

func (NoInvocation) invocation()    {}
func (LocationRequest) invocation() {}
func (CapabilityCall) invocation()  {}

// ParseInvocation classifies a model reply. Only the first capability
// request counts; any extras in the same reply are dropped.
func ParseInvocation(resp *llm.ChatResponse) Invocation {
	if len(resp.Message.ToolCalls) == 0 {
		return NoInvocation{}
	}
	call := resp.Message.ToolCalls[0]
	if call.Function.Name == tools.RequestUserLocation {
		reason, _ := call.Function.Arguments["reason"].(string)
		return LocationRequest{Reason: reason}
	}
	return CapabilityCall{Name: call.Function.Name, Args: call.Function.Arguments}
}
