package agent

import (
	"context"

	"github.com/ternarybob/rantradar/internal/services/tools"
)

// TurnKind identifies an entry in the research history
type TurnKind string

const (
	TurnQuery      TurnKind = "query"       // The product being researched
	TurnToolCall   TurnKind = "tool_call"   // Decider asked for a tool
	TurnToolResult TurnKind = "tool_result" // Observation returned by the tool
	TurnFinal      TurnKind = "final"       // Budget exhausted, tools disabled
)

// Turn is one entry of the research history
type Turn struct {
	Kind    TurnKind
	Content string
	Call    *tools.ToolCall
	Result  *tools.ToolResult
}

// Decision is either a tool call or a stop with the findings text
type Decision struct {
	Call *tools.ToolCall
	Text string
}

// CallTool returns a decision to invoke a tool. text is the reasoning that
// accompanied the request, if any.
func CallTool(call tools.ToolCall, text string) Decision {
	return Decision{Call: &call, Text: text}
}

// Stop returns a decision to end research with the given findings
func Stop(text string) Decision {
	return Decision{Text: text}
}

// IsStop reports whether the decision ends the research
func (d Decision) IsStop() bool {
	return d.Call == nil
}

// Decider chooses the next step from the history so far. When the last turn is
// TurnFinal the decider must not call tools.
type Decider interface {
	Decide(ctx context.Context, history []Turn) (Decision, error)
}

// Toolbox executes tool calls for one research run
type Toolbox interface {
	Execute(ctx context.Context, call tools.ToolCall) (*tools.ToolResult, error)
	PostsSeen() []string
}

// Report summarizes a research run
type Report struct {
	Findings  string
	Steps     int
	ToolCalls int
	PostsSeen []string
}

// isFinal reports whether history ends with the budget-exhausted marker
func isFinal(history []Turn) bool {
	return len(history) > 0 && history[len(history)-1].Kind == TurnFinal
}
