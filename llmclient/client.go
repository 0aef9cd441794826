// Package llmclient defines the narrow interface the agent runtime uses
// to drive an LLM turn. No concrete provider lives in this module —
// wiring a real OpenAI/Anthropic/etc. backend is left to the embedding
// application.
package llmclient

import "context"

// EventKind discriminates the tagged Event union a Client emits while
// streaming a turn.
type EventKind string

const (
	EventCreated        EventKind = "created"
	EventOutputItemDone EventKind = "output_item_done"
	EventCompleted      EventKind = "completed"
	EventRateLimits     EventKind = "rate_limits"
	EventError          EventKind = "error"
)

// Event is one item in the stream a Client.Stream call produces. Only the
// fields relevant to Kind are populated.
type Event struct {
	Kind EventKind

	// EventOutputItemDone
	OutputText string

	// EventCompleted
	ResponseID  string
	TotalTokens int

	// EventRateLimits
	RemainingRequests int
	RemainingTokens   int
	ResetSeconds      int

	// EventError
	Err error
}

// Prompt is the input to a single LLM turn.
type Prompt struct {
	SystemInstructions string
	UserMessage        string
	// ToolNames lists the MCP tool names the model may call this turn;
	// the runtime passes the agent definition's tools.mcp grant as is.
	ToolNames []string
}

// Client is the narrow surface the agent runtime needs from an LLM
// backend: submit a prompt, get back a channel of typed stream events.
// Implementations own their own transport, retries, and auth.
type Client interface {
	// Stream begins a turn and returns a channel of Events. The channel
	// is closed after an EventCompleted or EventError event. Cancelling
	// ctx must stop event delivery and close the channel.
	Stream(ctx context.Context, prompt Prompt) (<-chan Event, error)
}
