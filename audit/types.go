// Package audit implements an append-only, rotating, redacting event log
// for the orchestration core.
package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType discriminates the tagged Data payload an Event carries.
type EventType string

const (
	EventAgentExecution EventType = "agent_execution"
	EventAPICall        EventType = "api_call"
	EventToolCall       EventType = "tool_call"
	EventTokenUsage     EventType = "token_usage"
	EventSecurity       EventType = "security"
)

// Event is a single append-only audit record.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	SessionID string            `json:"session_id,omitempty"`
	ActorID   string            `json:"actor_id"`
	Type      EventType         `json:"type"`
	Data      interface{}       `json:"data"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEvent creates an Event with a generated ID and the current time.
func NewEvent(actorID string, eventType EventType, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		ActorID:   actorID,
		Type:      eventType,
		Data:      data,
		Metadata:  make(map[string]string),
	}
}

// WithSession attaches a session id.
func (e Event) WithSession(sessionID string) Event {
	e.SessionID = sessionID
	return e
}

// WithMetadata attaches a redaction-sanitized metadata value. When key
// itself names a credential (api_key, token, secret, password,
// authorization), the value is stored in SanitizeValue's redacted
// "key=[REDACTED]" form; otherwise credential assignments inside value are
// redacted. SanitizePath is applied in both cases.
func (e Event) WithMetadata(key, value string) Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	sanitized := SanitizeValue(value)
	if pair := SanitizeValue(key + "=" + value); strings.HasPrefix(pair, key+"=[REDACTED]") {
		sanitized = pair
	}
	e.Metadata[key] = SanitizePath(sanitized)
	return e
}

// ExecutionStatus is the lifecycle status of an agent execution event.
type ExecutionStatus string

const (
	ExecutionStarted   ExecutionStatus = "started"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
	ExecutionCancelled ExecutionStatus = "cancelled"
)

// AgentExecutionData is the payload for EventAgentExecution.
type AgentExecutionData struct {
	AgentName   string          `json:"agent_name"`
	Status      ExecutionStatus `json:"status"`
	Goal        string          `json:"goal"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     *time.Time      `json:"end_time,omitempty"`
	DurationSec *float64        `json:"duration_secs,omitempty"`
	TokensUsed  int             `json:"tokens_used"`
	Artifacts   []string        `json:"artifacts,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// APICallData is the payload for EventAPICall.
type APICallData struct {
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	RequestTime      time.Time `json:"request_time"`
	ResponseTime     *time.Time `json:"response_time,omitempty"`
	LatencyMS        *int64    `json:"latency_ms,omitempty"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	StatusCode       *int      `json:"status_code,omitempty"`
	Error            string    `json:"error,omitempty"`
	PromptPreview    string    `json:"prompt_preview"`
	ResponsePreview  string    `json:"response_preview,omitempty"`
}

// ToolCallData is the payload for EventToolCall.
type ToolCallData struct {
	ToolName          string `json:"tool_name"`
	CallID            string `json:"call_id"`
	Parameters        string `json:"parameters"`
	ExecutionTime     time.Time `json:"execution_time"`
	DurationMS        int64  `json:"duration_ms"`
	Success           bool   `json:"success"`
	OutputPreview     string `json:"output_preview"`
	Error             string `json:"error,omitempty"`
	PermissionGranted bool   `json:"permission_granted"`
	SandboxPolicy     string `json:"sandbox_policy,omitempty"`
}

// TokenUsageData is the payload for EventTokenUsage.
type TokenUsageData struct {
	EntityID        string    `json:"entity_id"`
	EntityType      string    `json:"entity_type"` // "agent", "user", "session"
	TokensConsumed  int       `json:"tokens_consumed"`
	BudgetLimit     *int      `json:"budget_limit,omitempty"`
	BudgetRemaining *int      `json:"budget_remaining,omitempty"`
	Utilization     float64   `json:"utilization"`
	Timestamp       time.Time `json:"timestamp"`
	Operation       string    `json:"operation"`
}

// SecuritySeverity ranks a SecurityData event's severity.
type SecuritySeverity string

const (
	SeverityInfo     SecuritySeverity = "info"
	SeverityWarning  SecuritySeverity = "warning"
	SeverityCritical SecuritySeverity = "critical"
)

// SecurityCategory classifies a SecurityData event.
type SecurityCategory string

const (
	CategoryPermissionDenied   SecurityCategory = "permission_denied"
	CategorySandboxViolation   SecurityCategory = "sandbox_violation"
	CategoryBudgetExceeded     SecurityCategory = "budget_exceeded"
	CategoryUnauthorizedAccess SecurityCategory = "unauthorized_access"
	CategorySuspiciousActivity SecurityCategory = "suspicious_activity"
)

// SecurityAction records what the system did in response to a
// SecurityData event.
type SecurityAction string

const (
	ActionAllowed   SecurityAction = "allowed"
	ActionBlocked   SecurityAction = "blocked"
	ActionLogged    SecurityAction = "logged"
	ActionEscalated SecurityAction = "escalated"
)

// SecurityData is the payload for EventSecurity.
type SecurityData struct {
	Severity SecuritySeverity  `json:"severity"`
	Category SecurityCategory  `json:"category"`
	Message  string            `json:"message"`
	Source   string            `json:"source"`
	Action   SecurityAction    `json:"action"`
	Context  map[string]string `json:"context,omitempty"`
}
