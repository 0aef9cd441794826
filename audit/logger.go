package audit

import (
	"log/slog"
	"sync"
	"time"
)

const defaultAutoFlushInterval = 5 * time.Second

// Logger is the high-level façade agents and the supervisor log through.
// It stamps a session id onto every event, writes through Storage, and
// after every write rotates the backing file if it has grown past its
// size limit.
type Logger struct {
	storage           Storage
	metrics           *Metrics
	sessionID         string
	autoFlushInterval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewLogger opens a FileStorage under logDir and starts its background
// auto-flush loop.
func NewLogger(logDir string) (*Logger, error) {
	storage, err := NewFileStorage(logDir)
	if err != nil {
		return nil, err
	}
	l := &Logger{
		storage:           storage,
		autoFlushInterval: defaultAutoFlushInterval,
		stopCh:            make(chan struct{}),
		doneCh:            make(chan struct{}),
	}
	go l.runAutoFlush()
	slog.Info("audit logger initialized", "dir", logDir)
	return l, nil
}

// WithSession returns a copy of the logger that stamps sessionID onto
// every event it writes.
func (l *Logger) WithSession(sessionID string) *Logger {
	clone := *l
	clone.sessionID = sessionID
	clone.stopOnce = sync.Once{}
	return &clone
}

// WithMetrics attaches Prometheus instrumentation.
func (l *Logger) WithMetrics(m *Metrics) *Logger {
	l.metrics = m
	return l
}

func (l *Logger) runAutoFlush() {
	defer close(l.doneCh)
	ticker := time.NewTicker(l.autoFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := l.storage.Flush(); err != nil {
				l.metrics.recordFlushError()
				slog.Error("audit auto-flush failed", "error", err)
			}
		case <-l.stopCh:
			return
		}
	}
}

// Close stops the auto-flush loop and closes the backing storage.
func (l *Logger) Close() error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		<-l.doneCh
	})
	return l.storage.Close()
}

// Flush forces buffered writes to disk immediately.
func (l *Logger) Flush() error {
	return l.storage.Flush()
}

// LogEvent stamps the session id (if any) onto event, writes it, and
// rotates the log file if it has grown too large.
func (l *Logger) LogEvent(event Event) error {
	if l.sessionID != "" && event.SessionID == "" {
		event = event.WithSession(l.sessionID)
	}
	if err := l.storage.WriteEvent(event); err != nil {
		slog.Error("audit event write failed", "event_type", event.Type, "error", err)
		return err
	}
	l.metrics.recordEvent(event.Type)
	if err := l.storage.RotateIfNeeded(); err != nil {
		slog.Error("audit log rotation failed", "error", err)
		return err
	}
	return nil
}

// LogAgentStart records that an agent delegation began at startTime, the
// same instant the caller will later pass to LogAgentComplete/LogAgentFailure
// so the Started and terminal records share one start_time.
func (l *Logger) LogAgentStart(actorID, agentName, goal string, startTime time.Time) error {
	return l.LogEvent(NewEvent(actorID, EventAgentExecution, AgentExecutionData{
		AgentName: agentName,
		Status:    ExecutionStarted,
		Goal:      goal,
		StartTime: startTime,
	}))
}

// LogAgentComplete records a successful agent delegation, computing its
// duration from startTime.
func (l *Logger) LogAgentComplete(actorID, agentName string, startTime time.Time, tokensUsed int, artifacts []string) error {
	end := time.Now().UTC()
	dur := end.Sub(startTime).Seconds()
	return l.LogEvent(NewEvent(actorID, EventAgentExecution, AgentExecutionData{
		AgentName:   agentName,
		Status:      ExecutionCompleted,
		StartTime:   startTime,
		EndTime:     &end,
		DurationSec: &dur,
		TokensUsed:  tokensUsed,
		Artifacts:   artifacts,
	}))
}

// LogAgentFailure records a failed agent delegation.
func (l *Logger) LogAgentFailure(actorID, agentName string, startTime time.Time, cause error) error {
	end := time.Now().UTC()
	dur := end.Sub(startTime).Seconds()
	return l.LogEvent(NewEvent(actorID, EventAgentExecution, AgentExecutionData{
		AgentName:   agentName,
		Status:      ExecutionFailed,
		StartTime:   startTime,
		EndTime:     &end,
		DurationSec: &dur,
		Error:       cause.Error(),
	}))
}

// LogAPICall records one LLM request/response round trip. Prompt and
// response text are truncated to 200 runes before being written.
func (l *Logger) LogAPICall(actorID, provider, model string, requestTime time.Time, latency time.Duration, promptTokens, completionTokens int, statusCode int, callErr error, prompt, response string) error {
	responseTime := requestTime.Add(latency)
	latencyMS := latency.Milliseconds()
	data := APICallData{
		Provider:         provider,
		Model:            model,
		RequestTime:      requestTime,
		ResponseTime:     &responseTime,
		LatencyMS:        &latencyMS,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		StatusCode:       &statusCode,
		PromptPreview:    Truncate(prompt, 200),
		ResponsePreview:  Truncate(response, 200),
	}
	if callErr != nil {
		data.Error = callErr.Error()
	}
	return l.LogEvent(NewEvent(actorID, EventAPICall, data))
}

// LogToolCall records a single tool invocation.
func (l *Logger) LogToolCall(actorID, toolName, callID string, parameters string, duration time.Duration, success bool, output string, callErr error, permissionGranted bool, sandboxPolicy string) error {
	data := ToolCallData{
		ToolName:          toolName,
		CallID:            callID,
		Parameters:        parameters,
		ExecutionTime:     time.Now().UTC(),
		DurationMS:        duration.Milliseconds(),
		Success:           success,
		OutputPreview:     Truncate(output, 200),
		PermissionGranted: permissionGranted,
		SandboxPolicy:     sandboxPolicy,
	}
	if callErr != nil {
		data.Error = callErr.Error()
	}
	return l.LogEvent(NewEvent(actorID, EventToolCall, data))
}

// LogTokenUsage records a consumption event against a budget ceiling.
func (l *Logger) LogTokenUsage(actorID, entityID, entityType string, consumed int, limit, remaining *int, operation string) error {
	utilization := 0.0
	if limit != nil && *limit > 0 {
		utilization = float64(consumed) / float64(*limit)
	}
	return l.LogEvent(NewEvent(actorID, EventTokenUsage, TokenUsageData{
		EntityID:        entityID,
		EntityType:      entityType,
		TokensConsumed:  consumed,
		BudgetLimit:     limit,
		BudgetRemaining: remaining,
		Utilization:     utilization,
		Timestamp:       time.Now().UTC(),
		Operation:       operation,
	}))
}

// LogSecurityEvent records a permission or sandbox decision.
func (l *Logger) LogSecurityEvent(actorID string, severity SecuritySeverity, category SecurityCategory, message, source string, action SecurityAction, context map[string]string) error {
	return l.LogEvent(NewEvent(actorID, EventSecurity, SecurityData{
		Severity: severity,
		Category: category,
		Message:  message,
		Source:   source,
		Action:   action,
		Context:  context,
	}))
}
