// Package runtime executes a single agent turn: it loads an agent
// definition, drives an llmclient.Client through a prompt, consumes the
// response against a token budget, and materializes any declared
// artifacts to the workspace.
package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/coreagent/orchestrator/agentdef"
	"github.com/coreagent/orchestrator/audit"
	"github.com/coreagent/orchestrator/budget"
	"github.com/coreagent/orchestrator/llmclient"
	"github.com/coreagent/orchestrator/orcherr"
	"github.com/coreagent/orchestrator/permission"
	"github.com/coreagent/orchestrator/thinking"
)

// tokensPerOutputItem is the placeholder count added per streamed output
// item. The sum is the turn's total only when EventCompleted reports no
// total (TotalTokens 0); a non-zero EventCompleted total replaces it.
// Budget consumption happens once, after the stream ends, not per item.
const tokensPerOutputItem = 100

// AgentRuntime executes agent delegations against a shared loader,
// budgeter, and LLM client.
type AgentRuntime struct {
	loader       *agentdef.Loader
	budgeter     *budget.TokenBudgeter
	client       llmclient.Client
	workspaceDir string
	auditLogger  *audit.Logger
	thinking     *thinking.Manager

	mu            sync.Mutex
	runningAgents map[string]agentdef.Status
}

// Option configures an AgentRuntime at construction time.
type Option func(*AgentRuntime)

// WithAuditLogger attaches an audit trail for delegation lifecycle events.
func WithAuditLogger(l *audit.Logger) Option {
	return func(r *AgentRuntime) { r.auditLogger = l }
}

// WithThinking attaches a reasoning-trace manager.
func WithThinking(m *thinking.Manager) Option {
	return func(r *AgentRuntime) { r.thinking = m }
}

// New builds an AgentRuntime. workspaceDir is where delegated agents
// write their declared artifacts.
func New(loader *agentdef.Loader, budgeter *budget.TokenBudgeter, client llmclient.Client, workspaceDir string, opts ...Option) *AgentRuntime {
	r := &AgentRuntime{
		loader:        loader,
		budgeter:      budgeter,
		client:        client,
		workspaceDir:  workspaceDir,
		runningAgents: make(map[string]agentdef.Status),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *AgentRuntime) setStatus(name string, status agentdef.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runningAgents[name] = status
}

// GetRunningAgents returns a snapshot of every agent this runtime has
// delegated to, keyed by name, along with its last known status.
func (r *AgentRuntime) GetRunningAgents() map[string]agentdef.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]agentdef.Status, len(r.runningAgents))
	for k, v := range r.runningAgents {
		out[k] = v
	}
	return out
}

// ListAgents returns the names of every agent definition available to
// this runtime's loader.
func (r *AgentRuntime) ListAgents() ([]string, error) {
	return r.loader.ListAvailable()
}

// GetBudgetStatus reports the runtime's overall token budget state.
func (r *AgentRuntime) GetBudgetStatus() (used, remaining int, utilization float64) {
	return r.budgeter.Used(), r.budgeter.Remaining(), r.budgeter.Utilization()
}

// ShouldUseLightweight reports whether overall budget utilization has
// crossed threshold and callers should prefer a cheaper model/path.
func (r *AgentRuntime) ShouldUseLightweight(threshold float64) bool {
	return r.budgeter.ShouldFallbackLightweight(threshold)
}

// Delegate loads agentName's definition, runs its turn against the
// configured llmclient.Client, and returns the resulting AgentResult. If
// budgetOverride is non-nil it replaces the agent definition's own
// context.max_tokens ceiling. sessionID, when non-empty, is stamped onto
// every audit event this delegation emits, so a caller coordinating a
// multi-step goal can correlate the full trail in one query.
func (r *AgentRuntime) Delegate(ctx context.Context, sessionID, agentName, goal string, inputs map[string]string, budgetOverride *int, deadline *time.Duration) (agentdef.AgentResult, error) {
	start := time.Now().UTC()

	auditLogger := r.auditLogger
	if auditLogger != nil && sessionID != "" {
		auditLogger = auditLogger.WithSession(sessionID)
	}

	def, err := r.loader.LoadByName(agentName)
	if err != nil {
		return agentdef.AgentResult{}, orcherr.Wrap(orcherr.KindNotFound, "loading agent definition", err)
	}

	limit := def.Policies.Context.MaxTokens
	if budgetOverride != nil {
		limit = *budgetOverride
	}
	r.budgeter.SetAgentLimit(agentName, limit)

	r.setStatus(agentName, agentdef.StatusRunning)
	if auditLogger != nil {
		_ = auditLogger.LogAgentStart(agentName, agentName, goal, start)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if deadline != nil {
		runCtx, cancel = context.WithTimeout(ctx, *deadline)
		defer cancel()
	}

	result, err := r.executeAgent(runCtx, auditLogger, def, goal, inputs)
	if err != nil {
		status := agentdef.StatusFailed
		if orcherr.Is(err, orcherr.KindCancelled) || orcherr.Is(err, orcherr.KindTimeout) {
			status = agentdef.StatusCancelled
		}
		r.setStatus(agentName, status)
		if auditLogger != nil {
			_ = auditLogger.LogAgentFailure(agentName, agentName, start, err)
		}
		result.AgentName = agentName
		result.Status = status
		result.Error = err.Error()
		return result, err
	}

	r.setStatus(agentName, agentdef.StatusCompleted)
	if auditLogger != nil {
		_ = auditLogger.LogAgentComplete(agentName, agentName, start, result.TokensUsed, result.Artifacts)
	}
	result.DurationSec = time.Since(start).Seconds()
	return result, nil
}

func (r *AgentRuntime) executeAgent(ctx context.Context, auditLogger *audit.Logger, def agentdef.AgentDefinition, goal string, inputs map[string]string) (agentdef.AgentResult, error) {
	result := agentdef.AgentResult{AgentName: def.Name}

	proc := r.startThinking(def.Name, goal)

	systemPrompt := buildSystemPrompt(def, goal)
	userMessage := buildUserMessage(goal, inputs)

	events, err := r.client.Stream(ctx, llmclient.Prompt{
		SystemInstructions: systemPrompt,
		UserMessage:        userMessage,
		ToolNames:          def.Tools.MCP,
	})
	if err != nil {
		return result, orcherr.Wrap(orcherr.KindUpstream, "starting LLM stream", err)
	}

	var responseText strings.Builder
	totalTokens := 0

	for event := range events {
		switch event.Kind {
		case llmclient.EventCreated:
			r.recordThinkingStep(proc, thinking.InformationGathering, "turn started", 0.6)
		case llmclient.EventOutputItemDone:
			responseText.WriteString(event.OutputText)
			totalTokens += tokensPerOutputItem
		case llmclient.EventCompleted:
			if event.TotalTokens > 0 {
				totalTokens = event.TotalTokens
			}
		case llmclient.EventError:
			if ctx.Err() != nil {
				return result, classifyContextErr(ctx)
			}
			return result, orcherr.Wrap(orcherr.KindUpstream, "LLM stream error", event.Err)
		}
	}

	if !r.budgeter.TryConsume(def.Name, totalTokens) {
		logSecurityEvent(auditLogger, def.Name, audit.SeverityWarning, audit.CategoryBudgetExceeded,
			fmt.Sprintf("delegation to %s exceeded token budget", def.Name), "runtime.executeAgent")
		return result, orcherr.New(orcherr.KindBudgetExceeded, fmt.Sprintf("delegation to %s exceeded token budget", def.Name))
	}

	r.recordThinkingStep(proc, thinking.Conclusion, "response received", 0.9)

	checker := permission.New(def.Tools)
	artifacts, err := r.writeArtifacts(checker, def, goal, inputs, responseText.String(), totalTokens)
	if err != nil {
		if orcherr.Is(err, orcherr.KindPermissionDenied) {
			logSecurityEvent(auditLogger, def.Name, audit.SeverityWarning, audit.CategoryPermissionDenied,
				err.Error(), "runtime.writeArtifacts")
			return result, err
		}
		return result, orcherr.Wrap(orcherr.KindIO, "writing agent artifacts", err)
	}

	result.Status = agentdef.StatusCompleted
	result.Artifacts = artifacts
	result.TokensUsed = totalTokens
	return result, nil
}

// logSecurityEvent records a budget or permission refusal as a Security
// audit event, mirroring every other denial path in this module: the
// failure is surfaced to the caller as an error, but it is also logged
// with a severity and category a security review can query for.
func logSecurityEvent(auditLogger *audit.Logger, agentName string, severity audit.SecuritySeverity, category audit.SecurityCategory, message, source string) {
	if auditLogger == nil {
		return
	}
	_ = auditLogger.LogSecurityEvent(agentName, severity, category, message, source, audit.ActionBlocked, nil)
}

// classifyContextErr reports ctx's cancellation as the matching orcherr
// Kind, so a caller can distinguish a deadline crossing from an explicit
// cancellation signal rather than seeing both as a generic upstream error.
func classifyContextErr(ctx context.Context) error {
	if ctx.Err() == context.DeadlineExceeded {
		return orcherr.Wrap(orcherr.KindTimeout, "agent turn deadline exceeded", ctx.Err())
	}
	return orcherr.Wrap(orcherr.KindCancelled, "agent turn cancelled", ctx.Err())
}

func (r *AgentRuntime) startThinking(agentName, goal string) *thinking.Process {
	if r.thinking == nil {
		return nil
	}
	proc := r.thinking.StartProcess(agentName, agentName, 50)
	r.recordThinkingStep(proc, thinking.ProblemAnalysis, goal, 0.5)
	return proc
}

func (r *AgentRuntime) recordThinkingStep(proc *thinking.Process, stepType thinking.StepType, content string, confidence float64) {
	if proc == nil {
		return
	}
	proc.AddStep(thinking.NewStep(stepType).Content(content).Confidence(confidence).Build())
}

func buildSystemPrompt(def agentdef.AgentDefinition, goal string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are agent %q. Your goal: %s\n", def.Name, def.Goal)
	if len(def.SuccessCriteria) > 0 {
		b.WriteString("Success criteria:\n")
		for _, c := range def.SuccessCriteria {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	fmt.Fprintf(&b, "Task: %s\n", goal)
	return b.String()
}

func buildUserMessage(goal string, inputs map[string]string) string {
	if len(inputs) == 0 {
		return goal
	}
	var b strings.Builder
	b.WriteString(goal)
	b.WriteString("\n\nInputs:\n")
	for k, v := range inputs {
		fmt.Fprintf(&b, "- %s: %s\n", k, v)
	}
	return b.String()
}

func (r *AgentRuntime) writeArtifacts(checker *permission.Checker, def agentdef.AgentDefinition, goal string, inputs map[string]string, response string, tokens int) ([]string, error) {
	var written []string
	for _, artifactPath := range def.Artifacts {
		if err := checker.CheckFileWrite(artifactPath); err != nil {
			return written, err
		}
		fullPath := filepath.Join(r.workspaceDir, artifactPath)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			return written, err
		}
		content := renderArtifact(def, goal, inputs, response, tokens)
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			return written, err
		}
		written = append(written, artifactPath)
	}
	return written, nil
}

func renderArtifact(def agentdef.AgentDefinition, goal string, inputs map[string]string, response string, tokens int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", def.Name)
	fmt.Fprintf(&b, "## Goal\n%s\n\n", def.Goal)
	fmt.Fprintf(&b, "## Task\n%s\n\n", goal)
	if len(inputs) > 0 {
		b.WriteString("## Inputs\n")
		for k, v := range inputs {
			fmt.Fprintf(&b, "- %s: %s\n", k, v)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "## Response\n%s\n\n", response)
	fmt.Fprintf(&b, "## Tokens used\n%d\n\n", tokens)
	if len(def.SuccessCriteria) > 0 {
		b.WriteString("## Success criteria\n")
		for _, c := range def.SuccessCriteria {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}
