// Package supervisor wires the agent definition loader, token budgeter,
// permission checker, agent runtime, workflow planner/executor, async
// sub-agent layer, and audit log into a single CoordinateGoal entry
// point.
package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/coreagent/orchestrator/agentdef"
	"github.com/coreagent/orchestrator/asyncagent"
	"github.com/coreagent/orchestrator/audit"
	"github.com/coreagent/orchestrator/budget"
	"github.com/coreagent/orchestrator/llmclient"
	"github.com/coreagent/orchestrator/pkg/logger"
	"github.com/coreagent/orchestrator/pkg/observability"
	"github.com/coreagent/orchestrator/runtime"
	"github.com/coreagent/orchestrator/workflow"
)

// Supervisor coordinates a goal from decomposition through aggregated
// result, delegating each step to the agent runtime.
type Supervisor struct {
	cfg Config

	Loader      *agentdef.Loader
	Budgeter    *budget.TokenBudgeter
	Runtime     *runtime.AgentRuntime
	AuditLog    *audit.Logger
	AsyncAgents *asyncagent.Manager
	Dispatcher  *asyncagent.Dispatcher

	metrics *observability.Server
}

// New builds a Supervisor from cfg, wiring an llmclient.Client for agent
// turns. Logging is initialized from cfg.LogLevel the way the teacher's
// entry point configures its own package-level logger at startup.
func New(cfg Config, client llmclient.Client) (*Supervisor, error) {
	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.Init(level, os.Stderr)

	auditLog, err := audit.NewLogger(cfg.AuditLogDir)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	auditMetrics := audit.NewMetrics()
	auditLog = auditLog.WithMetrics(auditMetrics)

	loader := agentdef.NewLoader(cfg.AgentsBaseDir)
	budgetMetrics := budget.NewMetrics()
	budgeter := budget.New(cfg.TotalTokenBudget).WithMetrics(budgetMetrics)
	agentRuntime := runtime.New(loader, budgeter, client, cfg.WorkspaceDir, runtime.WithAuditLogger(auditLog))

	s := &Supervisor{
		cfg:         cfg,
		Loader:      loader,
		Budgeter:    budgeter,
		Runtime:     agentRuntime,
		AuditLog:    auditLog,
		AsyncAgents: asyncagent.NewManager(),
		Dispatcher:  asyncagent.NewDispatcher(),
		metrics:     observability.NewServer(budgetMetrics.Registry(), auditMetrics.Registry()),
	}
	return s, nil
}

// MetricsHandler serves the combined Prometheus registry for the
// budgeter and audit log in the text exposition format.
func (s *Supervisor) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

// Close releases the supervisor's audit log.
func (s *Supervisor) Close() error {
	return s.AuditLog.Close()
}

// runStep delegates a single workflow.Assignment to the agent runtime,
// translating its AgentResult into a workflow.TaskResult. It is the real
// execution callback the executor's coordination strategies drive,
// replacing a bare mock with an actual agent delegation. sessionID is
// forwarded to the runtime so every audit event the delegation emits
// carries it.
func (s *Supervisor) runStep(ctx context.Context, sessionID string, assignment workflow.Assignment) (workflow.TaskResult, error) {
	result, err := s.Runtime.Delegate(ctx, sessionID, assignment.AgentName, assignment.Description, nil, nil, nil)
	if err != nil {
		return workflow.TaskResult{
			StepID:    assignment.StepID,
			AgentName: assignment.AgentName,
			Success:   false,
			Output:    err.Error(),
		}, nil
	}

	var score *float64
	if result.Status == agentdef.StatusCompleted {
		v := 1.0
		score = &v
	}

	return workflow.TaskResult{
		StepID:    assignment.StepID,
		AgentName: assignment.AgentName,
		Success:   result.Status == agentdef.StatusCompleted,
		Output:    fmt.Sprintf("agent %s produced %d artifact(s), %d tokens used", assignment.AgentName, len(result.Artifacts), result.TokensUsed),
		Score:     score,
	}, nil
}

// CoordinateGoal decomposes goal into a Plan, assigns each step to an
// agent (preferring cfg.AgentNames when set), and executes the plan under
// the configured coordination strategy. The per-step results are returned
// unmerged; Aggregate combines them.
// sessionID is threaded into every agent delegation the plan drives, so
// its audit trail can be correlated end to end.
func (s *Supervisor) CoordinateGoal(ctx context.Context, sessionID, goal string) (workflow.Result, error) {
	plan, err := workflow.AnalyzeGoal(goal)
	if err != nil {
		return workflow.Result{}, fmt.Errorf("analyzing goal: %w", err)
	}

	assignments := workflow.AssignTasks(plan, s.cfg.AgentNames)

	executor := workflow.NewExecutor(func(ctx context.Context, a workflow.Assignment) (workflow.TaskResult, error) {
		return s.runStep(ctx, sessionID, a)
	}, s.cfg.Coordination.MaxParallelAgents)

	results, err := executor.ExecutePlan(ctx, assignments, s.cfg.Coordination.Strategy)
	if err != nil {
		_ = s.AuditLog.LogSecurityEvent(sessionID, audit.SeverityWarning, audit.CategorySuspiciousActivity,
			"plan execution failed: "+err.Error(), "supervisor.CoordinateGoal", audit.ActionLogged, nil)
		return workflow.Result{}, fmt.Errorf("executing plan: %w", err)
	}

	return workflow.Result{
		Goal:        goal,
		Plan:        plan,
		Assignments: assignments,
		Results:     results,
	}, nil
}

// Aggregate combines a CoordinateGoal result's task outputs under the
// configured merge strategy.
func (s *Supervisor) Aggregate(result workflow.Result) workflow.AggregatedResult {
	return workflow.AggregateResults(result.Results, s.cfg.Coordination.MergeStrategy)
}

// ClassifyAndDispatch routes a free-form task description to the
// recommended agent type via the autonomous dispatcher, and registers a
// background sub-agent to track it.
func (s *Supervisor) ClassifyAndDispatch(task string) (asyncagent.Classification, *asyncagent.SubAgent) {
	classification := s.Dispatcher.ClassifyTask(task)
	agent := s.AsyncAgents.RegisterAgent(classification.RecommendedAgent)
	return classification, agent
}
