package runtime

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coreagent/orchestrator/agentdef"
	"github.com/coreagent/orchestrator/audit"
	"github.com/coreagent/orchestrator/budget"
	"github.com/coreagent/orchestrator/llmclient"
	"github.com/coreagent/orchestrator/orcherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runtimeTestAgentYAML = `
name: "reporter"
goal: "Summarize the repository"
tools:
  mcp: ["*"]
  fs:
    read: true
    write: true
policies:
  context:
    max_tokens: 10000
    retention: "job"
success_criteria:
  - "summary is accurate"
artifacts:
  - "reporter/output.md"
`

func setupRuntime(t *testing.T, client llmclient.Client) (*AgentRuntime, string) {
	t.Helper()
	agentsDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(agentsDir, ".codex/agents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(agentsDir, ".codex/agents", "reporter.yaml"), []byte(runtimeTestAgentYAML), 0o644))

	workspaceDir := t.TempDir()
	loader := agentdef.NewLoader(agentsDir)
	budgeter := budget.New(100000)
	rt := New(loader, budgeter, client, workspaceDir)
	return rt, workspaceDir
}

func TestDelegateWritesArtifactAndConsumesBudget(t *testing.T) {
	client := &llmclient.FakeClient{
		OutputChunks: []string{"The repository ", "looks healthy."},
		TotalTokens:  250,
	}
	rt, workspaceDir := setupRuntime(t, client)

	result, err := rt.Delegate(context.Background(), "session-1", "reporter", "summarize everything", nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, agentdef.StatusCompleted, result.Status)
	assert.Equal(t, 250, result.TokensUsed)
	assert.Equal(t, []string{"reporter/output.md"}, result.Artifacts)

	data, err := os.ReadFile(filepath.Join(workspaceDir, "reporter/output.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "The repository looks healthy.")
	assert.Contains(t, string(data), "summarize everything")
}

func TestDelegateFailsWhenBudgetExceeded(t *testing.T) {
	client := &llmclient.FakeClient{
		OutputChunks: []string{"chunk"},
		TotalTokens:  999999,
	}
	rt, _ := setupRuntime(t, client)

	_, err := rt.Delegate(context.Background(), "session-1", "reporter", "summarize", nil, nil, nil)
	require.Error(t, err)

	states := rt.GetRunningAgents()
	assert.Equal(t, agentdef.StatusFailed, states["reporter"])
}

func TestDelegatePropagatesStreamError(t *testing.T) {
	client := &llmclient.FakeClient{Err: assert.AnError}
	rt, _ := setupRuntime(t, client)

	_, err := rt.Delegate(context.Background(), "session-1", "reporter", "summarize", nil, nil, nil)
	require.Error(t, err)
}

const runtimeRestrictedAgentYAML = `
name: "restricted"
goal: "Summarize the repository"
tools:
  mcp: ["*"]
  fs:
    read: true
    write: ["allowed/"]
policies:
  context:
    max_tokens: 10000
    retention: "job"
artifacts:
  - "forbidden/output.md"
`

func TestDelegateDeniesArtifactOutsideWritePermission(t *testing.T) {
	client := &llmclient.FakeClient{OutputChunks: []string{"chunk"}, TotalTokens: 10}

	agentsDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(agentsDir, ".codex/agents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(agentsDir, ".codex/agents", "restricted.yaml"), []byte(runtimeRestrictedAgentYAML), 0o644))

	workspaceDir := t.TempDir()
	loader := agentdef.NewLoader(agentsDir)
	budgeter := budget.New(100000)
	rt := New(loader, budgeter, client, workspaceDir)

	_, err := rt.Delegate(context.Background(), "session-1", "restricted", "summarize", nil, nil, nil)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(workspaceDir, "forbidden/output.md"))
	assert.True(t, os.IsNotExist(statErr))
	assert.True(t, orcherr.Is(err, orcherr.KindPermissionDenied))
}

func TestDelegateLogsSecurityEventOnPermissionDenial(t *testing.T) {
	client := &llmclient.FakeClient{OutputChunks: []string{"chunk"}, TotalTokens: 10}

	agentsDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(agentsDir, ".codex/agents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(agentsDir, ".codex/agents", "restricted.yaml"), []byte(runtimeRestrictedAgentYAML), 0o644))

	workspaceDir := t.TempDir()
	auditDir := t.TempDir()
	auditLog, err := audit.NewLogger(auditDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = auditLog.Close() })

	loader := agentdef.NewLoader(agentsDir)
	budgeter := budget.New(100000)
	rt := New(loader, budgeter, client, workspaceDir, WithAuditLogger(auditLog))

	_, err = rt.Delegate(context.Background(), "session-1", "restricted", "summarize", nil, nil, nil)
	require.Error(t, err)
	require.NoError(t, auditLog.Flush())

	data, readErr := os.ReadFile(filepath.Join(auditDir, "audit.jsonl"))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), `"category":"permission_denied"`)
	assert.Contains(t, string(data), `"action":"blocked"`)
}

func TestDelegateLogsSecurityEventOnBudgetExceeded(t *testing.T) {
	client := &llmclient.FakeClient{OutputChunks: []string{"chunk"}, TotalTokens: 999999}

	auditDir := t.TempDir()
	auditLog, err := audit.NewLogger(auditDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = auditLog.Close() })

	agentsDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(agentsDir, ".codex/agents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(agentsDir, ".codex/agents", "reporter.yaml"), []byte(runtimeTestAgentYAML), 0o644))

	workspaceDir := t.TempDir()
	loader := agentdef.NewLoader(agentsDir)
	budgeter := budget.New(100000)
	rt := New(loader, budgeter, client, workspaceDir, WithAuditLogger(auditLog))

	_, err = rt.Delegate(context.Background(), "session-1", "reporter", "summarize", nil, nil, nil)
	require.Error(t, err)
	require.NoError(t, auditLog.Flush())

	data, readErr := os.ReadFile(filepath.Join(auditDir, "audit.jsonl"))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), `"category":"budget_exceeded"`)
}

func TestDelegateStampsMatchingStartTimeOnStartedAndCompletedEvents(t *testing.T) {
	client := &llmclient.FakeClient{OutputChunks: []string{"chunk"}, TotalTokens: 10}

	auditDir := t.TempDir()
	auditLog, err := audit.NewLogger(auditDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = auditLog.Close() })

	agentsDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(agentsDir, ".codex/agents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(agentsDir, ".codex/agents", "reporter.yaml"), []byte(runtimeTestAgentYAML), 0o644))

	workspaceDir := t.TempDir()
	loader := agentdef.NewLoader(agentsDir)
	budgeter := budget.New(100000)
	rt := New(loader, budgeter, client, workspaceDir, WithAuditLogger(auditLog))

	_, err = rt.Delegate(context.Background(), "session-1", "reporter", "summarize", nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, auditLog.Flush())

	data, err := os.ReadFile(filepath.Join(auditDir, "audit.jsonl"))
	require.NoError(t, err)

	var startTimes []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var event struct {
			Data struct {
				StartTime string `json:"start_time"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		startTimes = append(startTimes, event.Data.StartTime)
	}

	require.Len(t, startTimes, 2)
	assert.Equal(t, startTimes[0], startTimes[1])
}

func TestDelegateTransitionsToCancelledOnContextCancellation(t *testing.T) {
	client := &llmclient.FakeClient{OutputChunks: []string{"a", "b", "c"}, TotalTokens: 10}
	rt, _ := setupRuntime(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rt.Delegate(ctx, "session-1", "reporter", "summarize", nil, nil, nil)
	require.Error(t, err)

	states := rt.GetRunningAgents()
	assert.Equal(t, agentdef.StatusCancelled, states["reporter"])
}

func TestGetBudgetStatus(t *testing.T) {
	client := &llmclient.FakeClient{OutputChunks: []string{"x"}, TotalTokens: 100}
	rt, _ := setupRuntime(t, client)

	_, err := rt.Delegate(context.Background(), "session-1", "reporter", "summarize", nil, nil, nil)
	require.NoError(t, err)

	used, remaining, utilization := rt.GetBudgetStatus()
	assert.Equal(t, 100, used)
	assert.Equal(t, 99900, remaining)
	assert.InDelta(t, 0.001, utilization, 0.0001)
}

func TestListAgents(t *testing.T) {
	client := &llmclient.FakeClient{OutputChunks: []string{"x"}, TotalTokens: 10}
	rt, _ := setupRuntime(t, client)

	names, err := rt.ListAgents()
	require.NoError(t, err)
	assert.Equal(t, []string{"reporter"}, names)
}
