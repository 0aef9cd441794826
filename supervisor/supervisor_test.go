package supervisor

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/coreagent/orchestrator/llmclient"
	"github.com/coreagent/orchestrator/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const supervisorTestAgentYAML = `
name: "%s"
goal: "Handle assigned step"
tools:
  mcp: ["*"]
  fs:
    read: true
    write: true
policies:
  context:
    max_tokens: 8000
success_criteria: []
artifacts: []
`

func writeAgent(t *testing.T, baseDir, name string) {
	t.Helper()
	agentsDir := filepath.Join(baseDir, ".codex/agents")
	require.NoError(t, os.MkdirAll(agentsDir, 0o755))
	content := fmt.Sprintf(supervisorTestAgentYAML, name)
	require.NoError(t, os.WriteFile(filepath.Join(agentsDir, name+".yaml"), []byte(content), 0o644))
}

func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	baseDir := t.TempDir()
	writeAgent(t, baseDir, "default")

	cfg := DefaultConfig()
	cfg.WorkspaceDir = baseDir
	cfg.AgentsBaseDir = baseDir
	cfg.AuditLogDir = filepath.Join(baseDir, "audit")
	cfg.Coordination.Strategy = workflow.StrategySequential

	client := &llmclient.FakeClient{OutputChunks: []string{"step output"}, TotalTokens: 50}
	sup, err := New(cfg, client)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sup.Close() })
	return sup
}

func TestCoordinateGoalGenericPlan(t *testing.T) {
	sup := newTestSupervisor(t)

	result, err := sup.CoordinateGoal(context.Background(), "session-1", "Write a changelog generator")
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	for _, r := range result.Results {
		assert.True(t, r.Success)
	}

	agg := sup.Aggregate(result)
	assert.Contains(t, agg.Summary, "artifact(s)")
}

func TestDecodeConfigAppliesOverrides(t *testing.T) {
	cfg, err := DecodeConfig(map[string]interface{}{
		"TotalTokenBudget": "500000",
		"WorkspaceDir":     "/tmp/workspace",
	})
	require.NoError(t, err)
	assert.Equal(t, 500000, cfg.TotalTokenBudget)
	assert.Equal(t, "/tmp/workspace", cfg.WorkspaceDir)
	assert.Equal(t, workflow.StrategyHybrid, cfg.Coordination.Strategy)
}

func TestCoordinateGoalStampsSessionIDOnAuditEvents(t *testing.T) {
	sup := newTestSupervisor(t)

	_, err := sup.CoordinateGoal(context.Background(), "session-xyz", "Write a changelog generator")
	require.NoError(t, err)
	require.NoError(t, sup.AuditLog.Flush())

	data, err := os.ReadFile(filepath.Join(sup.cfg.AuditLogDir, "audit.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":"session-xyz"`)
}

func TestMetricsHandlerServesBudgetAndAuditMetrics(t *testing.T) {
	sup := newTestSupervisor(t)

	_, err := sup.CoordinateGoal(context.Background(), "session-1", "Write a changelog generator")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	sup.MetricsHandler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "orchestrator_budget")
	assert.Contains(t, body, "orchestrator_audit")
}

func TestClassifyAndDispatch(t *testing.T) {
	sup := newTestSupervisor(t)
	classification, agent := sup.ClassifyAndDispatch("review this security vulnerability")
	assert.Equal(t, "security-expert", classification.RecommendedAgent)
	assert.Equal(t, "security-expert", agent.AgentType)
	assert.Equal(t, 1, sup.AsyncAgents.AgentCount())
}
