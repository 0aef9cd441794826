package thinking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepBuilder(t *testing.T) {
	step := NewStep(Reasoning).
		Content("considering options").
		Confidence(0.85).
		Reasoning("option A has fewer side effects").
		Build()

	assert.NotEmpty(t, step.StepID)
	assert.Equal(t, Reasoning, step.Type)
	assert.Equal(t, "considering options", step.Content)
	assert.Equal(t, 0.85, step.Confidence)
}

func TestStepBuilderClampsConfidence(t *testing.T) {
	assert.Equal(t, 1.0, NewStep(Decision).Confidence(5).Build().Confidence)
	assert.Equal(t, 0.0, NewStep(Decision).Confidence(-5).Build().Confidence)
}

func TestProcessEvictsOldestAndAveragesConfidence(t *testing.T) {
	p := NewProcess("code-expert", "task-1", 2)
	p.AddStep(NewStep(ProblemAnalysis).Confidence(0.7).Build())
	p.AddStep(NewStep(Reasoning).Confidence(0.9).Build())
	require.Len(t, p.Steps, 2)
	assert.InDelta(t, 0.8, p.OverallConfidence, 0.0001)

	p.AddStep(NewStep(Decision).Confidence(0.5).Build())
	require.Len(t, p.Steps, 2)
	assert.Equal(t, Reasoning, p.Steps[0].Type)
	assert.Equal(t, Decision, p.CurrentPhase)
	assert.InDelta(t, 0.7, p.OverallConfidence, 0.0001)
}

func TestGetStepsByType(t *testing.T) {
	p := NewProcess("code-expert", "task-1", 10)
	p.AddStep(NewStep(ProblemAnalysis).Build())
	p.AddStep(NewStep(Reasoning).Build())
	p.AddStep(NewStep(ProblemAnalysis).Build())

	analysisSteps := p.StepsByType(ProblemAnalysis)
	assert.Len(t, analysisSteps, 2)
}

func TestLatestStep(t *testing.T) {
	p := NewProcess("code-expert", "task-1", 10)
	_, ok := p.LatestStep()
	assert.False(t, ok)

	p.AddStep(NewStep(Conclusion).Content("done").Build())
	latest, ok := p.LatestStep()
	require.True(t, ok)
	assert.Equal(t, "done", latest.Content)
}

func TestThinkingProcessManager(t *testing.T) {
	m := NewManager()
	p := m.StartProcess("security-expert", "task-1", 10)
	p.AddStep(NewStep(ProblemAnalysis).Build())

	got, ok := m.Process("task-1")
	require.True(t, ok)
	assert.Len(t, got.Steps, 1)

	assert.Equal(t, 1, m.Count())
	m.RemoveProcess("task-1")
	assert.Equal(t, 0, m.Count())
}
