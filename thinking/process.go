// Package thinking provides optional reasoning-trace telemetry: a bounded,
// ordered log of the steps an agent took to reach a conclusion.
package thinking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StepType names a phase of an agent's reasoning.
type StepType string

const (
	ProblemAnalysis       StepType = "problem_analysis"
	HypothesisGeneration  StepType = "hypothesis_generation"
	InformationGathering  StepType = "information_gathering"
	Reasoning             StepType = "reasoning"
	Decision              StepType = "decision"
	ActionPlanning        StepType = "action_planning"
	Execution             StepType = "execution"
	Verification          StepType = "verification"
	Conclusion            StepType = "conclusion"
)

// Step is a single recorded reasoning step.
type Step struct {
	StepID     string
	Timestamp  time.Time
	Type       StepType
	Content    string
	Confidence float64
	Reasoning  string
}

// StepBuilder fluently constructs a Step with sensible defaults.
type StepBuilder struct {
	step Step
}

// NewStep starts building a Step of the given type.
func NewStep(stepType StepType) *StepBuilder {
	return &StepBuilder{step: Step{
		StepID:     uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Type:       stepType,
		Confidence: 0.5,
	}}
}

func (b *StepBuilder) Content(content string) *StepBuilder {
	b.step.Content = content
	return b
}

// Confidence sets the step's confidence, clamped to [0, 1].
func (b *StepBuilder) Confidence(confidence float64) *StepBuilder {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	b.step.Confidence = confidence
	return b
}

func (b *StepBuilder) Reasoning(reasoning string) *StepBuilder {
	b.step.Reasoning = reasoning
	return b
}

func (b *StepBuilder) Build() Step {
	return b.step
}

// Process is a bounded, ordered trace of an agent's reasoning steps for a
// single task. Once MaxSteps is reached, the oldest step is evicted as a
// new one arrives.
type Process struct {
	AgentType        string
	TaskID           string
	Steps            []Step
	MaxSteps         int
	CurrentPhase     StepType
	OverallConfidence float64
}

// NewProcess creates a Process bounded to maxSteps retained steps.
func NewProcess(agentType, taskID string, maxSteps int) *Process {
	if maxSteps <= 0 {
		maxSteps = 50
	}
	return &Process{
		AgentType: agentType,
		TaskID:    taskID,
		MaxSteps:  maxSteps,
	}
}

// AddStep appends step, evicting the oldest step if the process is at
// capacity, and recomputes CurrentPhase and OverallConfidence.
func (p *Process) AddStep(step Step) {
	if len(p.Steps) >= p.MaxSteps {
		p.Steps = p.Steps[1:]
	}
	p.Steps = append(p.Steps, step)
	p.CurrentPhase = step.Type
	p.updateOverallConfidence()
}

func (p *Process) updateOverallConfidence() {
	if len(p.Steps) == 0 {
		p.OverallConfidence = 0
		return
	}
	var sum float64
	for _, s := range p.Steps {
		sum += s.Confidence
	}
	p.OverallConfidence = sum / float64(len(p.Steps))
}

// Summary renders a human-readable report of the process so far.
func (p *Process) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thinking process for %s (task: %s)\n", p.AgentType, p.TaskID)
	fmt.Fprintf(&b, "Current phase: %s, Overall confidence: %.2f\n", p.CurrentPhase, p.OverallConfidence)
	fmt.Fprintf(&b, "Steps (%d):\n", len(p.Steps))
	for i, s := range p.Steps {
		fmt.Fprintf(&b, "  %d. [%s] %s (confidence: %.2f)\n", i+1, s.Type, s.Content, s.Confidence)
		if s.Reasoning != "" {
			fmt.Fprintf(&b, "     reasoning: %s\n", s.Reasoning)
		}
	}
	return b.String()
}

// StepsByType returns the retained steps matching stepType, in order.
func (p *Process) StepsByType(stepType StepType) []Step {
	var out []Step
	for _, s := range p.Steps {
		if s.Type == stepType {
			out = append(out, s)
		}
	}
	return out
}

// LatestStep returns the most recently added step, if any.
func (p *Process) LatestStep() (Step, bool) {
	if len(p.Steps) == 0 {
		return Step{}, false
	}
	return p.Steps[len(p.Steps)-1], true
}

// Clear discards all recorded steps.
func (p *Process) Clear() {
	p.Steps = nil
	p.CurrentPhase = ""
	p.OverallConfidence = 0
}
