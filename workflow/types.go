// Package workflow decomposes a goal into a dependency-ordered plan,
// assigns each step to an agent, executes the plan under a coordination
// strategy, and aggregates the resulting task outputs.
package workflow

import "github.com/coreagent/orchestrator/orcherr"

// CoordinationStrategy controls how a plan's assignments are executed.
type CoordinationStrategy string

const (
	StrategySequential CoordinationStrategy = "sequential"
	StrategyParallel    CoordinationStrategy = "parallel"
	StrategyHybrid      CoordinationStrategy = "hybrid"
)

// MergeStrategy controls how per-step TaskResults are combined into one
// AggregatedResult.
type MergeStrategy string

const (
	MergeConcatenate   MergeStrategy = "concatenate"
	MergeVoting        MergeStrategy = "voting"
	MergeFirstSuccess  MergeStrategy = "first_success"
	MergeHighestScore  MergeStrategy = "highest_score"
)

// Step is one unit of work in a Plan, possibly depending on other steps.
type Step struct {
	ID           string
	Description  string
	AgentHint    string
	Dependencies []string
}

// Plan is a goal decomposed into a dependency-ordered set of steps.
type Plan struct {
	Goal  string
	Steps []Step
}

// Assignment binds a Step to the agent that will execute it.
type Assignment struct {
	StepID      string
	AgentName   string
	Description string
}

// TaskResult is the outcome of executing a single Assignment.
type TaskResult struct {
	StepID    string
	AgentName string
	Success   bool
	Output    string
	Score     *float64
}

// AggregatedResult is the combined output of every TaskResult in a plan,
// produced by a MergeStrategy.
type AggregatedResult struct {
	Summary           string
	IndividualResults []TaskResult
}

// Config bounds how a goal is coordinated end to end.
type Config struct {
	Strategy         CoordinationStrategy
	MergeStrategy    MergeStrategy
	MaxParallelAgents int
}

// DefaultConfig mirrors the distilled format's defaults: hybrid
// coordination, concatenated output, five agents in flight at once.
func DefaultConfig() Config {
	return Config{
		Strategy:          StrategyHybrid,
		MergeStrategy:     MergeConcatenate,
		MaxParallelAgents: 5,
	}
}

// Result is the full record of coordinating one goal: the plan that was
// built, who was assigned to each step, and what came out.
type Result struct {
	Goal        string
	Plan        Plan
	Assignments []Assignment
	Results     []TaskResult
}

// ValidateDependencies rejects a Plan whose steps reference an unknown
// step id, or whose dependency graph contains a cycle.
func ValidateDependencies(plan Plan) error {
	known := make(map[string]bool, len(plan.Steps))
	for _, s := range plan.Steps {
		known[s.ID] = true
	}
	for _, s := range plan.Steps {
		for _, dep := range s.Dependencies {
			if !known[dep] {
				return orcherr.New(orcherr.KindInvalidPlan, "step "+s.ID+" depends on unknown step "+dep)
			}
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(plan.Steps))
	byID := make(map[string]Step, len(plan.Steps))
	for _, s := range plan.Steps {
		byID[s.ID] = s
	}

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case gray:
			return orcherr.New(orcherr.KindInvalidPlan, "cycle detected at step "+id)
		case black:
			return nil
		}
		color[id] = gray
		for _, dep := range byID[id].Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}

	for _, s := range plan.Steps {
		if err := visit(s.ID); err != nil {
			return err
		}
	}
	return nil
}
