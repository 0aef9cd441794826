package workflow

import "strings"

// AnalyzeGoal turns a natural-language goal into a dependency-ordered
// Plan. The analysis is intentionally simple and rule-based: a small set
// of recognized goal shapes gets a tailored multi-step plan; anything
// else falls back to a generic analyze/implement/test chain. A richer
// LLM-assisted decomposition can replace this function without changing
// Plan's shape.
func AnalyzeGoal(goal string) (Plan, error) {
	lower := strings.ToLower(goal)

	var steps []Step
	switch {
	case strings.Contains(lower, "secure auth"):
		steps = []Step{
			{ID: "step-1", Description: "Design and review the authentication security model", AgentHint: "security"},
			{ID: "step-2", Description: "Implement backend authentication logic", AgentHint: "backend", Dependencies: []string{"step-1"}},
			{ID: "step-3", Description: "Implement frontend authentication flow", AgentHint: "frontend", Dependencies: []string{"step-1"}},
			{ID: "step-4", Description: "Integrate and test the end-to-end authentication flow", AgentHint: "frontend", Dependencies: []string{"step-2", "step-3"}},
		}
	default:
		steps = []Step{
			{ID: "step-1", Description: "Analyze: " + goal, AgentHint: ""},
			{ID: "step-2", Description: "Implement: " + goal, AgentHint: "", Dependencies: []string{"step-1"}},
			{ID: "step-3", Description: "Test: " + goal, AgentHint: "", Dependencies: []string{"step-2"}},
		}
	}

	plan := Plan{Goal: goal, Steps: steps}
	if err := ValidateDependencies(plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}
