package workflow

import "strings"

// AssignTasks binds every step in plan to an agent name. When
// agentsHint is non-empty, each step's AgentHint is matched
// case-insensitively as a substring against the hint list, falling back
// to the first hinted agent when nothing matches. When agentsHint is
// empty, a step's own AgentHint is used verbatim, or "default" if it has
// none.
func AssignTasks(plan Plan, agentsHint []string) []Assignment {
	assignments := make([]Assignment, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		var agent string
		if len(agentsHint) > 0 {
			agent = matchAgentHint(step.AgentHint, agentsHint)
		} else if step.AgentHint != "" {
			agent = step.AgentHint
		} else {
			agent = "default"
		}
		assignments = append(assignments, Assignment{
			StepID:      step.ID,
			AgentName:   agent,
			Description: step.Description,
		})
	}
	return assignments
}

func matchAgentHint(hint string, agentsHint []string) string {
	if hint != "" {
		lowerHint := strings.ToLower(hint)
		for _, candidate := range agentsHint {
			if strings.Contains(strings.ToLower(candidate), lowerHint) {
				return candidate
			}
		}
	}
	return agentsHint[0]
}
