package asyncagent

import (
	"sort"
	"strings"
	"sync"
)

// Trigger maps a set of keywords to the agent type that should handle a
// task containing them.
type Trigger struct {
	Keywords    []string
	AgentType   string
	Priority    int
	Description string
}

// Classification is the outcome of classifying a task.
type Classification struct {
	RecommendedAgent    string
	Confidence          float32
	Reasoning           string
	AlternativeAgents   []string
}

// defaultTriggers mirrors the distilled format's seven built-in agent
// specializations, ordered by priority descending.
func defaultTriggers() []Trigger {
	triggers := []Trigger{
		{Keywords: []string{"analyze code", "review code", "refactor", "implement"}, AgentType: "code-expert", Priority: 10, Description: "Code analysis, review, and implementation"},
		{Keywords: []string{"security", "vulnerability", "exploit", "cve", "injection"}, AgentType: "security-expert", Priority: 20, Description: "Security analysis and vulnerability assessment"},
		{Keywords: []string{"test", "unit test", "integration test", "coverage"}, AgentType: "testing-expert", Priority: 8, Description: "Test authoring and coverage analysis"},
		{Keywords: []string{"document", "documentation", "readme", "api doc"}, AgentType: "docs-expert", Priority: 5, Description: "Documentation authoring"},
		{Keywords: []string{"research", "investigate", "deep dive", "analyze in depth"}, AgentType: "deep-researcher", Priority: 12, Description: "Deep research and investigation"},
		{Keywords: []string{"debug", "fix bug", "troubleshoot", "error"}, AgentType: "debug-expert", Priority: 15, Description: "Debugging and root-cause analysis"},
		{Keywords: []string{"optimize", "performance", "speed up", "efficiency"}, AgentType: "performance-expert", Priority: 7, Description: "Performance optimization"},
	}
	sortTriggersByPriority(triggers)
	return triggers
}

func sortTriggersByPriority(triggers []Trigger) {
	sort.SliceStable(triggers, func(i, j int) bool {
		return triggers[i].Priority > triggers[j].Priority
	})
}

// Dispatcher classifies free-form task descriptions to the agent type
// best suited to handle them, based on keyword triggers.
type Dispatcher struct {
	mu       sync.Mutex
	triggers []Trigger
	cache    map[string]Classification
}

// NewDispatcher builds a Dispatcher with the default trigger set.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		triggers: defaultTriggers(),
		cache:    make(map[string]Classification),
	}
}

type triggerMatch struct {
	trigger Trigger
	matched []string
}

// ClassifyTask picks the best-matching agent type for task. Confidence
// is the winning trigger's matched-keyword count divided by 3 (capped at
// 1.0) — three matched keywords is treated as full confidence regardless
// of how many keywords the trigger declares in total. AlternativeAgents
// are the next two triggers by priority after the winner, whether or not
// they themselves matched any keyword. Results are cached by the exact
// task string.
func (d *Dispatcher) ClassifyTask(task string) Classification {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cached, ok := d.cache[task]; ok {
		return cached
	}

	lower := strings.ToLower(task)
	var matches []triggerMatch
	for _, trigger := range d.triggers {
		var matched []string
		for _, kw := range trigger.Keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			matches = append(matches, triggerMatch{trigger: trigger, matched: matched})
		}
	}

	var result Classification
	if len(matches) == 0 {
		result = Classification{
			RecommendedAgent: "general",
			Confidence:       0.5,
			Reasoning:        "no keyword trigger matched; routing to a general-purpose agent",
		}
	} else {
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].trigger.Priority > matches[j].trigger.Priority
		})
		best := matches[0]
		confidence := float32(len(best.matched)) / 3.0
		if confidence > 1.0 {
			confidence = 1.0
		}

		// Alternatives are the next two triggers by priority, not the next
		// two that happened to match — d.triggers is already priority-sorted.
		alternatives := make([]string, 0, 2)
		afterWinner := false
		for _, t := range d.triggers {
			if t.AgentType == best.trigger.AgentType {
				afterWinner = true
				continue
			}
			if !afterWinner {
				continue
			}
			alternatives = append(alternatives, t.AgentType)
			if len(alternatives) == 2 {
				break
			}
		}

		result = Classification{
			RecommendedAgent:  best.trigger.AgentType,
			Confidence:        confidence,
			Reasoning:         "matched keywords: " + strings.Join(best.matched, ", "),
			AlternativeAgents: alternatives,
		}
	}

	d.cache[task] = result
	return result
}

// ShouldAutoCall reports the first trigger, in priority order (highest
// first), whose confidence meets threshold. Confidence here is
// the trigger's own matched-keyword ratio: matched count divided by the
// trigger's total keyword count, capped at 1.0. This is a distinct,
// order-sensitive formula from ClassifyTask's.
func (d *Dispatcher) ShouldAutoCall(task string, threshold float32) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	lower := strings.ToLower(task)
	for _, trigger := range d.triggers {
		matchCount := 0
		for _, kw := range trigger.Keywords {
			if strings.Contains(lower, kw) {
				matchCount++
			}
		}
		if matchCount == 0 {
			continue
		}
		confidence := float32(matchCount) / float32(len(trigger.Keywords))
		if confidence > 1.0 {
			confidence = 1.0
		}
		if confidence >= threshold {
			return trigger.AgentType, true
		}
	}
	return "", false
}

// AddTrigger appends a custom trigger and re-sorts by priority
// descending.
func (d *Dispatcher) AddTrigger(trigger Trigger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.triggers = append(d.triggers, trigger)
	sortTriggersByPriority(d.triggers)
}

// RemoveTrigger drops every trigger for the given agent type.
func (d *Dispatcher) RemoveTrigger(agentType string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.triggers[:0]
	for _, t := range d.triggers {
		if t.AgentType != agentType {
			kept = append(kept, t)
		}
	}
	d.triggers = kept
}

// ClearCache discards every cached classification.
func (d *Dispatcher) ClearCache() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache = make(map[string]Classification)
}

// Stats summarizes a Dispatcher's current configuration.
type Stats struct {
	TotalTriggers int
	CacheSize     int
	AgentTypes    int
}

// GetStats reports the dispatcher's trigger count, cache size, and the
// number of distinct agent types its triggers cover.
func (d *Dispatcher) GetStats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	distinct := make(map[string]struct{}, len(d.triggers))
	for _, t := range d.triggers {
		distinct[t.AgentType] = struct{}{}
	}
	return Stats{
		TotalTriggers: len(d.triggers),
		CacheSize:     len(d.cache),
		AgentTypes:    len(distinct),
	}
}
