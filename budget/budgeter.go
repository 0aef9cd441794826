// Package budget tracks token consumption against a global ceiling and
// optional per-agent limits.
package budget

import "sync"

// TokenBudgeter enforces a total token ceiling plus optional per-agent
// limits. A single mutex guards used, perAgentUsed, and perAgentLimit
// together so that used always equals the sum of perAgentUsed — no
// operation observes one without the others.
type TokenBudgeter struct {
	mu sync.Mutex

	total          int
	used           int
	perAgentUsed   map[string]int
	perAgentLimit  map[string]int

	metrics *Metrics
}

// New creates a TokenBudgeter with the given total budget.
func New(total int) *TokenBudgeter {
	return &TokenBudgeter{
		total:         total,
		perAgentUsed:  make(map[string]int),
		perAgentLimit: make(map[string]int),
	}
}

// WithMetrics attaches a Metrics recorder. It returns the budgeter for
// chaining.
func (b *TokenBudgeter) WithMetrics(m *Metrics) *TokenBudgeter {
	b.metrics = m
	return b
}

// SetAgentLimit sets (or replaces) the per-agent ceiling for agentName.
func (b *TokenBudgeter) SetAgentLimit(agentName string, limit int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.perAgentLimit[agentName] = limit
}

// TryConsume attempts to charge tokens against both the global budget and
// agentName's own limit (if one is set). It returns false without
// mutating any state if either ceiling would be exceeded.
func (b *TokenBudgeter) TryConsume(agentName string, tokens int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used+tokens > b.total {
		b.recordAttempt(agentName, false)
		return false
	}

	agentUsed := b.perAgentUsed[agentName]
	if limit, ok := b.perAgentLimit[agentName]; ok {
		if agentUsed+tokens > limit {
			b.recordAttempt(agentName, false)
			return false
		}
	}

	b.used += tokens
	b.perAgentUsed[agentName] = agentUsed + tokens
	b.recordAttempt(agentName, true)
	return true
}

// ForceConsume charges tokens against agentName without any budget check.
// Used for accounting after the fact (e.g. a final usage report from an
// LLM provider that must be recorded regardless of ceilings).
func (b *TokenBudgeter) ForceConsume(agentName string, tokens int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used += tokens
	b.perAgentUsed[agentName] += tokens
	b.recordAttempt(agentName, true)
}

// Used returns total tokens consumed so far.
func (b *TokenBudgeter) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Remaining returns the tokens left in the total budget; never negative.
func (b *TokenBudgeter) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used >= b.total {
		return 0
	}
	return b.total - b.used
}

// AgentUsage returns how many tokens agentName has consumed.
func (b *TokenBudgeter) AgentUsage(agentName string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.perAgentUsed[agentName]
}

// AllUsage returns a snapshot copy of every agent's consumption.
func (b *TokenBudgeter) AllUsage() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]int, len(b.perAgentUsed))
	for k, v := range b.perAgentUsed {
		out[k] = v
	}
	return out
}

// Rebalance replaces multiple agents' limits atomically.
func (b *TokenBudgeter) Rebalance(redistributions map[string]int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for agent, limit := range redistributions {
		b.perAgentLimit[agent] = limit
	}
}

// Utilization returns used/total in [0.0, 1.0]; 0 when total is 0.
func (b *TokenBudgeter) Utilization() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.total == 0 {
		return 0
	}
	return float64(b.used) / float64(b.total)
}

// ShouldFallbackLightweight reports whether utilization has reached
// threshold, signalling that callers should switch to a cheaper execution
// mode.
func (b *TokenBudgeter) ShouldFallbackLightweight(threshold float64) bool {
	return b.Utilization() >= threshold
}

// recordAttempt must be called with mu held.
func (b *TokenBudgeter) recordAttempt(agentName string, accepted bool) {
	if b.metrics == nil {
		return
	}
	b.metrics.observe(agentName, accepted, float64(b.used)/float64(maxInt(b.total, 1)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
