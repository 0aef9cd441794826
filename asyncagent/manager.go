package asyncagent

import "sync"

// Manager registers and supervises every SubAgent in a session, and
// aggregates their notifications into one global Inbox.
type Manager struct {
	mu     sync.RWMutex
	agents map[string]*SubAgent

	globalInbox     *Inbox
	notificationsCh chan Notification
}

// NewManager creates a Manager with a 1000-entry global inbox.
func NewManager() *Manager {
	notificationsCh := make(chan Notification, 256)
	m := &Manager{
		agents:          make(map[string]*SubAgent),
		globalInbox:     NewInbox(1000),
		notificationsCh: notificationsCh,
	}
	go m.drainNotifications()
	return m
}

func (m *Manager) drainNotifications() {
	for n := range m.notificationsCh {
		m.globalInbox.Add(n)
	}
}

// RegisterAgent creates, registers, and returns a new SubAgent of
// agentType.
func (m *Manager) RegisterAgent(agentType string) *SubAgent {
	agent := NewSubAgent(agentType, m.notificationsCh)
	m.mu.Lock()
	m.agents[agent.ID] = agent
	m.mu.Unlock()
	return agent
}

// StartTaskAsync dispatches task to the named agent, if registered.
func (m *Manager) StartTaskAsync(agentID string, task Task) bool {
	m.mu.RLock()
	agent, ok := m.agents[agentID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	agent.StartTaskAsync(task)
	return true
}

// AgentState returns the real, current state of agentID. Unlike a
// naive snapshot cache, this always reflects the agent's own
// mutex-guarded state.
func (m *Manager) AgentState(agentID string) (State, bool) {
	m.mu.RLock()
	agent, ok := m.agents[agentID]
	m.mu.RUnlock()
	if !ok {
		return State{}, false
	}
	return agent.State(), true
}

// AllAgentStates returns every registered agent's current state, keyed by
// agent id.
func (m *Manager) AllAgentStates() map[string]State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]State, len(m.agents))
	for id, agent := range m.agents {
		out[id] = agent.State()
	}
	return out
}

// GlobalInbox exposes the inbox every agent's notifications feed into.
func (m *Manager) GlobalInbox() *Inbox { return m.globalInbox }

// Agent returns the registered SubAgent by id.
func (m *Manager) Agent(agentID string) (*SubAgent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	agent, ok := m.agents[agentID]
	return agent, ok
}

// AllAgentIDs returns the ids of every registered agent.
func (m *Manager) AllAgentIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.agents))
	for id := range m.agents {
		ids = append(ids, id)
	}
	return ids
}

// AgentCount returns how many agents are registered.
func (m *Manager) AgentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.agents)
}
