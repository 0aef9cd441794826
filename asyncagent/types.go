// Package asyncagent runs background sub-agents that report progress
// through a bounded inbox, and classifies incoming tasks to the agent
// type best suited to handle them.
package asyncagent

import "time"

// NotificationType classifies a Notification.
type NotificationType string

const (
	NotificationTaskCompleted  NotificationType = "task_completed"
	NotificationTaskFailed     NotificationType = "task_failed"
	NotificationProgressUpdate NotificationType = "progress_update"
	NotificationAgentMessage   NotificationType = "agent_message"
	NotificationError          NotificationType = "error"
	NotificationInfo           NotificationType = "info"
)

// Notification is a single message a sub-agent posts to an Inbox.
type Notification struct {
	ID        string
	AgentID   string
	AgentType string
	Type      NotificationType
	Content   string
	Timestamp time.Time
	Metadata  map[string]string
}

// Status is a sub-agent's current lifecycle state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// State is a sub-agent's observable progress.
type State struct {
	Status   Status
	Progress float64
	Task     string
	Error    string
}

// Task is submitted to a sub-agent for asynchronous execution.
type Task struct {
	ID      string
	Content string
}
