package asyncagent

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SubAgent is a background worker that executes tasks off its own
// channel and reports progress through its Inbox and a shared
// notification channel.
type SubAgent struct {
	ID        string
	AgentType string

	mu    sync.RWMutex
	state State

	inbox           *Inbox
	notificationsCh chan Notification
	tasksCh         chan Task
}

// NewSubAgent creates a SubAgent with a 100-entry inbox and a task
// channel buffered to one task. Notifications are forwarded to the
// caller-supplied notificationsCh.
func NewSubAgent(agentType string, notificationsCh chan Notification) *SubAgent {
	return &SubAgent{
		ID:              uuid.NewString(),
		AgentType:       agentType,
		state:           State{Status: StatusIdle},
		inbox:           NewInbox(100),
		notificationsCh: notificationsCh,
		tasksCh:         make(chan Task, 1),
	}
}

// StartTaskAsync marks the agent as working and enqueues task for
// processing by whatever goroutine is draining Tasks().
func (a *SubAgent) StartTaskAsync(task Task) {
	a.mu.Lock()
	a.state = State{Status: StatusWorking, Task: task.Content}
	a.mu.Unlock()

	a.tasksCh <- task
	a.notify(NotificationInfo, "Task started: "+task.Content)
}

// Tasks exposes the channel a worker goroutine should range over to pick
// up tasks submitted via StartTaskAsync.
func (a *SubAgent) Tasks() <-chan Task { return a.tasksCh }

// notify records a notification in the agent's own inbox and forwards it
// to the shared notification channel (non-blocking: a full channel drops
// the forward but the inbox entry is never lost).
func (a *SubAgent) notify(notificationType NotificationType, content string) {
	n := Notification{
		ID:        uuid.NewString(),
		AgentID:   a.ID,
		AgentType: a.AgentType,
		Type:      notificationType,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	a.inbox.Add(n)
	select {
	case a.notificationsCh <- n:
	default:
	}
}

// UpdateProgress reports fractional progress on the current task,
// clamped to [0,1].
func (a *SubAgent) UpdateProgress(progress float64) {
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	a.mu.Lock()
	a.state.Progress = progress
	a.mu.Unlock()
	a.notify(NotificationProgressUpdate, "progress update")
}

// CompleteTask marks the current task as finished successfully.
func (a *SubAgent) CompleteTask(result string) {
	a.mu.Lock()
	a.state.Status = StatusDone
	a.state.Progress = 1.0
	a.mu.Unlock()
	a.notify(NotificationTaskCompleted, result)
}

// FailTask marks the current task as failed.
func (a *SubAgent) FailTask(cause string) {
	a.mu.Lock()
	a.state.Status = StatusFailed
	a.state.Error = cause
	a.mu.Unlock()
	a.notify(NotificationTaskFailed, cause)
}

// State returns the agent's current observable state.
func (a *SubAgent) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Inbox exposes the agent's own notification inbox.
func (a *SubAgent) Inbox() *Inbox { return a.inbox }
