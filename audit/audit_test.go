package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCreation(t *testing.T) {
	event := NewEvent("agent-1", EventAgentExecution, AgentExecutionData{
		AgentName: "coder",
		Status:    ExecutionStarted,
	})
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "agent-1", event.ActorID)
	assert.Equal(t, EventAgentExecution, event.Type)
	assert.WithinDuration(t, time.Now(), event.Timestamp, 5*time.Second)
}

func TestEventWithSessionAndMetadata(t *testing.T) {
	event := NewEvent("agent-1", EventSecurity, SecurityData{}).
		WithSession("session-1").
		WithMetadata("api_key", "secret-value-123")

	assert.Equal(t, "session-1", event.SessionID)
	assert.Equal(t, "api_key=[REDACTED]", event.Metadata["api_key"])
}

func TestSanitizePathReplacesUsername(t *testing.T) {
	t.Setenv("USER", "testuser")

	sanitized := SanitizePath("/home/testuser/projects/app")
	assert.Contains(t, sanitized, "[USER]")
	assert.NotContains(t, sanitized, "testuser")
}

func TestSanitizePathReplacesHomeDirectory(t *testing.T) {
	t.Setenv("USER", "")
	t.Setenv("HOME", "/home/distinct-home")

	sanitized := SanitizePath("/home/distinct-home/projects/app")
	assert.Contains(t, sanitized, "[HOME]")
	assert.NotContains(t, sanitized, "distinct-home")
}

func TestTruncatePreservesShortStrings(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 200))
}

func TestTruncateIsRuneSafe(t *testing.T) {
	long := ""
	for i := 0; i < 250; i++ {
		long += "日"
	}
	truncated := Truncate(long, 200)
	assert.Equal(t, 203, len([]rune(truncated))) // 200 runes + "..."
}

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := NewLogger(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, dir
}

func readLogFile(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "audit.jsonl"))
	require.NoError(t, err)
	return string(data)
}

func TestLoggerCreation(t *testing.T) {
	_, dir := newTestLogger(t)
	_, err := os.Stat(filepath.Join(dir, "audit.jsonl"))
	assert.NoError(t, err)
}

func TestLogAgentStart(t *testing.T) {
	l, dir := newTestLogger(t)
	require.NoError(t, l.LogAgentStart("session-1", "test-agent", "do the thing", time.Now().UTC()))
	require.NoError(t, l.Flush())

	contents := readLogFile(t, dir)
	assert.Contains(t, contents, "test-agent")
	assert.Contains(t, contents, "started")
}

func TestLogAgentComplete(t *testing.T) {
	l, dir := newTestLogger(t)
	start := time.Now().Add(-2 * time.Second)
	require.NoError(t, l.LogAgentComplete("session-1", "test-agent", start, 500, []string{"out.md"}))
	require.NoError(t, l.Flush())

	contents := readLogFile(t, dir)
	assert.Contains(t, contents, "completed")
	assert.Contains(t, contents, "out.md")
}

func TestLogTokenUsage(t *testing.T) {
	l, dir := newTestLogger(t)
	limit := 2000
	remaining := 1000
	require.NoError(t, l.LogTokenUsage("session-1", "agent-1", "agent", 1000, &limit, &remaining, "delegate"))
	require.NoError(t, l.Flush())

	contents := readLogFile(t, dir)
	assert.Contains(t, contents, `"tokens_consumed":1000`)
}

func TestLogSecurityEvent(t *testing.T) {
	l, dir := newTestLogger(t)
	require.NoError(t, l.LogSecurityEvent("session-1", SeverityWarning, CategoryPermissionDenied,
		"write to unauthorized path denied", "permission.Checker", ActionBlocked, nil))
	require.NoError(t, l.Flush())

	contents := readLogFile(t, dir)
	assert.Contains(t, contents, "permission_denied")
	assert.Contains(t, contents, "blocked")
}

func TestLogAPICallTruncatesPreviews(t *testing.T) {
	l, dir := newTestLogger(t)
	longPrompt := ""
	for i := 0; i < 300; i++ {
		longPrompt += "x"
	}
	require.NoError(t, l.LogAPICall("session-1", "fake", "fake-model", time.Now(), 120*time.Millisecond, 10, 20, 200, nil, longPrompt, "short response"))
	require.NoError(t, l.Flush())

	contents := readLogFile(t, dir)
	assert.NotContains(t, contents, longPrompt)
}

func TestFileStorageWrite(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFileStorage(dir)
	require.NoError(t, err)
	defer storage.Close()

	require.NoError(t, storage.WriteEvent(NewEvent("a", EventSecurity, SecurityData{})))
	require.NoError(t, storage.Flush())

	data, err := os.ReadFile(filepath.Join(dir, "audit.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "security")
}

func TestLogRotation(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFileStorage(dir)
	require.NoError(t, err)
	storage.MaxFileSize = 100
	defer storage.Close()

	for i := 0; i < 20; i++ {
		require.NoError(t, storage.WriteEvent(NewEvent("a", EventSecurity, SecurityData{Message: "padding-padding-padding"})))
		require.NoError(t, storage.Flush())
		require.NoError(t, storage.RotateIfNeeded())
	}

	_, err = os.Stat(filepath.Join(dir, "audit.jsonl.1"))
	assert.NoError(t, err)
}
