// Package permission implements pure functional checks of a tool call
// against an agent's granted ToolPermissions.
package permission

import (
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"github.com/coreagent/orchestrator/agentdef"
	"github.com/coreagent/orchestrator/orcherr"
)

// Checker validates tool calls against one agent's ToolPermissions. It
// holds no mutable state of its own beyond the shared network-pattern
// regex cache, so a single Checker is safe to reuse and to share across
// goroutines.
type Checker struct {
	permissions agentdef.ToolPermissions
}

// New builds a Checker for the given permission grant.
func New(permissions agentdef.ToolPermissions) *Checker {
	return &Checker{permissions: permissions}
}

// CheckMCPTool reports whether toolName is permitted, honoring a "*"
// wildcard entry.
func (c *Checker) CheckMCPTool(toolName string) error {
	for _, allowed := range c.permissions.MCP {
		if allowed == "*" || allowed == toolName {
			return nil
		}
	}
	return orcherr.New(orcherr.KindPermissionDenied,
		"MCP tool '"+toolName+"' is not permitted")
}

// CheckFileRead reports whether reading any path is permitted. The
// permission is all-or-nothing; path is accepted for a uniform call
// signature with CheckFileWrite but not otherwise inspected.
func (c *Checker) CheckFileRead(path string) error {
	if c.permissions.FS.Read {
		return nil
	}
	return orcherr.New(orcherr.KindPermissionDenied, "file read permission denied")
}

// CheckFileWrite reports whether writing to path is permitted.
func (c *Checker) CheckFileWrite(path string) error {
	write := c.permissions.FS.Write
	if !write.IsPaths {
		if write.Flag {
			return nil
		}
		return orcherr.New(orcherr.KindPermissionDenied, "file write permission denied")
	}

	for _, allowed := range write.Paths {
		if path == allowed || isPathPrefix(allowed, path) {
			return nil
		}
	}
	return orcherr.New(orcherr.KindPermissionDenied,
		"file write to '"+path+"' is not permitted")
}

// isPathPrefix reports whether path lies under the allowed directory,
// comparing whole path components rather than raw string prefixes (so
// "./art" does not match a file at "./artifacts/x").
func isPathPrefix(allowed, path string) bool {
	allowed = strings.TrimSuffix(allowed, "/")
	if path == allowed {
		return true
	}
	return strings.HasPrefix(path, allowed+"/")
}

var (
	netCacheMu sync.Mutex
	netCache   = make(map[string]*regexp.Regexp)
)

// CheckNetworkAccess reports whether url is reachable under the agent's
// net.allow glob patterns. An empty allow list denies everything; "*"
// allows everything.
func (c *Checker) CheckNetworkAccess(url string) error {
	if len(c.permissions.Net.Allow) == 0 {
		return orcherr.New(orcherr.KindPermissionDenied, "network access denied - no allowed domains configured")
	}
	for _, pattern := range c.permissions.Net.Allow {
		if pattern == "*" || matchesURLPattern(url, pattern) {
			return nil
		}
	}
	return orcherr.New(orcherr.KindPermissionDenied, "network access to '"+url+"' is not permitted")
}

func matchesURLPattern(url, pattern string) bool {
	netCacheMu.Lock()
	re, ok := netCache[pattern]
	if !ok {
		escaped := strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*")
		compiled, err := regexp.Compile("^" + escaped + "$")
		if err != nil {
			compiled = regexp.MustCompile("^" + regexp.QuoteMeta(pattern) + "$")
		}
		netCache[pattern] = compiled
		re = compiled
	}
	netCacheMu.Unlock()
	return re.MatchString(url)
}

// CheckShellCommand reports whether command's executable name is
// permitted. Only the first whitespace-delimited token is checked, as
// command-line arguments are not restricted independently.
func (c *Checker) CheckShellCommand(command string) error {
	commands := c.permissions.Shell.Commands
	if len(commands) == 0 {
		return orcherr.New(orcherr.KindPermissionDenied, "shell command execution denied - no commands allowed")
	}

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return orcherr.New(orcherr.KindPermissionDenied, "empty shell command")
	}
	name := fields[0]

	for _, allowed := range commands {
		if allowed == "*" || allowed == name {
			return nil
		}
	}
	return orcherr.New(orcherr.KindPermissionDenied, "shell command '"+name+"' is not permitted")
}

// CheckToolCall performs the comprehensive check a runtime makes before
// letting a tool call through: the MCP grant, plus any parameter-derived
// filesystem/network/shell check the tool name implies.
func (c *Checker) CheckToolCall(toolName string, parameters json.RawMessage) error {
	if err := c.CheckMCPTool(toolName); err != nil {
		return err
	}

	var params map[string]interface{}
	if len(parameters) > 0 {
		_ = json.Unmarshal(parameters, &params)
	}
	str := func(key string) (string, bool) {
		v, ok := params[key]
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		return s, ok
	}

	switch toolName {
	case "read_file", "list_dir", "glob_file_search":
		if path, ok := str("path"); ok {
			if err := c.CheckFileRead(path); err != nil {
				return err
			}
		}
		if path, ok := str("target_file"); ok {
			if err := c.CheckFileRead(path); err != nil {
				return err
			}
		}
	case "write", "search_replace", "delete_file":
		if path, ok := str("file_path"); ok {
			if err := c.CheckFileWrite(path); err != nil {
				return err
			}
		}
		if path, ok := str("target_file"); ok {
			if err := c.CheckFileWrite(path); err != nil {
				return err
			}
		}
	case "web_search", "fetch", "http_request":
		if url, ok := str("url"); ok {
			if err := c.CheckNetworkAccess(url); err != nil {
				return err
			}
		}
		if _, ok := str("search_term"); ok {
			if err := c.CheckNetworkAccess("https://search.brave.com"); err != nil {
				return err
			}
		}
	case "run_terminal_cmd", "shell", "exec":
		if cmd, ok := str("command"); ok {
			if err := c.CheckShellCommand(cmd); err != nil {
				return err
			}
		}
	}

	return nil
}

// Summary returns a one-line human-readable description of the grant, for
// logging.
func (c *Checker) Summary() string {
	write := "deny"
	if c.permissions.FS.Write.IsPaths {
		write = strings.Join(c.permissions.FS.Write.Paths, ",")
	} else if c.permissions.FS.Write.Flag {
		write = "allow"
	}
	return "mcp=" + strings.Join(c.permissions.MCP, ",") +
		" fs.read=" + boolStr(c.permissions.FS.Read) +
		" fs.write=" + write +
		" net=" + strings.Join(c.permissions.Net.Allow, ",") +
		" shell=" + strings.Join(c.permissions.Shell.Commands, ",")
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
