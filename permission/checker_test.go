package permission

import (
	"testing"

	"github.com/coreagent/orchestrator/agentdef"
	"github.com/stretchr/testify/assert"
)

func testPermissions() agentdef.ToolPermissions {
	return agentdef.ToolPermissions{
		MCP: []string{"search", "read_file"},
		FS: agentdef.FSPermissions{
			Read: true,
			Write: agentdef.FSWritePermission{
				IsPaths: true,
				Paths:   []string{"./artifacts", "./output"},
			},
		},
		Net: agentdef.NetPermissions{
			Allow: []string{"https://api.example.com/*", "https://github.com/*"},
		},
		Shell: agentdef.ShellPermissions{Commands: []string{"npm", "cargo"}},
	}
}

func TestMCPToolAllowed(t *testing.T) {
	c := New(testPermissions())
	assert.NoError(t, c.CheckMCPTool("search"))
	assert.NoError(t, c.CheckMCPTool("read_file"))
	assert.Error(t, c.CheckMCPTool("unauthorized_tool"))
}

func TestFileReadPermission(t *testing.T) {
	c := New(testPermissions())
	assert.NoError(t, c.CheckFileRead("./any_file.txt"))
}

func TestFileWritePermission(t *testing.T) {
	c := New(testPermissions())
	assert.NoError(t, c.CheckFileWrite("./artifacts/output.md"))
	assert.NoError(t, c.CheckFileWrite("./output/result.json"))
	assert.Error(t, c.CheckFileWrite("./unauthorized/file.txt"))
}

func TestFileWriteDoesNotPrefixMatchSiblingDirectory(t *testing.T) {
	perms := testPermissions()
	perms.FS.Write = agentdef.FSWritePermission{IsPaths: true, Paths: []string{"./art"}}
	c := New(perms)
	assert.Error(t, c.CheckFileWrite("./artifacts/output.md"))
}

func TestNetworkAccessPermission(t *testing.T) {
	c := New(testPermissions())
	assert.NoError(t, c.CheckNetworkAccess("https://api.example.com/v1/search"))
	assert.NoError(t, c.CheckNetworkAccess("https://github.com/user/repo"))
	assert.Error(t, c.CheckNetworkAccess("https://unauthorized.com"))
}

func TestShellCommandPermission(t *testing.T) {
	c := New(testPermissions())
	assert.NoError(t, c.CheckShellCommand("npm install"))
	assert.NoError(t, c.CheckShellCommand("cargo build --release"))
	assert.Error(t, c.CheckShellCommand("rm -rf /"))
}

func TestWildcardMCPTools(t *testing.T) {
	perms := testPermissions()
	perms.MCP = []string{"*"}
	c := New(perms)
	assert.NoError(t, c.CheckMCPTool("any_tool"))
}

func TestWildcardNetwork(t *testing.T) {
	perms := testPermissions()
	perms.Net.Allow = []string{"*"}
	c := New(perms)
	assert.NoError(t, c.CheckNetworkAccess("https://any-domain.com"))
}

func TestWildcardShell(t *testing.T) {
	perms := testPermissions()
	perms.Shell = agentdef.ShellPermissions{Commands: []string{"*"}}
	c := New(perms)
	assert.NoError(t, c.CheckShellCommand("any-command"))
}

func TestFSWriteFlagDenies(t *testing.T) {
	perms := testPermissions()
	perms.FS.Write = agentdef.FSWritePermission{Flag: false}
	c := New(perms)
	assert.Error(t, c.CheckFileWrite("./anything"))
}

func TestCheckToolCallDispatchesByToolName(t *testing.T) {
	c := New(testPermissions())
	assert.NoError(t, c.CheckToolCall("read_file", []byte(`{"path":"./anything.txt"}`)))
	assert.Error(t, c.CheckToolCall("write", []byte(`{"file_path":"./unauthorized/x"}`)))
}

func TestCheckToolCallChecksSearchTermAgainstBraveDomain(t *testing.T) {
	perms := testPermissions()
	perms.MCP = []string{"*"}

	denied := New(perms)
	assert.Error(t, denied.CheckToolCall("web_search", []byte(`{"search_term":"idiomatic go errors"}`)))

	perms.Net.Allow = []string{"https://search.brave.com"}
	allowed := New(perms)
	assert.NoError(t, allowed.CheckToolCall("web_search", []byte(`{"search_term":"idiomatic go errors"}`)))
}
