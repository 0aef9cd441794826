// Package agentdef defines declarative agent definitions and loads them
// from YAML files on disk.
package agentdef

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// AgentDefinition describes a sub-agent: its goal, the tools it may use,
// the policies that bound its execution, and what it is expected to
// produce.
type AgentDefinition struct {
	Name             string          `yaml:"name" mapstructure:"name" jsonschema:"required,description=Human-readable agent name"`
	Goal             string          `yaml:"goal" mapstructure:"goal" jsonschema:"required"`
	Tools            ToolPermissions `yaml:"tools" mapstructure:"tools"`
	Policies         AgentPolicies   `yaml:"policies" mapstructure:"policies"`
	SuccessCriteria  []string        `yaml:"success_criteria" mapstructure:"success_criteria"`
	Artifacts        []string        `yaml:"artifacts" mapstructure:"artifacts"`
}

// ToolPermissions grants an agent access along four independent axes: MCP
// tool names, filesystem read/write, outbound network, and shell
// execution.
type ToolPermissions struct {
	MCP   []string         `yaml:"mcp" mapstructure:"mcp"`
	FS    FSPermissions    `yaml:"fs" mapstructure:"fs"`
	Net   NetPermissions   `yaml:"net" mapstructure:"net"`
	Shell ShellPermissions `yaml:"shell" mapstructure:"shell"`
}

// FSPermissions governs filesystem access.
type FSPermissions struct {
	Read  bool              `yaml:"read" mapstructure:"read"`
	Write FSWritePermission `yaml:"write" mapstructure:"write"`
}

// FSWritePermission is a closed sum type: either a blanket allow/deny flag
// or a list of allowed path prefixes. It unmarshals from either a YAML
// boolean or a YAML sequence of strings, mirroring the untagged enum the
// original agent-definition format uses.
type FSWritePermission struct {
	// Tagged variant discriminator. Exactly one of the two fields below
	// is meaningful depending on IsPaths.
	IsPaths bool
	Flag    bool
	Paths   []string
}

func (w *FSWritePermission) UnmarshalYAML(value *yaml.Node) error {
	var asBool bool
	if err := value.Decode(&asBool); err == nil {
		w.IsPaths = false
		w.Flag = asBool
		return nil
	}

	var asPaths []string
	if err := value.Decode(&asPaths); err == nil {
		w.IsPaths = true
		w.Paths = asPaths
		return nil
	}

	return fmt.Errorf("fs.write must be a boolean or a list of paths")
}

func (w FSWritePermission) MarshalYAML() (interface{}, error) {
	if w.IsPaths {
		return w.Paths, nil
	}
	return w.Flag, nil
}

// NetPermissions lists the URL glob patterns an agent may reach.
type NetPermissions struct {
	Allow []string `yaml:"allow" mapstructure:"allow"`
}

// ShellPermissions is a closed sum type: either no shell access at all, or
// a list of allowed executable names.
type ShellPermissions struct {
	Commands []string
}

func (s *ShellPermissions) UnmarshalYAML(value *yaml.Node) error {
	// Bare sequence form: `shell: []` or `shell: [npm, cargo]`.
	var asList []string
	if err := value.Decode(&asList); err == nil {
		s.Commands = asList
		return nil
	}

	// Mapping form: `shell: {exec: [npm, cargo]}`.
	var asMap struct {
		Exec []string `yaml:"exec"`
	}
	if err := value.Decode(&asMap); err == nil {
		s.Commands = asMap.Exec
		return nil
	}

	return fmt.Errorf("shell must be a list of commands or a mapping with an 'exec' key")
}

func (s ShellPermissions) MarshalYAML() (interface{}, error) {
	return struct {
		Exec []string `yaml:"exec"`
	}{Exec: s.Commands}, nil
}

// AgentPolicies bounds how an agent's context and output are handled.
type AgentPolicies struct {
	Context ContextPolicy `yaml:"context" mapstructure:"context"`
	Secrets SecretsPolicy `yaml:"secrets" mapstructure:"secrets"`
}

// ContextPolicy bounds the context window an agent may consume.
type ContextPolicy struct {
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	Retention string `yaml:"retention" mapstructure:"retention"` // "job", "session", "permanent"
}

// SecretsPolicy controls redaction of agent output.
type SecretsPolicy struct {
	Redact bool `yaml:"redact" mapstructure:"redact"`
}

// defaultContextPolicy mirrors the distilled format's defaults: a 16000
// token window retained for the job's lifetime.
func defaultContextPolicy() ContextPolicy {
	return ContextPolicy{MaxTokens: 16000, Retention: "job"}
}

// Status is the run state of a single agent turn.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// AgentResult is what a completed (or failed) agent turn produced.
type AgentResult struct {
	AgentName   string   `json:"agent_name"`
	Status      Status   `json:"status"`
	Artifacts   []string `json:"artifacts"`
	TokensUsed  int      `json:"tokens_used"`
	DurationSec float64  `json:"duration_secs"`
	Error       string   `json:"error,omitempty"`
}
