package supervisor

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/coreagent/orchestrator/workflow"
)

// Config bounds how Supervisor coordinates a goal end to end.
type Config struct {
	WorkspaceDir      string
	AgentsBaseDir     string
	TotalTokenBudget  int
	AuditLogDir       string
	Coordination      workflow.Config
	AgentNames        []string
	LightweightAt     float64
	LogLevel          string
}

// DefaultConfig mirrors workflow's own defaults plus sensible budget and
// path defaults for a single-workspace deployment.
func DefaultConfig() Config {
	return Config{
		WorkspaceDir:     ".",
		AgentsBaseDir:    ".",
		TotalTokenBudget: 1_000_000,
		AuditLogDir:      ".codex/audit",
		Coordination:     workflow.DefaultConfig(),
		LightweightAt:    0.8,
		LogLevel:         "info",
	}
}

// DecodeConfig decodes a loosely-typed configuration map (as parsed from
// a YAML/JSON/TOML config file by the embedding application) into a
// Config, applying DefaultConfig's values for anything the map omits.
func DecodeConfig(raw map[string]interface{}) (Config, error) {
	cfg := DefaultConfig()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		ErrorUnused:      false,
	})
	if err != nil {
		return Config{}, fmt.Errorf("building config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("decoding supervisor config: %w", err)
	}
	return cfg, nil
}
