package agentdef

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// agentsSubdir is where agent definitions live relative to a workspace
// root, following the same workspace-relative convention the rest of the
// corpus uses for its own declarative config directories.
const agentsSubdir = ".codex/agents"

// Loader reads AgentDefinition YAML files from a workspace's agents
// directory and caches them by name.
type Loader struct {
	agentsDir string

	mu    sync.Mutex
	cache map[string]AgentDefinition
}

// NewLoader creates a Loader rooted at baseDir. Definitions are read from
// baseDir/.codex/agents.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		agentsDir: filepath.Join(baseDir, agentsSubdir),
		cache:     make(map[string]AgentDefinition),
	}
}

// LoadAll reads every *.yaml/*.yml file in the agents directory. Files
// that fail to parse are skipped, not fatal — a single malformed
// definition should not block the rest of the workspace's agents from
// loading.
func (l *Loader) LoadAll() ([]AgentDefinition, error) {
	entries, err := os.ReadDir(l.agentsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read agents directory %s: %w", l.agentsDir, err)
	}

	var defs []AgentDefinition
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		def, err := l.loadFile(filepath.Join(l.agentsDir, entry.Name()))
		if err != nil {
			continue
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadByName loads a single agent definition, preferring a cached copy.
func (l *Loader) LoadByName(name string) (AgentDefinition, error) {
	l.mu.Lock()
	if cached, ok := l.cache[name]; ok {
		l.mu.Unlock()
		return cached, nil
	}
	l.mu.Unlock()

	yamlPath := filepath.Join(l.agentsDir, name+".yaml")
	ymlPath := filepath.Join(l.agentsDir, name+".yml")

	path := yamlPath
	if _, err := os.Stat(yamlPath); err != nil {
		if _, err := os.Stat(ymlPath); err == nil {
			path = ymlPath
		} else {
			return AgentDefinition{}, fmt.Errorf("agent definition not found: %s", name)
		}
	}

	def, err := l.loadFile(path)
	if err != nil {
		return AgentDefinition{}, err
	}

	l.mu.Lock()
	l.cache[name] = def
	l.mu.Unlock()

	return def, nil
}

// loadFile parses a single agent YAML file. Parsing is two-step: decode
// into a raw tree with yaml.v3, expand ${VAR} references over its string
// leaves, then re-marshal and decode into AgentDefinition so the tagged
// FSWritePermission/ShellPermissions fields still get yaml.v3's
// node-aware UnmarshalYAML.
func (l *Loader) loadFile(path string) (AgentDefinition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return AgentDefinition{}, fmt.Errorf("read agent file %s: %w", path, err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return AgentDefinition{}, fmt.Errorf("parse agent yaml %s: %w", path, err)
	}
	expandEnvStrings(raw)

	expanded, err := yaml.Marshal(raw)
	if err != nil {
		return AgentDefinition{}, fmt.Errorf("re-marshal expanded agent yaml %s: %w", path, err)
	}

	var def AgentDefinition
	if err := yaml.Unmarshal(expanded, &def); err != nil {
		return AgentDefinition{}, fmt.Errorf("decode agent yaml %s: %w", path, err)
	}

	// Apply defaults mapstructure/yaml leave zero.
	if def.Policies.Context.MaxTokens == 0 {
		def.Policies.Context = defaultContextPolicy()
	}
	if def.Policies.Context.Retention == "" {
		def.Policies.Context.Retention = "job"
	}

	return def, nil
}

// expandEnvStrings walks a decoded YAML tree and expands ${VAR} /
// ${VAR:-default} references in every string leaf in place.
func expandEnvStrings(node map[string]interface{}) {
	for k, v := range node {
		node[k] = expandEnvValue(v)
	}
}

func expandEnvValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return expandEnvString(t)
	case map[string]interface{}:
		expandEnvStrings(t)
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = expandEnvValue(e)
		}
		return t
	default:
		return v
	}
}

func expandEnvString(s string) string {
	return os.Expand(s, func(name string) string {
		if idx := strings.Index(name, ":-"); idx >= 0 {
			key, def := name[:idx], name[idx+2:]
			if val, ok := os.LookupEnv(key); ok {
				return val
			}
			return def
		}
		return os.Getenv(name)
	})
}

func isYAMLFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

// ClearCache drops every cached definition.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]AgentDefinition)
}

// ListAvailable returns the sorted names of every agent definition file
// present in the agents directory, without loading or caching them.
func (l *Loader) ListAvailable() ([]string, error) {
	entries, err := os.ReadDir(l.agentsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read agents directory %s: %w", l.agentsDir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
	}
	sort.Strings(names)
	return names, nil
}

// Watch starts an fsnotify watch on the agents directory and invalidates
// the cache whenever a definition is created, written, removed, or
// renamed. The returned channel emits one struct{} per batch of fsnotify
// events it handled; it is closed when ctx is cancelled.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create agent definition watcher: %w", err)
	}
	if err := os.MkdirAll(l.agentsDir, 0o755); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("ensure agents directory %s: %w", l.agentsDir, err)
	}
	if err := watcher.Add(l.agentsDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch agents directory %s: %w", l.agentsDir, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isYAMLFile(event.Name) {
					continue
				}
				l.ClearCache()
				select {
				case out <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}

// Schema returns a JSON Schema describing the AgentDefinition shape, for
// validating hand-written agent YAML before it reaches LoadByName.
func Schema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{ExpandedStruct: true}
	return reflector.Reflect(&AgentDefinition{})
}
