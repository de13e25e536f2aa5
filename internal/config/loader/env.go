package loader

import (
	"os"
	"sort"
	"strings"
)

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "PAPYRUSINI_")
	mapping map[string]string // Env var -> config path
}

// NewEnvLoader creates an environment variable loader.
// The prefix should include the trailing underscore (e.g., "PAPYRUSINI_").
func NewEnvLoader(prefix string, mapping map[string]string) *EnvLoader {
	if mapping == nil {
		mapping = make(map[string]string)
	}
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
	}
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	l.mapping[envVar] = configPath
}

// Load returns the raw values of mapped variables keyed by config path, and
// the sorted names of prefixed variables that have no mapping.
// Empty values are treated as set.
func (l *EnvLoader) Load() (map[string]string, []string) {
	values := make(map[string]string)
	for env, path := range l.mapping {
		if val, ok := os.LookupEnv(env); ok {
			values[path] = val
		}
	}

	var unknown []string
	for _, env := range os.Environ() {
		name, _, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		if _, mapped := l.mapping[name]; !mapped {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)

	return values, unknown
}

// ExpandEnvInString expands environment variables in a string.
// Supports both $VAR and ${VAR} syntax.
func ExpandEnvInString(s string) string {
	return os.ExpandEnv(s)
}
