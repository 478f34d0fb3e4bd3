package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/kuitang/internet-e2e/internal/errs"
	"github.com/kuitang/internet-e2e/internal/obs"
)

// DefaultEnvironment is used when NODE_ENV is unset.
const DefaultEnvironment = "local"

// Env is an immutable snapshot of environment settings: the values of an
// env.<name> file overlaid by the ambient process environment.
type Env struct {
	values map[string]string
	name   string
	path   string
	loaded bool
}

// NewEnv builds a snapshot from explicit values. The map is copied.
func NewEnv(values map[string]string) *Env {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Env{values: copied}
}

// EnvFileName returns the conventional file name for an environment.
func EnvFileName(name string) string {
	return "env." + name
}

// Load reads dir/env.<name> when present and merges the process environment
// over it, so already-set ambient variables win. A missing file only logs a
// warning. The process environment is never modified.
func Load(dir, name string) (*Env, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultEnvironment
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, errs.New(errs.InvalidConfiguration, "environment name "+name+" must not contain path separators")
	}

	logger := obs.Pkg("config")
	path := filepath.Join(dir, EnvFileName(name))
	env := &Env{values: map[string]string{}, name: name, path: path}

	fileValues, err := godotenv.Read(path)
	switch {
	case err == nil:
		for k, v := range fileValues {
			env.values[k] = v
		}
		env.loaded = true
		logger.Info("env_file_loaded", "path", path, "keys", len(fileValues))
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("env_file_not_found", "path", path)
	default:
		return nil, errs.Wrap(errs.InvalidConfiguration, "read environment file "+path, err)
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env.values[k] = v
	}
	return env, nil
}

// LoadFromEnvironment loads the env file selected by NODE_ENV (default "local").
func LoadFromEnvironment(dir string) (*Env, error) {
	name := os.Getenv("NODE_ENV")
	if name == "" {
		name = DefaultEnvironment
	}
	return Load(dir, name)
}

// Name is the environment name the snapshot was loaded for.
func (e *Env) Name() string {
	return e.name
}

// Path is the env file path that was looked up.
func (e *Env) Path() string {
	return e.path
}

// FileLoaded reports whether the env file existed and was read.
func (e *Env) FileLoaded() bool {
	return e.loaded
}

// Lookup returns the raw value and whether the key is set at all.
func (e *Env) Lookup(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e.values[key]
	return v, ok
}

// Get returns the value of key, or def when key is unset or empty.
func (e *Env) Get(key, def string) string {
	v, _ := e.Lookup(key)
	if v == "" {
		return def
	}
	return v
}

// GetRequired returns the value of key, failing with a MissingConfiguration
// error when it is unset or empty.
func (e *Env) GetRequired(key string) (string, error) {
	v, _ := e.Lookup(key)
	if v == "" {
		return "", errs.New(errs.MissingConfiguration, "required environment variable "+key+" is not set")
	}
	return v, nil
}

// Keys returns the sorted set of keys in the snapshot.
func (e *Env) Keys() []string {
	if e == nil {
		return nil
	}
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of the snapshot with key set to value. The receiver is
// not modified.
func (e *Env) With(key, value string) *Env {
	out := &Env{values: map[string]string{}}
	if e != nil {
		*out = *e
		out.values = make(map[string]string, len(e.values)+1)
		for k, v := range e.values {
			out.values[k] = v
		}
	}
	out.values[key] = value
	return out
}
