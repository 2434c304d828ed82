package envutil

import (
	"context"
	"maps"
	"slices"
)

// Loader is an isolated collection of environment variables. It never
// calls os.Setenv; values reach readers through EnhanceContext.
//
// Loader is not thread-safe.
type Loader struct {
	environment map[string]string
}

// NewLoader creates an empty Loader.
func NewLoader() *Loader {
	return &Loader{
		environment: make(map[string]string),
	}
}

// LoadFile merges the variables of an env file into the loader, overriding
// existing keys. It returns the number of variables read.
func (l *Loader) LoadFile(filename string) (int, error) {
	vars, err := LoadEnvFile(filename)
	if err != nil {
		return 0, err
	}

	maps.Copy(l.environment, vars)

	return len(vars), nil
}

// Set stores a single variable.
func (l *Loader) Set(key, value string) {
	l.environment[key] = value
}

// Get returns a variable and whether it is present.
func (l *Loader) Get(key string) (string, bool) {
	val, ok := l.environment[key]

	return val, ok
}

// Keys returns the sorted variable names.
func (l *Loader) Keys() []string {
	return slices.Sorted(maps.Keys(l.environment))
}

// EnhanceContext returns a context in which every loaded variable
// overrides the process environment for envutil readers.
func (l *Loader) EnhanceContext(ctx context.Context) context.Context {
	for _, key := range l.Keys() {
		ctx = WithEnvOverride(ctx, key, l.environment[key])
	}

	return ctx
}
