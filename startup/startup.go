// Package startup prepares process-wide configuration before anything else
// reads it.
package startup

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/amp-labs/effort-economics/envutil"
	"github.com/amp-labs/effort-economics/logger"
)

// Option configures ConfigureEnvironment.
type Option func(*options)

type options struct {
	allowOverride bool
}

// WithAllowOverride lets env file values win over variables already set in
// the process environment.
func WithAllowOverride(allowOverride bool) Option {
	return func(o *options) {
		o.allowOverride = allowOverride
	}
}

// ConfigureEnvironment loads the files named by ENV_FILE (a semicolon
// separated list of .env, .json or .yaml files) and returns a context in
// which their variables are visible to envutil readers.
func ConfigureEnvironment(ctx context.Context, opts ...Option) (context.Context, error) {
	envFiles := envutil.Map(envutil.String(ctx, "ENV_FILE"), func(s string) ([]string, error) {
		return splitFileList(s), nil
	}).ValueOrElse(nil)

	return ConfigureEnvironmentFromFiles(ctx, envFiles, opts...)
}

// ConfigureEnvironmentFromFiles is ConfigureEnvironment with an explicit
// file list. Later files override earlier ones.
func ConfigureEnvironmentFromFiles(
	ctx context.Context,
	envFiles []string,
	opts ...Option,
) (context.Context, error) {
	cfg := &options{}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(envFiles) == 0 {
		return ctx, nil
	}

	loader := envutil.NewLoader()

	for _, file := range envFiles {
		count, err := loader.LoadFile(file)
		if err != nil {
			return ctx, fmt.Errorf("loading environment variables from file %q: %w", file, err)
		}

		logger.Get(ctx).Debug("Loaded environment file", "file", file, "count", count)
	}

	for _, key := range loader.Keys() {
		if _, exists := os.LookupEnv(key); exists && !cfg.allowOverride {
			continue
		}

		value, _ := loader.Get(key)
		ctx = envutil.WithEnvOverride(ctx, key, value)
	}

	return ctx, nil
}

func splitFileList(s string) []string {
	var out []string

	for part := range strings.SplitSeq(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
