// Package stage tells which deployment the process runs in, from
// RUNNING_ENV. Tests that leave it unset get Test.
package stage

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/amp-labs/effort-economics/envutil"
)

// Stage is a deployment environment.
type Stage string

// ErrUnrecognizedStage is returned for a RUNNING_ENV outside the known set.
var ErrUnrecognizedStage = errors.New("unrecognized stage")

const (
	Unknown Stage = "unknown"
	Local   Stage = "local"
	Test    Stage = "test"
	Dev     Stage = "dev"
	Staging Stage = "staging"
	Prod    Stage = "prod"
)

// Parse accepts the known stage names in any case.
func Parse(s string) (Stage, error) {
	switch st := Stage(strings.ToLower(strings.TrimSpace(s))); st {
	case Local, Test, Dev, Staging, Prod:
		return st, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrUnrecognizedStage, s)
	}
}

// Current reads RUNNING_ENV. When it is unset the stage is Test under go
// test and Local otherwise; a malformed value is an error.
func Current(ctx context.Context) (Stage, error) {
	fallback := Local
	if flag.Lookup("test.v") != nil {
		fallback = Test
	}

	st, err := envutil.Map(envutil.String(ctx, "RUNNING_ENV"), Parse).Value()
	if errors.Is(err, envutil.ErrEnvVarMissing) {
		return fallback, nil
	}

	if err != nil {
		return Unknown, err
	}

	return st, nil
}

// IsDeployed reports whether st is a shared environment rather than a
// laptop or a test run.
func (st Stage) IsDeployed() bool {
	return st == Dev || st == Staging || st == Prod
}
