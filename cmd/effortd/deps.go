package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amp-labs/effort-economics/calc"
	"github.com/amp-labs/effort-economics/debounce"
	"github.com/amp-labs/effort-economics/envutil"
	"github.com/amp-labs/effort-economics/geocode"
	"github.com/amp-labs/effort-economics/http/transport"
	"github.com/amp-labs/effort-economics/logger"
	"github.com/amp-labs/effort-economics/resultstore"
	"github.com/amp-labs/effort-economics/shutdown"
	"github.com/amp-labs/effort-economics/timezone"
	"github.com/amp-labs/effort-economics/wizard"
)

// remotes are the outbound clients, built from the environment.
type remotes struct {
	geocoder *geocode.Client
	calc     *calc.Client
}

func newRemotes(ctx context.Context) (*remotes, error) {
	timeout, err := envutil.Duration(ctx, "OUTBOUND_TIMEOUT",
		envutil.Default(calc.DefaultTimeout)).Value()
	if err != nil {
		return nil, err
	}

	tzURL, err := baseURL(ctx, "TIMEZONE_BASE_URL", timezone.DefaultBaseURL)
	if err != nil {
		return nil, err
	}

	geoURL, err := baseURL(ctx, "GEOCODER_BASE_URL", geocode.DefaultBaseURL)
	if err != nil {
		return nil, err
	}

	apiURL, err := baseURL(ctx, "EFFORT_API_BASE_URL", calc.DefaultBaseURL)
	if err != nil {
		return nil, err
	}

	userAgent := envutil.String(ctx, "GEOCODER_USER_AGENT",
		envutil.Default(geocode.DefaultUserAgent)).ValueOrElse(geocode.DefaultUserAgent)

	client := transport.NewClient(ctx, timeout)

	zones := timezone.NewResolver(client, timezone.WithBaseURL(tzURL))

	return &remotes{
		geocoder: geocode.New(client,
			geocode.WithBaseURL(geoURL),
			geocode.WithUserAgent(userAgent),
			geocode.WithZoneResolver(zones)),
		calc: calc.New(client,
			calc.WithBaseURL(apiURL),
			calc.WithTimeout(timeout)),
	}, nil
}

// baseURL reads an http(s) URL, without a trailing slash.
func baseURL(ctx context.Context, key, dflt string) (string, error) {
	u, err := envutil.URL(ctx, key).Value()
	if errors.Is(err, envutil.ErrEnvVarMissing) {
		return dflt, nil
	}

	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(u.String(), "/"), nil
}

// sessionOptions reads the wizard timings.
func sessionOptions(ctx context.Context) ([]wizard.Option, error) {
	debounceWait, err := envutil.Duration(ctx, "SUGGEST_DEBOUNCE", envutil.Default(debounce.DefaultWait)).Value()
	if err != nil {
		return nil, err
	}

	dismiss, err := envutil.Duration(ctx, "ERROR_DISMISS_AFTER",
		envutil.Default(wizard.DefaultErrorDismissAfter)).Value()
	if err != nil {
		return nil, err
	}

	submitTimeout, err := envutil.Duration(ctx, "OUTBOUND_TIMEOUT",
		envutil.Default(wizard.DefaultSubmitTimeout)).Value()
	if err != nil {
		return nil, err
	}

	return []wizard.Option{
		wizard.WithSuggestDebounce(debounceWait, nil),
		wizard.WithErrorDismissAfter(dismiss),
		wizard.WithSubmitTimeout(submitTimeout),
	}, nil
}

// openStore opens the configured result store and closes it on shutdown.
func openStore(ctx context.Context) (resultstore.Store, error) {
	store, err := resultstore.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening result store: %w", err)
	}

	shutdown.BeforeShutdown(func() {
		if err := store.Close(); err != nil {
			logger.Get(ctx).Warn("closing result store", "error", err)
		}
	})

	return store, nil
}
