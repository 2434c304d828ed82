package main

import (
	"time"

	"github.com/amp-labs/effort-economics/envutil"
	"github.com/amp-labs/effort-economics/http/transport"
	"github.com/amp-labs/effort-economics/server"
	"github.com/amp-labs/effort-economics/wizard"
	"github.com/spf13/cobra"
)

const defaultDNSRefresh = 5 * time.Minute

var serveCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "serve",
	Short: "Serve the wizard API, result pages and metrics",
	Long: `Starts the HTTP/JSON wizard API on LISTEN_ADDR and Prometheus metrics on
METRICS_ADDR. Idle sessions are dropped after SESSION_IDLE_TTL.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := server.LoadConfig(ctx)
	if err != nil {
		return err
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}

	rem, err := newRemotes(ctx)
	if err != nil {
		return err
	}

	opts, err := sessionOptions(ctx)
	if err != nil {
		return err
	}

	dnsRefresh, err := envutil.Duration(ctx, "HTTP_TRANSPORT_DNS_REFRESH_INTERVAL",
		envutil.Default(defaultDNSRefresh)).Value()
	if err != nil {
		return err
	}

	manager := wizard.NewManager(wizard.Deps{
		Geocoder:   rem.geocoder,
		Calculator: rem.calc,
		Store:      store,
	}, opts...)
	defer manager.Close()

	go transport.RunDNSRefresher(ctx, dnsRefresh)

	return server.New(manager, store, rem.calc).Run(ctx, cfg)
}
