package transport

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/dnscache"
)

var dnsResolver = &dnscache.Resolver{} //nolint:gochecknoglobals

var dnsRefreshes = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "outbound_dns_cache_refreshes_total",
	Help: "Number of times the outbound DNS cache was refreshed",
})

var errNoAddresses = errors.New("no addresses for host")

// RefreshDNSCache drops unused entries and re-resolves the rest.
func RefreshDNSCache() {
	dnsResolver.Refresh(true)
	dnsRefreshes.Inc()
}

// RunDNSRefresher calls RefreshDNSCache every interval until ctx is done.
func RunDNSRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			RefreshDNSCache()
		}
	}
}

// cachedDialer resolves through the cache and tries each address in turn.
type cachedDialer struct {
	dialer   *net.Dialer
	resolver *dnscache.Resolver
}

func (d *cachedDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	ips, err := d.resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}

	if len(ips) == 0 {
		return nil, &net.OpError{Op: "dial", Net: network, Err: errNoAddresses}
	}

	var errs []error

	for _, ip := range ips {
		conn, err := d.dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
		if err == nil {
			return conn, nil
		}

		errs = append(errs, err)
	}

	return nil, errors.Join(errs...)
}
