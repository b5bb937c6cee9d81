// Package resolve looks up backend hostnames, replacing the original
// program's gethostbyname call with an address-family-agnostic resolver.
package resolve

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// Resolver resolves a hostname to an IP address. When Upstream is set it
// queries that DNS server directly via github.com/miekg/dns; otherwise it
// falls back to net.DefaultResolver (system resolution, including /etc/hosts).
type Resolver struct {
	// Upstream is a "host:port" DNS server address. Empty uses the system
	// resolver instead.
	Upstream string

	client *dns.Client
}

// New creates a Resolver. If upstream is empty, Resolve falls back to the
// system resolver for every lookup.
func New(upstream string) *Resolver {
	return &Resolver{
		Upstream: upstream,
		client:   &dns.Client{Timeout: 5 * time.Second},
	}
}

// Resolve returns the first IP address for host. If host is already a
// literal IP address it is returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}

	if r.Upstream == "" {
		return r.resolveSystem(ctx, host)
	}
	return r.resolveUpstream(host)
}

func (r *Resolver) resolveSystem(ctx context.Context, host string) (net.IP, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no addresses found for %q", host)
	}
	return ips[0], nil
}

func (r *Resolver) resolveUpstream(host string) (net.IP, error) {
	fqdn := dns.Fqdn(host)

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(fqdn, qtype)

		resp, _, err := r.client.Exchange(msg, r.Upstream)
		if err != nil {
			return nil, fmt.Errorf("failed to query %q via %s: %w", host, r.Upstream, err)
		}
		if resp.Rcode != dns.RcodeSuccess {
			continue
		}

		for _, ans := range resp.Answer {
			switch rr := ans.(type) {
			case *dns.A:
				return rr.A, nil
			case *dns.AAAA:
				return rr.AAAA, nil
			}
		}
	}

	return nil, fmt.Errorf("no addresses found for %q via %s", host, r.Upstream)
}
