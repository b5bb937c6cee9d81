package engine

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/hajba/sslproxy/internal/docker"
	"github.com/hajba/sslproxy/internal/resolve"
)

// BackendSpec is a parsed -c/--backend value: exactly one of TCP, Unix, or
// Docker is populated.
type BackendSpec struct {
	Kind BackendKind

	// TCP / Docker
	Host string
	Port string

	// Unix
	Path string

	// Docker
	Container string
}

// BackendKind identifies which transport the backend connector dials.
type BackendKind int

const (
	BackendTCP BackendKind = iota
	BackendUnix
	BackendDocker
)

// ParseBackendSpec parses "-c" values of the forms "host:port",
// "unix:path", or "docker:container:port".
func ParseBackendSpec(s string) (*BackendSpec, error) {
	switch {
	case strings.HasPrefix(s, "unix:"):
		path := strings.TrimPrefix(s, "unix:")
		if path == "" {
			return nil, fmt.Errorf("unix backend requires a socket path")
		}
		return &BackendSpec{Kind: BackendUnix, Path: path}, nil

	case strings.HasPrefix(s, "docker:"):
		rest := strings.TrimPrefix(s, "docker:")
		idx := strings.LastIndex(rest, ":")
		if idx <= 0 || idx == len(rest)-1 {
			return nil, fmt.Errorf("docker backend must be docker:container:port, got %q", s)
		}
		return &BackendSpec{
			Kind:      BackendDocker,
			Container: rest[:idx],
			Port:      rest[idx+1:],
		}, nil

	default:
		host, port, err := net.SplitHostPort(s)
		if err != nil {
			return nil, fmt.Errorf("invalid backend address %q: %w", s, err)
		}
		return &BackendSpec{Kind: BackendTCP, Host: host, Port: port}, nil
	}
}

// BackendConnector dials the backend described by a BackendSpec. Docker
// container resolution happens once, at Resolve time, never per-connection
// — consistent with "no dynamic reconfiguration."
type BackendConnector struct {
	spec     *BackendSpec
	resolver *resolve.Resolver
	docker   *docker.ContainerResolver

	resolvedAddr string // "host:port" once Resolve has run
}

// NewBackendConnector creates a connector for spec. dockerResolver may be
// nil unless spec.Kind is BackendDocker.
func NewBackendConnector(spec *BackendSpec, resolver *resolve.Resolver, dockerResolver *docker.ContainerResolver) *BackendConnector {
	return &BackendConnector{spec: spec, resolver: resolver, docker: dockerResolver}
}

// Resolve performs any startup-only address resolution (DNS lookup or
// Docker container inspection) and caches the result for Dial.
func (c *BackendConnector) Resolve(ctx context.Context) error {
	switch c.spec.Kind {
	case BackendUnix:
		return nil

	case BackendDocker:
		if c.docker == nil {
			return fmt.Errorf("docker backend requested but no docker resolver configured")
		}
		ip, err := c.docker.ResolveIP(ctx, c.spec.Container)
		if err != nil {
			return fmt.Errorf("failed to resolve docker backend %q: %w", c.spec.Container, err)
		}
		c.resolvedAddr = net.JoinHostPort(ip, c.spec.Port)
		return nil

	default: // BackendTCP
		ip, err := c.resolver.Resolve(ctx, c.spec.Host)
		if err != nil {
			return fmt.Errorf("failed to resolve backend %q: %w", c.spec.Host, err)
		}
		c.resolvedAddr = net.JoinHostPort(ip.String(), c.spec.Port)
		return nil
	}
}

// Dial connects to the backend using the address resolved by Resolve.
func (c *BackendConnector) Dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer

	switch c.spec.Kind {
	case BackendUnix:
		return d.DialContext(ctx, "unix", c.spec.Path)
	default:
		if c.resolvedAddr == "" {
			return nil, fmt.Errorf("backend connector used before Resolve")
		}
		return d.DialContext(ctx, "tcp", c.resolvedAddr)
	}
}
