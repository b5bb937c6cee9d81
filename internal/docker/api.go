// Package docker resolves a "docker:container:port" backend spec to a
// container's IP address via a single Docker API call made once at startup.
package docker

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
)

// DockerAPI defines the subset of Docker client operations this resolver
// needs. This interface enables testing without a real Docker daemon.
type DockerAPI interface {
	// Ping checks if the Docker daemon is responsive.
	Ping(ctx context.Context) (types.Ping, error)

	// ContainerInspect returns detailed information about a container.
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)

	// Close closes the connection to the Docker daemon.
	Close() error
}
