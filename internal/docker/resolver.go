package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
)

// ContainerResolver resolves a container's address from Docker, once.
type ContainerResolver struct {
	client *Client
}

// NewContainerResolver creates a new container resolver.
func NewContainerResolver(client *Client) *ContainerResolver {
	return &ContainerResolver{client: client}
}

// ResolveIP returns the IP address of a container, for use as a proxy
// backend. It picks the first network with an assigned address; the
// "docker:container:port" backend spec has no way to name a preferred
// network, so ambiguity between multiple networks is resolved arbitrarily.
func (r *ContainerResolver) ResolveIP(ctx context.Context, containerID string) (string, error) {
	if r.client.API() == nil {
		return "", fmt.Errorf("docker client not connected")
	}

	info, err := r.client.API().ContainerInspect(ctx, containerID)
	if err != nil {
		return "", fmt.Errorf("failed to inspect container %q: %w", containerID, err)
	}

	return extractIP(info.NetworkSettings)
}

func extractIP(settings *container.NetworkSettings) (string, error) {
	if settings == nil {
		return "", fmt.Errorf("no network settings")
	}

	for _, network := range settings.Networks {
		if network.IPAddress != "" {
			return network.IPAddress, nil
		}
	}

	return "", fmt.Errorf("no IP address found for container")
}
