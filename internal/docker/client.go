package docker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docker/docker/client"
)

// Client wraps the Docker API client used for one-shot backend resolution.
// There is no reconnect or watch loop: it is created, used to resolve a
// single container's address at startup, and closed.
type Client struct {
	api    DockerAPI
	logger *slog.Logger
}

// NewClient creates a new Docker client using environment configuration
// (DOCKER_HOST, DOCKER_CERT_PATH, etc).
func NewClient(logger *slog.Logger) (*Client, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &Client{
		api:    cli,
		logger: logger,
	}, nil
}

// NewClientWithAPI creates a Docker client with a custom DockerAPI
// implementation. This is primarily useful for testing.
func NewClientWithAPI(api DockerAPI, logger *slog.Logger) *Client {
	return &Client{
		api:    api,
		logger: logger,
	}
}

// Ping verifies the Docker daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach Docker daemon: %w", err)
	}
	return nil
}

// Close closes the Docker client connection.
func (c *Client) Close() error {
	if c.api != nil {
		return c.api.Close()
	}
	return nil
}

// API returns the underlying DockerAPI for advanced operations.
func (c *Client) API() DockerAPI {
	return c.api
}
