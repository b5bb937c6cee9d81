package docker

import (
	"context"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
)

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name      string
		settings  *container.NetworkSettings
		wantIP    string
		wantError bool
	}{
		{
			name: "single network",
			settings: &container.NetworkSettings{
				Networks: map[string]*network.EndpointSettings{
					"bridge": {IPAddress: "172.17.0.2"},
				},
			},
			wantIP: "172.17.0.2",
		},
		{
			name: "no networks available",
			settings: &container.NetworkSettings{
				Networks: map[string]*network.EndpointSettings{},
			},
			wantError: true,
		},
		{
			name:      "nil settings",
			settings:  nil,
			wantError: true,
		},
		{
			name: "no IP anywhere",
			settings: &container.NetworkSettings{
				Networks: map[string]*network.EndpointSettings{
					"bridge": {IPAddress: ""},
				},
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip, err := extractIP(tt.settings)

			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if ip != tt.wantIP {
				t.Errorf("got IP %q, want %q", ip, tt.wantIP)
			}
		})
	}
}

func TestNewContainerResolver(t *testing.T) {
	client := &Client{}
	resolver := NewContainerResolver(client)

	if resolver.client != client {
		t.Error("client not set correctly")
	}
}

func TestContainerResolver_ResolveIP(t *testing.T) {
	t.Run("resolves IP from inspect response", func(t *testing.T) {
		mockAPI := newMockBuilder().
			withContainerInspectResult(makeContainerInspectResponse("abc123", "web", "10.0.0.5", "bridge")).
			build()

		client := NewClientWithAPI(mockAPI, testLogger())
		resolver := NewContainerResolver(client)

		ip, err := resolver.ResolveIP(context.Background(), "abc123")
		if err != nil {
			t.Fatalf("ResolveIP failed: %v", err)
		}
		if ip != "10.0.0.5" {
			t.Errorf("ResolveIP() = %q, want %q", ip, "10.0.0.5")
		}
	})

	t.Run("returns error on inspect failure", func(t *testing.T) {
		mockAPI := newMockBuilder().withContainerInspectError(errMockNotFound).build()
		client := NewClientWithAPI(mockAPI, testLogger())
		resolver := NewContainerResolver(client)

		_, err := resolver.ResolveIP(context.Background(), "missing")
		if err == nil {
			t.Error("expected ResolveIP to fail")
		}
	})

	t.Run("returns error when client has no API", func(t *testing.T) {
		resolver := NewContainerResolver(&Client{})

		_, err := resolver.ResolveIP(context.Background(), "abc123")
		if err == nil {
			t.Error("expected ResolveIP to fail with nil API")
		}
	})
}
