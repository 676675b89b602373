// Package docker implements the estimation Source on top of the Docker
// Engine API.
package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/mattn/go-shellwords"

	"github.com/container-make/sizer/pkg/estimate"
	"github.com/container-make/sizer/pkg/stats"
)

// Source talks to a local Docker daemon.
type Source struct {
	client *client.Client
}

// NewSource creates a Source and verifies the daemon is reachable.
func NewSource() (*Source, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("Docker is not available: %w", err)
	}

	return &Source{client: cli}, nil
}

// ImageExists reports whether the image is present locally.
func (s *Source) ImageExists(ctx context.Context, imageName string) bool {
	_, _, err := s.client.ImageInspectWithRaw(ctx, imageName)
	return err == nil
}

// PullImage pulls an image from the registry, rendering compact progress.
func (s *Source) PullImage(ctx context.Context, imageName string) error {
	reader, err := s.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	displayPullProgress(reader)
	return nil
}

// StartContainer creates and starts a detached container. An empty command
// leaves the image's own entrypoint in place. A create failure removes the
// half-made container before returning.
func (s *Source) StartContainer(ctx context.Context, imageName, command string) (estimate.Handle, error) {
	cfg := &container.Config{Image: imageName}
	if command != "" {
		cmd, err := shellwords.Parse(command)
		if err != nil {
			return "", fmt.Errorf("invalid command %q: %w", command, err)
		}
		cfg.Cmd = cmd
	}

	resp, err := s.client.ContainerCreate(ctx, cfg, &container.HostConfig{}, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	if err := s.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		s.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("failed to start container: %w", err)
	}

	return estimate.Handle(resp.ID), nil
}

// State returns the container's run state ("running", "exited", ...).
func (s *Source) State(ctx context.Context, h estimate.Handle) (string, error) {
	inspect, err := s.client.ContainerInspect(ctx, string(h))
	if err != nil {
		return "", fmt.Errorf("failed to inspect container: %w", err)
	}
	return inspect.State.Status, nil
}

// Stats takes one point-in-time reading of the container's cumulative
// counters.
func (s *Source) Stats(ctx context.Context, h estimate.Handle) (stats.Snapshot, error) {
	resp, err := s.client.ContainerStatsOneShot(ctx, string(h))
	if err != nil {
		return stats.Snapshot{}, fmt.Errorf("failed to get container stats: %w", err)
	}
	defer resp.Body.Close()

	var raw container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return stats.Snapshot{}, fmt.Errorf("failed to decode stats: %w", err)
	}

	cpus := int(raw.CPUStats.OnlineCPUs)
	if cpus == 0 {
		cpus = len(raw.CPUStats.CPUUsage.PercpuUsage)
	}
	if cpus == 0 {
		cpus = 1
	}

	return stats.Snapshot{
		Timestamp:      time.Now(),
		CPUTotal:       raw.CPUStats.CPUUsage.TotalUsage,
		SystemCPUTotal: raw.CPUStats.SystemUsage,
		OnlineCPUs:     cpus,
		MemoryUsage:    raw.MemoryStats.Usage,
	}, nil
}

// StopAndRemove stops then removes the container. Errors come back for
// logging; a container that is already gone is not a new problem.
func (s *Source) StopAndRemove(ctx context.Context, h estimate.Handle) error {
	timeout := 10 // seconds
	stopErr := s.client.ContainerStop(ctx, string(h), container.StopOptions{Timeout: &timeout})

	removeErr := s.client.ContainerRemove(ctx, string(h), container.RemoveOptions{Force: true})
	if removeErr != nil {
		return fmt.Errorf("failed to remove container: %w", removeErr)
	}
	if stopErr != nil {
		return fmt.Errorf("failed to stop container: %w", stopErr)
	}
	return nil
}

// Close closes the Docker client.
func (s *Source) Close() error {
	return s.client.Close()
}
