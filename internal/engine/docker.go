package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// DockerClient implements Client against the local Docker daemon.
type DockerClient struct {
	cli         *client.Client
	stopTimeout int
}

func NewDockerClient(stopTimeout int) (*DockerClient, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &DockerClient{
		cli:         cli,
		stopTimeout: stopTimeout,
	}, nil
}

func (c *DockerClient) Close() error {
	return c.cli.Close()
}

func (c *DockerClient) Ping(ctx context.Context) error {
	if _, err := c.cli.Ping(ctx); err != nil {
		return fmt.Errorf("engine unreachable: %w", err)
	}
	return nil
}

func (c *DockerClient) ListContainers(ctx context.Context) ([]Container, error) {
	summaries, err := c.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	containers := make([]Container, 0, len(summaries))
	for _, s := range summaries {
		name := "unknown"
		if len(s.Names) > 0 {
			name = strings.TrimPrefix(s.Names[0], "/")
		}

		ports := make([]PortMapping, 0, len(s.Ports))
		for _, p := range s.Ports {
			ports = append(ports, PortMapping{
				PrivatePort: p.PrivatePort,
				PublicPort:  p.PublicPort,
				Type:        p.Type,
			})
		}

		containers = append(containers, Container{
			ID:      s.ID,
			Name:    name,
			Image:   s.Image,
			State:   NormalizeStatus(s.State),
			Status:  s.Status,
			Created: s.Created,
			Ports:   ports,
		})
	}

	return containers, nil
}

func (c *DockerClient) ContainerStats(ctx context.Context, id string) (Stats, error) {
	resp, err := c.cli.ContainerStats(ctx, id, false)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get stats for %s: %w", id, err)
	}
	defer resp.Body.Close()

	var raw container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Stats{}, fmt.Errorf("failed to decode stats for %s: %w", id, err)
	}

	return normalizeStats(&raw), nil
}

func normalizeStats(raw *container.StatsResponse) Stats {
	memoryUsage := raw.MemoryStats.Usage
	memoryLimit := raw.MemoryStats.Limit

	memoryPercent := 0.0
	if memoryLimit > 0 {
		memoryPercent = float64(memoryUsage) / float64(memoryLimit) * 100.0
	}

	var rx, tx uint64
	for _, net := range raw.Networks {
		rx += net.RxBytes
		tx += net.TxBytes
	}

	return Stats{
		CPUPercent:    calculateCPUPercent(raw),
		MemoryUsage:   memoryUsage,
		MemoryLimit:   memoryLimit,
		MemoryPercent: memoryPercent,
		NetworkRx:     rx,
		NetworkTx:     tx,
	}
}

// calculateCPUPercent derives a utilization percentage from the delta
// between the sample and its precpu snapshot. The result may exceed 100 on
// multi-core hosts.
func calculateCPUPercent(raw *container.StatsResponse) float64 {
	cpuDelta := float64(raw.CPUStats.CPUUsage.TotalUsage) - float64(raw.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(raw.CPUStats.SystemUsage) - float64(raw.PreCPUStats.SystemUsage)

	cpus := float64(raw.CPUStats.OnlineCPUs)
	if cpus == 0 {
		cpus = 1
	}

	if systemDelta > 0 && cpuDelta > 0 {
		return (cpuDelta / systemDelta) * cpus * 100.0
	}
	return 0.0
}

func (c *DockerClient) Info(ctx context.Context) (Info, error) {
	info, err := c.cli.Info(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("failed to get engine info: %w", err)
	}

	return Info{
		Version:           info.ServerVersion,
		OSType:            info.OSType,
		Architecture:      info.Architecture,
		CPUs:              info.NCPU,
		MemoryTotal:       info.MemTotal,
		ContainersRunning: info.ContainersRunning,
		ContainersPaused:  info.ContainersPaused,
		ContainersStopped: info.ContainersStopped,
		Images:            info.Images,
	}, nil
}

func (c *DockerClient) StartContainer(ctx context.Context, id string) error {
	if err := c.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	return nil
}

func (c *DockerClient) StopContainer(ctx context.Context, id string) error {
	timeout := c.stopTimeout
	if err := c.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}

func (c *DockerClient) RestartContainer(ctx context.Context, id string) error {
	timeout := c.stopTimeout
	if err := c.cli.ContainerRestart(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to restart container: %w", err)
	}
	return nil
}

func (c *DockerClient) ContainerLogs(ctx context.Context, id string, tail int) ([]string, error) {
	options := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	}
	if tail > 0 {
		options.Tail = strconv.Itoa(tail)
	}

	reader, err := c.cli.ContainerLogs(ctx, id, options)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs for %s: %w", id, err)
	}
	defer reader.Close()

	// Docker multiplexes stdout/stderr on one stream; demux before
	// splitting into lines.
	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
		return nil, fmt.Errorf("failed to read logs for %s: %w", id, err)
	}

	var lines []string
	for _, buf := range []*bytes.Buffer{&stdout, &stderr} {
		scanner := bufio.NewScanner(buf)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				lines = append(lines, line)
			}
		}
	}

	return lines, nil
}

func (c *DockerClient) WatchEvents(ctx context.Context) (<-chan Event, <-chan error) {
	out := make(chan Event)
	errs := make(chan error, 1)

	args := filters.NewArgs(filters.Arg("type", "container"))
	messages, streamErrs := c.cli.Events(ctx, events.ListOptions{Filters: args})

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-streamErrs:
				if err != nil {
					errs <- err
				}
				return
			case msg := <-messages:
				event := Event{
					ContainerID: msg.Actor.ID,
					Name:        msg.Actor.Attributes["name"],
					Action:      string(msg.Action),
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, errs
}
