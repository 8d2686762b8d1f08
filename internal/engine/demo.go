package engine

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DemoClient serves a canned fleet so the panel can be exercised without a
// running engine. Lifecycle commands mutate the canned state, which keeps
// the refresh loop honest.
type DemoClient struct {
	mu         sync.Mutex
	containers []Container
}

func NewDemoClient() *DemoClient {
	now := time.Now().Unix()
	return &DemoClient{
		containers: []Container{
			{
				ID:      "demo-nginx",
				Name:    "signalforge-nginx",
				Image:   "nginx:latest",
				State:   StatusRunning,
				Status:  "Up 2 hours",
				Created: now - 7200,
				Ports: []PortMapping{
					{PrivatePort: 80, PublicPort: 80, Type: "tcp"},
					{PrivatePort: 443, PublicPort: 443, Type: "tcp"},
				},
			},
			{
				ID:      "demo-php",
				Name:    "signalforge-php",
				Image:   "php:8.4-fpm",
				State:   StatusRunning,
				Status:  "Up 2 hours",
				Created: now - 7200,
				Ports:   []PortMapping{{PrivatePort: 9000, Type: "tcp"}},
			},
			{
				ID:      "demo-mysql",
				Name:    "signalforge-mysql",
				Image:   "mysql:8",
				State:   StatusRunning,
				Status:  "Up 2 hours",
				Created: now - 7200,
				Ports:   []PortMapping{{PrivatePort: 3306, PublicPort: 3306, Type: "tcp"}},
			},
			{
				ID:      "demo-redis",
				Name:    "signalforge-redis",
				Image:   "redis:latest",
				State:   StatusStopped,
				Status:  "Exited (0) 30 minutes ago",
				Created: now - 7200,
				Ports:   []PortMapping{{PrivatePort: 6379, Type: "tcp"}},
			},
		},
	}
}

func (c *DemoClient) Ping(ctx context.Context) error {
	return nil
}

func (c *DemoClient) ListContainers(ctx context.Context) ([]Container, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Container, len(c.containers))
	copy(out, c.containers)
	return out, nil
}

func (c *DemoClient) ContainerStats(ctx context.Context, id string) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ct := range c.containers {
		if ct.ID == id && ct.State == StatusRunning {
			return Stats{
				CPUPercent:    3.5,
				MemoryUsage:   96 * 1024 * 1024,
				MemoryLimit:   8 * 1024 * 1024 * 1024,
				MemoryPercent: 1.2,
				NetworkRx:     4 * 1024 * 1024,
				NetworkTx:     1 * 1024 * 1024,
			}, nil
		}
	}
	return Stats{}, fmt.Errorf("no stats available for %s", id)
}

func (c *DemoClient) Info(ctx context.Context) (Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := Info{
		Version:      "demo",
		OSType:       "linux",
		Architecture: "x86_64",
		CPUs:         8,
		MemoryTotal:  16 * 1024 * 1024 * 1024,
		Images:       12,
	}
	for _, ct := range c.containers {
		switch ct.State {
		case StatusRunning:
			info.ContainersRunning++
		case StatusPaused:
			info.ContainersPaused++
		default:
			info.ContainersStopped++
		}
	}
	return info, nil
}

func (c *DemoClient) StartContainer(ctx context.Context, id string) error {
	return c.setState(id, StatusRunning, "Up 1 second")
}

func (c *DemoClient) StopContainer(ctx context.Context, id string) error {
	return c.setState(id, StatusStopped, "Exited (0) 1 second ago")
}

func (c *DemoClient) RestartContainer(ctx context.Context, id string) error {
	return c.setState(id, StatusRunning, "Up 1 second")
}

func (c *DemoClient) setState(id string, state Status, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.containers {
		if c.containers[i].ID == id {
			c.containers[i].State = state
			c.containers[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("no such container: %s", id)
}

func (c *DemoClient) ContainerLogs(ctx context.Context, id string, tail int) ([]string, error) {
	return []string{
		fmt.Sprintf("%s demo log output for %s", time.Now().Format(time.RFC3339), id),
	}, nil
}

func (c *DemoClient) WatchEvents(ctx context.Context) (<-chan Event, <-chan error) {
	out := make(chan Event)
	errs := make(chan error, 1)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, errs
}
