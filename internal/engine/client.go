package engine

import "context"

// Client is the container-engine boundary the rest of the agent programs
// against. The Docker SDK implementation is the production one; the demo
// implementation serves canned data for offline use. Ping is the only
// method that may be called while disconnected.
type Client interface {
	Ping(ctx context.Context) error
	ListContainers(ctx context.Context) ([]Container, error)
	ContainerStats(ctx context.Context, id string) (Stats, error)
	Info(ctx context.Context) (Info, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	RestartContainer(ctx context.Context, id string) error
	ContainerLogs(ctx context.Context, id string, tail int) ([]string, error)

	// WatchEvents streams container lifecycle events until ctx is
	// cancelled. The error channel reports a broken stream; callers are
	// expected to re-subscribe.
	WatchEvents(ctx context.Context) (<-chan Event, <-chan error)
}
