package engine

// Status is the normalized lifecycle state of a container. The engine
// reports a wider vocabulary (created, restarting, removing, dead, ...);
// everything the panel does not distinguish collapses to unknown.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusPaused  Status = "paused"
	StatusUnknown Status = "unknown"
)

type PortMapping struct {
	PrivatePort uint16 `json:"private_port"`
	PublicPort  uint16 `json:"public_port,omitempty"`
	Type        string `json:"type"`
}

type Container struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Image   string        `json:"image"`
	State   Status        `json:"state"`
	Status  string        `json:"status"`
	Created int64         `json:"created"`
	Ports   []PortMapping `json:"ports"`
}

type Stats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryUsage   uint64  `json:"memory_usage"`
	MemoryLimit   uint64  `json:"memory_limit"`
	MemoryPercent float64 `json:"memory_percent"`
	NetworkRx     uint64  `json:"network_rx"`
	NetworkTx     uint64  `json:"network_tx"`
}

type Info struct {
	Version           string `json:"version"`
	OSType            string `json:"os_type"`
	Architecture      string `json:"architecture"`
	CPUs              int    `json:"cpus"`
	MemoryTotal       int64  `json:"memory_total"`
	ContainersRunning int    `json:"containers_running"`
	ContainersPaused  int    `json:"containers_paused"`
	ContainersStopped int    `json:"containers_stopped"`
	Images            int    `json:"images"`
}

// Event is a container lifecycle notification from the engine's event
// stream.
type Event struct {
	ContainerID string `json:"container_id"`
	Name        string `json:"name"`
	Action      string `json:"action"`
}

// NormalizeStatus maps an engine-reported state string onto Status.
func NormalizeStatus(state string) Status {
	switch state {
	case "running":
		return StatusRunning
	case "paused":
		return StatusPaused
	case "exited", "stopped", "dead":
		return StatusStopped
	default:
		return StatusUnknown
	}
}
