package websocket

import (
	"time"

	"github.com/signalforge/forge-agent/internal/fleet"
)

type MessageType string

const (
	MessageTypeSnapshot MessageType = "fleet_snapshot"
	MessageTypeSummary  MessageType = "fleet_summary"
)

type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

type SnapshotEvent struct {
	BaseMessage
	Snapshot fleet.Snapshot `json:"snapshot"`
}

type SummaryEvent struct {
	BaseMessage
	Summary fleet.Summary `json:"summary"`
}
