package fleet

import (
	"errors"
	"fmt"
)

var (
	// ErrDisconnected gates every engine-bound operation while the
	// connection monitor reports the engine unreachable.
	ErrDisconnected = errors.New("engine disconnected")

	// ErrCommandBusy rejects a lifecycle command while another command
	// for the same container is still in flight.
	ErrCommandBusy = errors.New("command already in flight")
)

// CommandError wraps an engine failure for a single lifecycle command. The
// underlying cause is surfaced verbatim through Unwrap.
type CommandError struct {
	ContainerID string
	Op          string
	Err         error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ContainerID, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// FetchError reports a failed refresh step. The previously published
// snapshot always survives a FetchError.
type FetchError struct {
	Step string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Step, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
