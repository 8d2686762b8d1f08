package fleet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentCommandsSameContainer(t *testing.T) {
	fake := newFakeEngine()
	fake.setContainers(running("a", "web"))
	fake.cmdEnter = make(chan string, 2)
	fake.cmdGate = make(chan struct{})

	_, _, _, dispatcher := newTestFleet(fake)

	results := make(chan error, 2)
	for range 2 {
		go func() {
			results <- dispatcher.Start(context.Background(), "a")
		}()
	}

	// The first command reaches the engine and parks on the gate; the
	// second must be rejected without reaching the engine.
	<-fake.cmdEnter
	var busyErr error
	select {
	case busyErr = <-results:
	case <-time.After(time.Second):
		t.Fatal("second command was queued instead of rejected")
	}
	assert.ErrorIs(t, busyErr, ErrCommandBusy)

	close(fake.cmdGate)
	assert.NoError(t, <-results)
	assert.Equal(t, int32(1), fake.startCalls.Load())
}

func TestConcurrentCommandsDistinctContainers(t *testing.T) {
	fake := newFakeEngine()
	fake.setContainers(running("a", "web"), running("b", "db"))
	fake.cmdEnter = make(chan string, 2)
	fake.cmdGate = make(chan struct{})

	_, _, _, dispatcher := newTestFleet(fake)

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, dispatcher.Start(context.Background(), id))
		}(id)
	}

	// Both commands must be inside the engine at the same time.
	entered := map[string]bool{}
	for range 2 {
		select {
		case id := <-fake.cmdEnter:
			entered[id] = true
		case <-time.After(time.Second):
			t.Fatalf("commands blocked each other, only %v reached the engine", entered)
		}
	}
	assert.True(t, entered["a"] && entered["b"])

	close(fake.cmdGate)
	wg.Wait()
	assert.Equal(t, int32(2), fake.startCalls.Load())
}

func TestCommandWhileDisconnected(t *testing.T) {
	fake := newFakeEngine()
	fake.pingErr = errors.New("daemon down")
	fake.forbidden = true

	_, _, _, dispatcher := newTestFleet(fake)

	err := dispatcher.Stop(context.Background(), "a")
	assert.ErrorIs(t, err, ErrDisconnected)
	assert.Equal(t, int32(0), fake.stopCalls.Load())
	assert.Equal(t, int32(0), fake.listCalls.Load())
}

func TestCommandTriggersSingleRefresh(t *testing.T) {
	fake := newFakeEngine()
	fake.setContainers(running("a", "web"))

	store, _, _, dispatcher := newTestFleet(fake)

	require.NoError(t, dispatcher.Restart(context.Background(), "a"))
	assert.Equal(t, int32(1), fake.restartCalls.Load())
	assert.Equal(t, int32(1), fake.listCalls.Load())
	assert.Equal(t, uint64(1), store.Current().Generation)
}

func TestCommandFailureSurfacedVerbatim(t *testing.T) {
	fake := newFakeEngine()
	fake.setContainers(running("a", "web"))
	cause := errors.New("driver failed programming external connectivity")
	fake.cmdErr = cause

	store, _, _, dispatcher := newTestFleet(fake)

	err := dispatcher.Start(context.Background(), "a")
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "a", cmdErr.ContainerID)
	assert.Equal(t, "start", cmdErr.Op)
	assert.ErrorIs(t, err, cause)

	// The refresh still happens so the UI sees the true state.
	assert.Equal(t, int32(1), fake.listCalls.Load())
	assert.Equal(t, uint64(1), store.Current().Generation)

	// The failed command released its slot; a retry goes through.
	fake.cmdErr = nil
	assert.NoError(t, dispatcher.Start(context.Background(), "a"))
}
