package frame

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadConfig(t *testing.T) {
	fake := newFakeGPU(2)
	deps := Deps{Device: fake, Surface: fake, Recorder: fake, Rebuilder: fake, Window: fake}

	_, err := New(Config{FramesInFlight: 0}, deps, nil)
	require.Error(t, err)

	_, err = New(Config{FramesInFlight: 2}, Deps{Device: fake}, nil)
	require.Error(t, err)

	orch, err := New(Config{FramesInFlight: 2}, deps, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, orch.CurrentSlot())
}

// The record step for a slot must never begin before the slot's fence wait,
// and uniform updates must precede the fence reset so an aborted frame never
// leaves the fence unsignaled.
func TestFrameStepOrdering(t *testing.T) {
	fake := newFakeGPU(2)
	orch := newTestOrchestrator(t, fake, 2)

	require.NoError(t, orch.DrawFrame())

	require.Equal(t, []string{
		"wait-fence:0",
		"acquire:0",
		"update-uniforms:0",
		"reset-fence:0",
		"record:0:0",
		"submit:0:0",
		"present:0:0",
	}, fake.calls)
}

func TestInFlightBound(t *testing.T) {
	fake := newFakeGPU(2)
	orch := newTestOrchestrator(t, fake, 2)

	for i := 0; i < 20; i++ {
		require.NoError(t, orch.DrawFrame())
	}

	assert.LessOrEqual(t, fake.maxInFlight, 2)
}

// A stale acquire must leave the slot's fence signaled so the next wait on
// the same slot does not block on work that was never submitted.
func TestStaleAcquireLeavesFenceSignaled(t *testing.T) {
	fake := newFakeGPU(2)
	fake.acquireResults = []Result{Stale}
	orch := newTestOrchestrator(t, fake, 2)

	require.NoError(t, orch.DrawFrame())

	assert.True(t, fake.fenceSignaled[0], "fence must remain signaled after an abandoned frame")
	assert.Equal(t, 0, fake.countCalls("reset-fence"))
	assert.Equal(t, 0, fake.countCalls("submit"))

	// The following frame reuses the slot and completes normally.
	require.NoError(t, orch.DrawFrame())
	assert.Equal(t, 1, fake.countCalls("submit"))
}

func TestRecreationOrdering(t *testing.T) {
	fake := newFakeGPU(2)
	fake.acquireResults = []Result{Stale}
	orch := newTestOrchestrator(t, fake, 2)

	require.NoError(t, orch.DrawFrame())

	// Everything after the acquire must be exactly the recreation
	// sequence, with no other GPU calls interleaved.
	require.Equal(t, []string{
		"wait-fence:0",
		"acquire:0",
		"wait-idle",
		"destroy-framebuffers",
		"destroy-image-views",
		"destroy-swapchain",
		"create-swapchain:800x600",
		"create-image-views",
		"create-framebuffers",
	}, fake.calls)
}

// While the drawable area is zero the orchestrator blocks on the event queue
// and must not issue any teardown or creation calls.
func TestMinimizedWindowStalls(t *testing.T) {
	fake := newFakeGPU(2)
	fake.acquireResults = []Result{Stale}
	fake.width, fake.height = 0, 0
	fake.pendingSizes = [][2]int{{0, 0}, {1024, 768}}
	orch := newTestOrchestrator(t, fake, 2)

	require.NoError(t, orch.DrawFrame())

	assert.Equal(t, 2, fake.waitEventHits)

	// No recreation call may precede the last wait-events.
	lastWait := -1
	firstRebuild := len(fake.calls)
	for i, c := range fake.calls {
		if c == "wait-events" {
			lastWait = i
		}
		if c == "wait-idle" && i < firstRebuild {
			firstRebuild = i
		}
	}
	require.Greater(t, firstRebuild, lastWait)
	assert.Contains(t, fake.calls, "create-swapchain:1024x768")
}

func TestFrameCounterCycles(t *testing.T) {
	fake := newFakeGPU(3)
	orch := newTestOrchestrator(t, fake, 3)

	require.Equal(t, 0, orch.CurrentSlot())
	for i := 0; i < 3; i++ {
		require.NoError(t, orch.DrawFrame())
	}
	assert.Equal(t, 0, orch.CurrentSlot())
}

func TestTenCleanFrames(t *testing.T) {
	fake := newFakeGPU(2)
	orch := newTestOrchestrator(t, fake, 2)

	var slots []int
	for i := 0; i < 10; i++ {
		slots = append(slots, orch.CurrentSlot())
		require.NoError(t, orch.DrawFrame())
	}

	assert.Equal(t, 10, fake.countCalls("submit"))
	assert.Equal(t, 10, fake.countCalls("present"))
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1, 0, 1, 0, 1}, slots)
	assert.Equal(t, 0, fake.countCalls("wait-idle"))
}

// A stale acquire mid-run rebuilds the swapchain and resumes counting from
// the slot the abandoned frame would have used.
func TestResizeScenario(t *testing.T) {
	fake := newFakeGPU(2)
	fake.acquireResults = []Result{Success, Success, Stale}
	orch := newTestOrchestrator(t, fake, 2)

	var slots []int
	for i := 0; i < 10; i++ {
		slots = append(slots, orch.CurrentSlot())
		require.NoError(t, orch.DrawFrame())
	}

	assert.Equal(t, 9, fake.countCalls("submit"))
	assert.Equal(t, 9, fake.countCalls("present"))
	assert.Equal(t, 1, fake.countCalls("wait-idle"))
	assert.Equal(t, 1, fake.countCalls("create-swapchain"))

	// Frame 3 used slot 0 and was abandoned; frame 4 uses slot 0 again.
	assert.Equal(t, []int{0, 1, 0, 0, 1, 0, 1, 0, 1, 0}, slots)
}

// Suboptimal does not abandon the frame: the image is presented first, then
// the swapchain is rebuilt.
func TestSuboptimalAcquireRebuildsAfterPresent(t *testing.T) {
	fake := newFakeGPU(2)
	fake.acquireResults = []Result{Suboptimal}
	orch := newTestOrchestrator(t, fake, 2)

	require.NoError(t, orch.DrawFrame())

	assert.Equal(t, 1, fake.countCalls("submit"))
	assert.Equal(t, 1, fake.countCalls("present"))
	assert.Equal(t, 1, fake.countCalls("create-swapchain"))

	presentIdx := -1
	rebuildIdx := -1
	for i, c := range fake.calls {
		switch c {
		case "present:0:0":
			presentIdx = i
		case "wait-idle":
			rebuildIdx = i
		}
	}
	require.Greater(t, rebuildIdx, presentIdx, "rebuild must not start before present returns")

	// The frame completed, so the counter advances.
	assert.Equal(t, 1, orch.CurrentSlot())
}

func TestStalePresentRebuilds(t *testing.T) {
	fake := newFakeGPU(2)
	fake.presentResults = []Result{Stale}
	orch := newTestOrchestrator(t, fake, 2)

	require.NoError(t, orch.DrawFrame())

	assert.Equal(t, 1, fake.countCalls("create-swapchain"))
	assert.Equal(t, 1, orch.CurrentSlot())
}

func TestNotifyResizeForcesRebuild(t *testing.T) {
	fake := newFakeGPU(2)
	orch := newTestOrchestrator(t, fake, 2)

	orch.NotifyResize()
	require.NoError(t, orch.DrawFrame())
	assert.Equal(t, 1, fake.countCalls("create-swapchain"))

	// The flag clears once the rebuild completes.
	require.NoError(t, orch.DrawFrame())
	assert.Equal(t, 1, fake.countCalls("create-swapchain"))
}

func TestFenceTimeoutPropagates(t *testing.T) {
	fake := newFakeGPU(2)
	fake.waitErr = ErrFenceTimeout
	orch, err := New(Config{FramesInFlight: 2, FenceTimeout: 50 * time.Millisecond}, Deps{
		Device:    fake,
		Surface:   fake,
		Recorder:  fake,
		Rebuilder: fake,
		Window:    fake,
	}, nil)
	require.NoError(t, err)

	err = orch.DrawFrame()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFenceTimeout))
	assert.Equal(t, 0, fake.countCalls("acquire"))
}
