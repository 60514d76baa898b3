package frame

import (
	"fmt"
	"time"
)

// fakeGPU implements every orchestrator dependency and records the ordered
// sequence of GPU-facing calls so tests can assert on the frame protocol.
// Acquire and present outcomes are scripted per call; unsignaled fences are
// "completed" when the host waits on them, the way a live GPU would have
// finished the work by then.
type fakeGPU struct {
	calls []string

	fenceSignaled []bool
	maxInFlight   int

	acquireResults []Result // consumed per Acquire call; empty means Success
	presentResults []Result // consumed per Present call; empty means Success
	acquireCalls   int
	presentCalls   int
	nextImage      int

	waitErr error // returned by WaitForFence when set

	width, height int
	// pendingSizes are applied one per WaitEvents call, simulating the
	// window being restored while the host blocks on the event queue.
	pendingSizes  [][2]int
	waitEventHits int

	formatChanged bool
	slots         []int // slot passed to each Submit
}

func newFakeGPU(framesInFlight int) *fakeGPU {
	f := &fakeGPU{
		fenceSignaled: make([]bool, framesInFlight),
		width:         800,
		height:        600,
	}
	// Fences are created pre-signaled so the first wait is a no-op.
	for i := range f.fenceSignaled {
		f.fenceSignaled[i] = true
	}
	return f
}

func (f *fakeGPU) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeGPU) WaitForFence(slot int, timeout time.Duration) error {
	f.record("wait-fence:%d", slot)
	if f.waitErr != nil {
		return f.waitErr
	}
	// The GPU has finished with the slot by the time the host unblocks.
	f.fenceSignaled[slot] = true
	return nil
}

func (f *fakeGPU) ResetFence(slot int) error {
	f.record("reset-fence:%d", slot)
	f.fenceSignaled[slot] = false
	if n := f.unsignaledFences(); n > f.maxInFlight {
		f.maxInFlight = n
	}
	return nil
}

func (f *fakeGPU) WaitIdle() error {
	f.record("wait-idle")
	for i := range f.fenceSignaled {
		f.fenceSignaled[i] = true
	}
	return nil
}

func (f *fakeGPU) unsignaledFences() int {
	n := 0
	for _, signaled := range f.fenceSignaled {
		if !signaled {
			n++
		}
	}
	return n
}

func (f *fakeGPU) Acquire(slot int) (int, Result, error) {
	f.record("acquire:%d", slot)
	res := Success
	if f.acquireCalls < len(f.acquireResults) {
		res = f.acquireResults[f.acquireCalls]
	}
	f.acquireCalls++
	if res == Stale {
		return 0, Stale, nil
	}
	image := f.nextImage
	f.nextImage = (f.nextImage + 1) % 3 // three swapchain images, typical FIFO
	return image, res, nil
}

func (f *fakeGPU) Present(slot int, imageIndex int) (Result, error) {
	f.record("present:%d:%d", slot, imageIndex)
	res := Success
	if f.presentCalls < len(f.presentResults) {
		res = f.presentResults[f.presentCalls]
	}
	f.presentCalls++
	return res, nil
}

func (f *fakeGPU) UpdateUniforms(slot int, elapsedSeconds float64) error {
	f.record("update-uniforms:%d", slot)
	return nil
}

func (f *fakeGPU) Record(slot int, imageIndex int) error {
	f.record("record:%d:%d", slot, imageIndex)
	return nil
}

func (f *fakeGPU) Submit(slot int, imageIndex int) error {
	f.record("submit:%d:%d", slot, imageIndex)
	f.slots = append(f.slots, slot)
	return nil
}

func (f *fakeGPU) DestroyFramebuffers() { f.record("destroy-framebuffers") }
func (f *fakeGPU) DestroyImageViews()   { f.record("destroy-image-views") }
func (f *fakeGPU) DestroySwapchain()    { f.record("destroy-swapchain") }

func (f *fakeGPU) CreateSwapchain(width, height int) (bool, error) {
	f.record("create-swapchain:%dx%d", width, height)
	return f.formatChanged, nil
}

func (f *fakeGPU) CreateImageViews() error {
	f.record("create-image-views")
	return nil
}

func (f *fakeGPU) CreateFramebuffers() error {
	f.record("create-framebuffers")
	return nil
}

func (f *fakeGPU) DrawableSize() (int, int) {
	return f.width, f.height
}

func (f *fakeGPU) WaitEvents() {
	f.record("wait-events")
	f.waitEventHits++
	if len(f.pendingSizes) > 0 {
		f.width, f.height = f.pendingSizes[0][0], f.pendingSizes[0][1]
		f.pendingSizes = f.pendingSizes[1:]
	}
}

func (f *fakeGPU) countCalls(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func newTestOrchestrator(t interface{ Fatalf(string, ...any) }, fake *fakeGPU, framesInFlight int) *Orchestrator {
	orch, err := New(Config{FramesInFlight: framesInFlight}, Deps{
		Device:    fake,
		Surface:   fake,
		Recorder:  fake,
		Rebuilder: fake,
		Window:    fake,
		Clock:     func() float64 { return 0 },
	}, nil)
	if err != nil {
		t.Fatalf("building orchestrator: %v", err)
	}
	return orch
}
