package frame

import "github.com/cockroachdb/errors"

// Result reports the surface status of an acquire or present call. Stale and
// Suboptimal are expected control flow and are never delivered as errors.
type Result int

const (
	// Success means the surface matched the window and the call completed.
	Success Result = iota
	// Suboptimal means the image is still presentable but the swapchain no
	// longer matches the surface exactly; the frame proceeds and the
	// swapchain is rebuilt after presentation.
	Suboptimal
	// Stale means the swapchain is out of date and the image is unusable;
	// the frame is abandoned and the swapchain rebuilt immediately.
	Stale
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Suboptimal:
		return "suboptimal"
	case Stale:
		return "stale"
	}
	return "unknown"
}

// ErrFenceTimeout is returned (wrapped) by DrawFrame when a bounded fence
// wait expires before the GPU finishes with the frame slot. It only occurs
// when Config.FenceTimeout is nonzero.
var ErrFenceTimeout = errors.New("timed out waiting for frame fence")
