package ui

import (
	"math"
	"time"
)

// Frame pacing for the demo loops.
const (
	// FrameBudget is the time allotted to one frame at 25 fps.
	FrameBudget = 40 * time.Millisecond
	// MinWait keeps the GUI responsive however slow processing is.
	MinWait = 2
)

// FrameDelay returns the key-poll delay in milliseconds for a display rate.
// Rates below 1 are treated as 1.
func FrameDelay(fps int) int {
	return 1000 / max(1, fps)
}

// AdaptiveDelay returns the key-poll delay in milliseconds that fills the
// remainder of FrameBudget after processing took elapsed, but never less
// than MinWait.
func AdaptiveDelay(elapsed time.Duration) int {
	used := int(math.Ceil(float64(elapsed) / float64(time.Millisecond)))
	return max(MinWait, int(FrameBudget/time.Millisecond)-used)
}
