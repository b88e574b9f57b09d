// Package diff highlights motion by differencing consecutive video frames
// and amplifying the result.
package diff

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// Trackbar limits and defaults for the differencing parameters.
const (
	DefaultContrast = 1
	MaxContrast     = 30
	DefaultFPS      = 25
	MaxFPS          = 25
	DefaultThresh   = 0
	MaxThresh       = 255
)

// ErrEmptyFrame is returned when Process is given no image data.
var ErrEmptyFrame = errors.New("frame is empty")

// Params are the user-adjustable settings applied to each difference image.
type Params struct {
	// Contrast multiplies the difference image; 8-bit results saturate at 255.
	Contrast int
	// Threshold binarises the difference image in greyscale mode when > 0.
	Threshold int
}

// Differ keeps the previous frame and computes the absolute difference
// between it and each new frame.
type Differ struct {
	prev      gocv.Mat
	greyscale bool
	mu        sync.Mutex
}

// NewDiffer creates a Differ in colour mode with no baseline frame.
func NewDiffer() *Differ {
	return &Differ{
		prev: gocv.NewMat(),
	}
}

// Process computes the contrast-enhanced difference between frame and the
// previous committed frame. The caller owns the returned Mat.
//
// In greyscale mode frame is converted in place, so the caller displays and
// commits the single-channel image. The first frame becomes the baseline and
// yields an all-zero difference; so does a frame whose size or type differs
// from the baseline.
func (d *Differ) Process(frame *gocv.Mat, p Params) (gocv.Mat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return gocv.NewMat(), ErrEmptyFrame
	}

	if d.greyscale && frame.Channels() > 1 {
		grey := gocv.NewMat()
		gocv.CvtColor(*frame, &grey, gocv.ColorBGRToGray)
		frame.Close()
		*frame = grey
	}

	d.matchPrevious(*frame)

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(d.prev, *frame, &diff)

	brightened := gocv.NewMat()
	gocv.ConvertScaleAbs(diff, &brightened, float64(p.Contrast), 0)

	if !d.greyscale || p.Threshold <= 0 {
		return brightened, nil
	}

	thresholded := gocv.NewMat()
	gocv.Threshold(brightened, &thresholded, float32(p.Threshold), 255, gocv.ThresholdBinary)
	brightened.Close()

	return thresholded, nil
}

// matchPrevious makes the baseline comparable with frame. Must hold d.mu.
func (d *Differ) matchPrevious(frame gocv.Mat) {
	if d.prev.Empty() {
		frame.CopyTo(&d.prev)
		return
	}

	switch {
	case d.prev.Channels() == 3 && frame.Channels() == 1:
		d.convertPrevious(gocv.ColorBGRToGray)
	case d.prev.Channels() == 1 && frame.Channels() == 3:
		d.convertPrevious(gocv.ColorGrayToBGR)
	}

	if d.prev.Rows() != frame.Rows() || d.prev.Cols() != frame.Cols() || d.prev.Type() != frame.Type() {
		frame.CopyTo(&d.prev)
	}
}

// convertPrevious changes the colour space of the baseline. Must hold d.mu.
func (d *Differ) convertPrevious(code gocv.ColorConversionCode) {
	converted := gocv.NewMat()
	gocv.CvtColor(d.prev, &converted, code)
	d.prev.Close()
	d.prev = converted
}

// Commit stores a deep copy of frame as the baseline for the next Process.
func (d *Differ) Commit(frame gocv.Mat) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame.Empty() {
		return
	}
	frame.CopyTo(&d.prev)
}

// ToggleGreyscale switches between colour and greyscale differencing and
// returns the new mode. Leaving greyscale mode expands a single-channel
// baseline to three channels so it can still be differenced.
func (d *Differ) ToggleGreyscale() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.greyscale = !d.greyscale
	if !d.greyscale && !d.prev.Empty() && d.prev.Channels() == 1 {
		d.convertPrevious(gocv.ColorGrayToBGR)
	}

	return d.greyscale
}

// Greyscale reports whether greyscale mode is active.
func (d *Differ) Greyscale() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.greyscale
}

// Reset drops the baseline so the next frame starts a new sequence.
func (d *Differ) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.prev.Close()
	d.prev = gocv.NewMat()
}

// Close releases resources used by the differ.
func (d *Differ) Close() {
	d.Reset()
}

// ChangedPercent returns the percentage of pixels in a difference image that
// are non-zero.
func ChangedPercent(img gocv.Mat) float64 {
	if img.Empty() {
		return 0
	}

	grey := img
	if img.Channels() > 1 {
		grey = gocv.NewMat()
		defer grey.Close()
		gocv.CvtColor(img, &grey, gocv.ColorBGRToGray)
	}

	total := grey.Rows() * grey.Cols()
	return float64(gocv.CountNonZero(grey)) / float64(total) * 100.0
}
