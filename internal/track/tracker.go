// Package track implements interactive region selection and colour-histogram
// object tracking with mean-shift.
package track

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

// Mode selects the window update algorithm.
type Mode int

const (
	MeanShift Mode = iota
	CamShift
)

func (m Mode) String() string {
	if m == CamShift {
		return "camshift"
	}
	return "meanshift"
}

// Histogram and search parameters.
const (
	HueBins        = 180
	SaturationBins = 255
	MinSaturation  = 60
	MinValue       = 32
	MaxIterations  = 10
	Epsilon        = 1.0
)

var (
	// ErrEmptySelection is returned when a target region has no area inside the frame.
	ErrEmptySelection = errors.New("selection is empty")

	// ErrNoTarget is returned by Update before a target has been selected.
	ErrNoTarget = errors.New("no tracking target selected")
)

var histRanges = []float64{0, HueBins, 0, SaturationBins}

// Tracker follows a selected region by back-projecting its hue/saturation
// histogram onto each frame and moving the track window to the density peak.
type Tracker struct {
	mode      Mode
	hist      gocv.Mat
	window    image.Rectangle
	hasTarget bool
}

// NewTracker creates a Tracker with no target.
func NewTracker(mode Mode) *Tracker {
	return &Tracker{
		mode: mode,
		hist: gocv.NewMat(),
	}
}

// SetTarget builds the colour model from rect in frame and resets the track
// window to rect. The rectangle is clipped to the frame. It returns a copy of
// the selected region, which the caller must close.
//
// Pixels with low saturation or value carry little colour information and are
// excluded from the histogram.
func (t *Tracker) SetTarget(frame gocv.Mat, rect image.Rectangle) (gocv.Mat, error) {
	rect = rect.Canon().Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
	if rect.Empty() {
		return gocv.NewMat(), ErrEmptySelection
	}

	region := frame.Region(rect)
	crop := region.Clone()
	region.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(crop, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(0, MinSaturation, MinValue, 0),
		gocv.NewScalar(HueBins, 255, 255, 0),
		&mask)

	hist := gocv.NewMat()
	gocv.CalcHist([]gocv.Mat{hsv}, []int{0, 1}, mask, &hist, []int{HueBins, SaturationBins}, histRanges, false)
	gocv.Normalize(hist, &hist, 0, 255, gocv.NormMinMax)

	t.hist.Close()
	t.hist = hist
	t.window = rect
	t.hasTarget = true

	return crop, nil
}

// Update locates the target in frame. It returns the new track window and the
// back-projection image, which the caller must close.
func (t *Tracker) Update(frame gocv.Mat) (image.Rectangle, gocv.Mat, error) {
	if !t.hasTarget {
		return image.Rectangle{}, gocv.NewMat(), ErrNoTarget
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	backProject := gocv.NewMat()
	gocv.CalcBackProject([]gocv.Mat{hsv}, []int{0, 1}, t.hist, &backProject, histRanges, true)

	window := meanShift(backProject, t.window, MaxIterations, Epsilon)
	if t.mode == CamShift {
		window = adaptWindow(backProject, window)
	}
	t.window = window

	return window, backProject, nil
}

// Window returns the current track window.
func (t *Tracker) Window() image.Rectangle {
	return t.window
}

// HasTarget reports whether a colour model has been built.
func (t *Tracker) HasTarget() bool {
	return t.hasTarget
}

// Mode returns the window update algorithm in use.
func (t *Tracker) Mode() Mode {
	return t.mode
}

// Close releases the histogram and forgets the target.
func (t *Tracker) Close() {
	t.hist.Close()
	t.hist = gocv.NewMat()
	t.hasTarget = false
}
