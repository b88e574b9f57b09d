// Package fixtures builds synthetic video frames for tests.
package fixtures

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Default fixture frame size.
const (
	Rows = 120
	Cols = 160
)

// TargetColor is a green that survives the tracker's saturation and value
// masks (HSV ≈ 60, 204, 200). Fully saturated colours fall outside the
// histogram range.
var TargetColor = color.RGBA{R: 40, G: 200, B: 40}

// Solid returns a BGR frame of the given size with every channel set to v.
func Solid(rows, cols int, v float64) *gocv.Mat {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), rows, cols, gocv.MatTypeCV8UC3)
	return &m
}

// SceneWithSquare returns a black Rows×Cols frame with a filled TargetColor square.
func SceneWithSquare(square image.Rectangle) *gocv.Mat {
	m := Solid(Rows, Cols, 0)
	gocv.Rectangle(m, square, TargetColor, -1)
	return m
}

// MovingSquare returns n frames in which square moves by step each frame.
func MovingSquare(square image.Rectangle, step image.Point, n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		frames[i] = SceneWithSquare(square.Add(step.Mul(i)))
	}
	return frames
}

// Centre returns the centre point of r.
func Centre(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

// Near reports whether a and b are within tol pixels on both axes.
func Near(a, b image.Point, tol int) bool {
	d := a.Sub(b)
	return d.X >= -tol && d.X <= tol && d.Y >= -tol && d.Y <= tol
}

// CloseAll closes every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
