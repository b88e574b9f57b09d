package track

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// camShiftMargin widens the converged window before its size is re-estimated
// so that a growing target is not cut off by the old window.
const camShiftMargin = 10

// meanShift moves window towards the local density peak of the 8-bit
// probability image prob. The window keeps its size and stays inside the
// image. Iteration stops after maxIter steps, once a step is shorter than eps
// pixels, or when the window covers no density at all.
func meanShift(prob gocv.Mat, window image.Rectangle, maxIter int, eps float64) image.Rectangle {
	bounds := image.Rect(0, 0, prob.Cols(), prob.Rows())
	window = clampInto(window.Canon(), bounds)
	if window.Empty() {
		return window
	}

	for range maxIter {
		m := regionMoments(prob, window)
		m00 := m["m00"]
		if m00 <= 0 {
			break
		}

		dx := int(math.Round(m["m10"]/m00 - float64(window.Dx())/2))
		dy := int(math.Round(m["m01"]/m00 - float64(window.Dy())/2))
		moved := clampInto(window.Add(image.Pt(dx, dy)), bounds)

		step := moved.Min.Sub(window.Min)
		window = moved
		if float64(step.X*step.X+step.Y*step.Y) < eps*eps {
			break
		}
	}

	return window
}

// adaptWindow resizes a converged mean-shift window to the spread of the
// density around it, centred on its centroid. The new window spans two
// standard deviations either side of the centroid on each axis.
func adaptWindow(prob gocv.Mat, window image.Rectangle) image.Rectangle {
	bounds := image.Rect(0, 0, prob.Cols(), prob.Rows())
	search := window.Inset(-camShiftMargin).Intersect(bounds)
	if search.Empty() {
		return window
	}

	m := regionMoments(prob, search)
	m00 := m["m00"]
	if m00 <= 0 {
		return window
	}

	cx := float64(search.Min.X) + m["m10"]/m00
	cy := float64(search.Min.Y) + m["m01"]/m00
	halfW := 2 * math.Sqrt(m["mu20"]/m00)
	halfH := 2 * math.Sqrt(m["mu02"]/m00)
	if halfW < 1 || halfH < 1 {
		return window
	}

	adapted := image.Rect(
		int(math.Round(cx-halfW)), int(math.Round(cy-halfH)),
		int(math.Round(cx+halfW)), int(math.Round(cy+halfH)),
	).Intersect(bounds)
	if adapted.Empty() {
		return window
	}
	return adapted
}

// clampInto shifts r so it lies within bounds, shrinking it first if it is
// larger than bounds.
func clampInto(r, bounds image.Rectangle) image.Rectangle {
	w := min(r.Dx(), bounds.Dx())
	h := min(r.Dy(), bounds.Dy())
	x := max(bounds.Min.X, min(r.Min.X, bounds.Max.X-w))
	y := max(bounds.Min.Y, min(r.Min.Y, bounds.Max.Y-h))
	return image.Rect(x, y, x+w, y+h)
}

// regionMoments returns the raw and central image moments of prob within r,
// relative to r's top-left corner.
func regionMoments(prob gocv.Mat, r image.Rectangle) map[string]float64 {
	region := prob.Region(r)
	defer region.Close()
	return gocv.Moments(region, false)
}
