package app

import (
	"context"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/framelab/internal/capture"
	"github.com/ayusman/framelab/internal/store"
	"github.com/ayusman/framelab/internal/track"
	"github.com/ayusman/framelab/internal/ui"
)

// Overlay colours; OpenCV draws in BGR order from the RGBA fields.
var (
	selectionColor = color.RGBA{R: 0, G: 255, B: 0}
	trackColor     = color.RGBA{R: 0, G: 0, B: 255}
)

const overlayThickness = 2

// Rect is a JSON-friendly rectangle.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func toRect(r image.Rectangle) *Rect {
	return &Rect{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// TrackingState is published with each annotated frame.
type TrackingState struct {
	Demo      string `json:"demo"`
	Frame     int    `json:"frame"`
	Mode      string `json:"mode"`
	Selecting bool   `json:"selecting"`
	Tracking  bool   `json:"tracking"`
	Window    *Rect  `json:"window,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// RunTracking lets the user drag a box on the live window and then follows
// the boxed object using histogram back-projection. It returns when 'x' is
// pressed, ctx is cancelled, or the source ends.
func (a *App) RunTracking(ctx context.Context, src capture.Source, disp ui.Display) error {
	selector := track.NewSelector()
	tracker := track.NewTracker(a.config.TrackMode)
	defer tracker.Close()

	disp.Open(WindowLive)
	disp.Open(WindowBackProjection)
	disp.Open(WindowSelection)
	disp.OnMouse(WindowLive, func(event, x, y int) {
		selector.Handle(track.MouseEvent(event), x, y)
	})

	sess := a.beginSession(DemoTracking, src.Name())
	frames := 0
	defer func() { a.endSession(sess, frames) }()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		frame, done, err := a.readFrame(src, &failures)
		if done {
			return err
		}
		if frame == nil {
			continue
		}

		start := time.Now()

		if rect, ok := selector.Take(); ok {
			a.selectTarget(tracker, disp, sess, *frame, rect)
		}

		var window *Rect
		if tracker.HasTarget() {
			w, backProject, err := tracker.Update(*frame)
			if err != nil {
				a.log.Warnf("Tracking update failed: %v", err)
			} else {
				disp.Show(WindowBackProjection, backProject)
				gocv.Rectangle(frame, w, trackColor, overlayThickness)
				window = toRect(w)
			}
			backProject.Close()
		}

		// Drawn after tracking so the overlay never feeds the back-projection
		if preview, ok := selector.Preview(); ok {
			gocv.Rectangle(frame, preview, selectionColor, overlayThickness)
		}

		disp.Show(WindowLive, *frame)
		frames++

		elapsed := time.Since(start)
		a.publish(*frame, TrackingState{
			Demo:      DemoTracking,
			Frame:     frames,
			Mode:      tracker.Mode().String(),
			Selecting: selector.InProgress(),
			Tracking:  window != nil,
			Window:    window,
			ElapsedMs: elapsed.Milliseconds(),
		})
		frame.Close()

		if disp.WaitKey(ui.AdaptiveDelay(elapsed)) == ui.KeyExit {
			return nil
		}
	}
}

// selectTarget rebuilds the tracker's colour model from rect and shows the
// selected region.
func (a *App) selectTarget(tracker *track.Tracker, disp ui.Display, sess *store.Session, frame gocv.Mat, rect image.Rectangle) {
	crop, err := tracker.SetTarget(frame, rect)
	defer crop.Close()
	if err != nil {
		a.log.Warnf("Ignoring selection %v: %v", rect, err)
		return
	}

	disp.Show(WindowSelection, crop)
	a.log.Infof("Tracking region %v with %v", tracker.Window(), tracker.Mode())

	if sess != nil {
		if _, err := a.config.Store.Sessions().AddSelection(sess.ID, tracker.Window()); err != nil {
			a.log.Warnf("Failed to record selection: %v", err)
		}
	}
}
