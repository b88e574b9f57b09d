package app

import (
	"context"
	"fmt"

	"github.com/ayusman/framelab/internal/capture"
	"github.com/ayusman/framelab/internal/diff"
	"github.com/ayusman/framelab/internal/ui"
)

// DifferenceState is published with each difference image.
type DifferenceState struct {
	Demo           string  `json:"demo"`
	Frame          int     `json:"frame"`
	Contrast       int     `json:"contrast"`
	FPS            int     `json:"fps"`
	Threshold      int     `json:"threshold"`
	Greyscale      bool    `json:"greyscale"`
	ChangedPercent float64 `json:"changed_percent"`
}

// RunDifference shows the live frame next to the contrast-enhanced absolute
// difference from the previous frame. It returns when 'x' is pressed, ctx is
// cancelled, or the source ends.
//
// Pressing 'g' toggles greyscale mode; the frame shown on that iteration is
// not committed as the new baseline.
func (a *App) RunDifference(ctx context.Context, src capture.Source, disp ui.Display) error {
	differ := diff.NewDiffer()
	defer differ.Close()

	disp.Open(WindowLive)
	disp.Open(WindowDifference)
	disp.AddTrackbar(WindowDifference, TrackbarContrast,
		a.loadSetting(DemoDifference, TrackbarContrast, diff.DefaultContrast, diff.MaxContrast), diff.MaxContrast)
	disp.AddTrackbar(WindowDifference, TrackbarFPS,
		a.loadSetting(DemoDifference, TrackbarFPS, diff.DefaultFPS, diff.MaxFPS), diff.MaxFPS)
	disp.AddTrackbar(WindowDifference, TrackbarThreshold,
		a.loadSetting(DemoDifference, TrackbarThreshold, diff.DefaultThresh, diff.MaxThresh), diff.MaxThresh)
	defer a.saveSettings(disp, DemoDifference, WindowDifference, TrackbarContrast, TrackbarFPS, TrackbarThreshold)

	first, err := src.Read()
	if err != nil {
		return fmt.Errorf("reading first frame: %w", err)
	}
	differ.Commit(*first)
	first.Close()

	sess := a.beginSession(DemoDifference, src.Name())
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

		params := diff.Params{
			Contrast:  disp.Trackbar(WindowDifference, TrackbarContrast),
			Threshold: disp.Trackbar(WindowDifference, TrackbarThreshold),
		}

		out, err := differ.Process(frame, params)
		if err != nil {
			a.log.Warnf("Error processing frame: %v", err)
			out.Close()
			frame.Close()
			continue
		}

		disp.Show(WindowLive, *frame)
		disp.Show(WindowDifference, out)
		frames++

		fps := disp.Trackbar(WindowDifference, TrackbarFPS)
		if a.config.Publisher != nil {
			a.publish(out, DifferenceState{
				Demo:           DemoDifference,
				Frame:          frames,
				Contrast:       params.Contrast,
				FPS:            fps,
				Threshold:      params.Threshold,
				Greyscale:      differ.Greyscale(),
				ChangedPercent: diff.ChangedPercent(out),
			})
		}
		out.Close()

		switch disp.WaitKey(ui.FrameDelay(fps)) {
		case ui.KeyExit:
			frame.Close()
			return nil
		case ui.KeyGreyscale:
			a.log.Infof("Greyscale mode: %v", differ.ToggleGreyscale())
		default:
			differ.Commit(*frame)
		}
		frame.Close()
	}
}
