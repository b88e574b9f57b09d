package track

import (
	"errors"
	"image"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/framelab/internal/fixtures"
)

func TestTracker_UpdateWithoutTarget(t *testing.T) {
	tr := NewTracker(MeanShift)
	defer tr.Close()

	frame := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer frame.Close()

	_, bp, err := tr.Update(frame)
	bp.Close()
	if !errors.Is(err, ErrNoTarget) {
		t.Errorf("Update() error = %v, want ErrNoTarget", err)
	}
	if tr.HasTarget() {
		t.Error("HasTarget() = true before SetTarget")
	}
}

func TestTracker_SetTarget_Rejects(t *testing.T) {
	tests := []struct {
		name string
		rect image.Rectangle
	}{
		{name: "empty", rect: image.Rectangle{}},
		{name: "zero width", rect: image.Rect(10, 10, 10, 40)},
		{name: "outside frame", rect: image.Rect(500, 500, 600, 600)},
	}

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(MeanShift)
			defer tr.Close()

			crop, err := tr.SetTarget(frame, tt.rect)
			crop.Close()
			if !errors.Is(err, ErrEmptySelection) {
				t.Errorf("SetTarget() error = %v, want ErrEmptySelection", err)
			}
			if tr.HasTarget() {
				t.Error("HasTarget() = true after rejected selection")
			}
		})
	}
}

func TestTracker_SetTarget_ClipsToFrame(t *testing.T) {
	tr := NewTracker(MeanShift)
	defer tr.Close()

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	crop, err := tr.SetTarget(frame, image.Rect(140, 100, 200, 200))
	if err != nil {
		t.Fatalf("SetTarget() error = %v", err)
	}
	defer crop.Close()

	if crop.Cols() != 20 || crop.Rows() != 20 {
		t.Errorf("crop size = %dx%d, want 20x20", crop.Cols(), crop.Rows())
	}
	if want := image.Rect(140, 100, 160, 120); tr.Window() != want {
		t.Errorf("Window() = %v, want %v", tr.Window(), want)
	}
}

func TestTracker_FollowsTarget(t *testing.T) {
	for _, mode := range []Mode{MeanShift, CamShift} {
		t.Run(mode.String(), func(t *testing.T) {
			tr := NewTracker(mode)
			defer tr.Close()

			start := image.Rect(40, 40, 70, 70)
			first := fixtures.SceneWithSquare(start)
			defer first.Close()

			crop, err := tr.SetTarget(*first, start)
			if err != nil {
				t.Fatalf("SetTarget() error = %v", err)
			}
			crop.Close()

			moved := start.Add(image.Pt(8, 6))
			second := fixtures.SceneWithSquare(moved)
			defer second.Close()

			window, bp, err := tr.Update(*second)
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			defer bp.Close()

			if bp.Rows() != second.Rows() || bp.Cols() != second.Cols() {
				t.Errorf("back projection size = %dx%d, want %dx%d", bp.Cols(), bp.Rows(), second.Cols(), second.Rows())
			}

			// The object pixels should be maximally likely; background zero.
			if got := bp.GetUCharAt(moved.Min.Y+5, moved.Min.X+5); got != 255 {
				t.Errorf("back projection inside object = %d, want 255", got)
			}
			if got := bp.GetUCharAt(5, 5); got != 0 {
				t.Errorf("back projection on background = %d, want 0", got)
			}

			got, want := fixtures.Centre(window), fixtures.Centre(moved)
			if !fixtures.Near(got, want, 2) {
				t.Errorf("window centre = %v, want near %v (window %v)", got, want, window)
			}
			if tr.Window() != window {
				t.Errorf("Window() = %v, want %v", tr.Window(), window)
			}
		})
	}
}

func TestTracker_CloseForgetsTarget(t *testing.T) {
	tr := NewTracker(MeanShift)

	frame := fixtures.SceneWithSquare(image.Rect(10, 10, 30, 30))
	defer frame.Close()

	crop, err := tr.SetTarget(*frame, image.Rect(10, 10, 30, 30))
	if err != nil {
		t.Fatalf("SetTarget() error = %v", err)
	}
	crop.Close()

	tr.Close()
	if tr.HasTarget() {
		t.Error("HasTarget() = true after Close")
	}
	tr.Close()
}
