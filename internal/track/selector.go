package track

import (
	"image"
	"sync"
)

// MouseEvent identifies a mouse event; values match OpenCV's EVENT_* codes.
type MouseEvent int

const (
	MouseMove      MouseEvent = 0
	LeftButtonDown MouseEvent = 1
	LeftButtonUp   MouseEvent = 4
)

// Selector turns a left-button mouse drag into a rectangle.
type Selector struct {
	mu         sync.Mutex
	points     []image.Point
	current    image.Point
	inProgress bool
}

// NewSelector returns an idle Selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Handle records a mouse event at (x, y). Pressing the left button starts a
// new selection and discards any previous one; releasing it completes it.
func (s *Selector) Handle(event MouseEvent, x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = image.Pt(x, y)

	switch event {
	case LeftButtonDown:
		s.points = append(s.points[:0], s.current)
		s.inProgress = true
	case LeftButtonUp:
		if !s.inProgress {
			return
		}
		s.points = append(s.points, s.current)
		s.inProgress = false
	}
}

// InProgress reports whether the left button is held down.
func (s *Selector) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProgress
}

// Preview returns the rectangle from the drag start to the current mouse
// position while a selection is in progress.
func (s *Selector) Preview() (image.Rectangle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inProgress || len(s.points) == 0 {
		return image.Rectangle{}, false
	}
	return image.Rectangle{Min: s.points[0], Max: s.current}, true
}

// Take consumes a completed selection. It returns false when no selection
// has been completed, or when the drag did not go strictly down and to the
// right; a completed selection is discarded either way.
func (s *Selector) Take() (image.Rectangle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.points) < 2 {
		return image.Rectangle{}, false
	}

	start, end := s.points[0], s.points[1]
	s.points = s.points[:0]

	if start.X >= end.X || start.Y >= end.Y {
		return image.Rectangle{}, false
	}
	return image.Rectangle{Min: start, Max: end}, true
}
