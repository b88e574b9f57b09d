// Package ui wraps OpenCV's HighGUI windows, trackbars, mouse and keyboard
// polling behind a small interface that the demo loops drive.
package ui

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// NoKey is returned by WaitKey when no key was pressed before the timeout.
const NoKey = -1

// Keyboard shortcuts.
const (
	KeyExit      = 'x'
	KeyGreyscale = 'g'
)

// MouseFunc receives mouse events for a window. Event codes match OpenCV's.
type MouseFunc func(event, x, y int)

// Display is the set of GUI operations used by the demos.
type Display interface {
	// Open creates a resizable window.
	Open(window string)
	// AddTrackbar attaches an integer slider in [0, max] to window.
	AddTrackbar(window, name string, value, max int)
	// Trackbar returns the slider position, or 0 if it does not exist.
	Trackbar(window, name string) int
	Show(window string, img gocv.Mat)
	OnMouse(window string, fn MouseFunc)
	// WaitKey pumps GUI events for up to delay milliseconds and returns the
	// low byte of the key pressed, or NoKey.
	WaitKey(delay int) int
	Close() error
}

// HighGUI is the OpenCV-backed Display. It must be used from the goroutine
// that created it.
type HighGUI struct {
	mu        sync.Mutex
	windows   map[string]*gocv.Window
	trackbars map[string]*gocv.Trackbar
}

// NewHighGUI returns a Display with no open windows.
func NewHighGUI() *HighGUI {
	return &HighGUI{
		windows:   make(map[string]*gocv.Window),
		trackbars: make(map[string]*gocv.Trackbar),
	}
}

func trackbarKey(window, name string) string {
	return window + "/" + name
}

func (g *HighGUI) window(name string) *gocv.Window {
	w, ok := g.windows[name]
	if !ok {
		// gocv creates windows with WINDOW_NORMAL, i.e. resizable
		w = gocv.NewWindow(name)
		g.windows[name] = w
	}
	return w
}

func (g *HighGUI) Open(window string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.window(window)
}

func (g *HighGUI) AddTrackbar(window, name string, value, max int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	tb := g.window(window).CreateTrackbar(name, max)
	tb.SetPos(value)
	g.trackbars[trackbarKey(window, name)] = tb
}

func (g *HighGUI) Trackbar(window, name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	tb, ok := g.trackbars[trackbarKey(window, name)]
	if !ok {
		return 0
	}
	return tb.GetPos()
}

func (g *HighGUI) Show(window string, img gocv.Mat) {
	if img.Empty() {
		return
	}

	g.mu.Lock()
	w := g.window(window)
	g.mu.Unlock()

	w.IMShow(img)
}

func (g *HighGUI) OnMouse(window string, fn MouseFunc) {
	g.mu.Lock()
	w := g.window(window)
	g.mu.Unlock()

	w.SetMouseHandler(func(event, x, y, flags int, _ interface{}) {
		fn(event, x, y)
	}, nil)
}

func (g *HighGUI) WaitKey(delay int) int {
	return normalizeKey(gocv.WaitKey(delay))
}

// Close destroys all windows.
func (g *HighGUI) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error
	for name, w := range g.windows {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(g.windows, name)
	}
	clear(g.trackbars)

	return errors.Join(errs...)
}

// normalizeKey keeps the least significant byte of a key code.
func normalizeKey(key int) int {
	if key < 0 {
		return NoKey
	}
	return key & 0xFF
}
