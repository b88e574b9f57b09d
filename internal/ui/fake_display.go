package ui

import (
	"sync"

	"gocv.io/x/gocv"
)

// MouseInput is a scripted mouse event delivered by FakeDisplay.
type MouseInput struct {
	Window string
	Event  int
	X, Y   int
}

// FakeDisplay is a headless Display for tests. Keys and mouse events are
// scripted per WaitKey call; shown images are recorded.
type FakeDisplay struct {
	mu        sync.Mutex
	windows   map[string]bool
	trackbars map[string]int
	mouse     map[string]MouseFunc
	keys      []int
	events    map[int][]MouseInput
	waits     []int
	shown     map[string]int
	last      map[string]gocv.Mat
	closed    bool
}

// NewFakeDisplay returns a FakeDisplay that answers successive WaitKey calls
// with keys, then NoKey.
func NewFakeDisplay(keys ...int) *FakeDisplay {
	return &FakeDisplay{
		windows:   make(map[string]bool),
		trackbars: make(map[string]int),
		mouse:     make(map[string]MouseFunc),
		keys:      keys,
		events:    make(map[int][]MouseInput),
		shown:     make(map[string]int),
		last:      make(map[string]gocv.Mat),
	}
}

// QueueMouse delivers events during the WaitKey call with the given index
// (zero-based), as HighGUI does while pumping its event loop.
func (f *FakeDisplay) QueueMouse(call int, events ...MouseInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[call] = append(f.events[call], events...)
}

// SetTrackbar moves a slider as a user would.
func (f *FakeDisplay) SetTrackbar(window, name string, value int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackbars[trackbarKey(window, name)] = value
}

func (f *FakeDisplay) Open(window string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[window] = true
}

func (f *FakeDisplay) AddTrackbar(window, name string, value, max int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[window] = true
	f.trackbars[trackbarKey(window, name)] = min(max, value)
}

func (f *FakeDisplay) Trackbar(window, name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trackbars[trackbarKey(window, name)]
}

func (f *FakeDisplay) Show(window string, img gocv.Mat) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.windows[window] = true
	f.shown[window]++
	if prev, ok := f.last[window]; ok {
		prev.Close()
	}
	f.last[window] = img.Clone()
}

func (f *FakeDisplay) OnMouse(window string, fn MouseFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mouse[window] = fn
}

func (f *FakeDisplay) WaitKey(delay int) int {
	f.mu.Lock()
	call := len(f.waits)
	f.waits = append(f.waits, delay)
	events := f.events[call]
	handlers := make(map[string]MouseFunc, len(f.mouse))
	for k, v := range f.mouse {
		handlers[k] = v
	}
	key := NoKey
	if len(f.keys) > 0 {
		key = f.keys[0]
		f.keys = f.keys[1:]
	}
	f.mu.Unlock()

	for _, ev := range events {
		if fn, ok := handlers[ev.Window]; ok {
			fn(ev.Event, ev.X, ev.Y)
		}
	}

	return key
}

func (f *FakeDisplay) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, m := range f.last {
		m.Close()
		delete(f.last, name)
	}
	f.closed = true
	return nil
}

// Shown returns how many images were shown in window.
func (f *FakeDisplay) Shown(window string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shown[window]
}

// Last returns a copy of the most recent image shown in window. The caller
// must close it.
func (f *FakeDisplay) Last(window string) gocv.Mat {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.last[window]
	if !ok {
		return gocv.NewMat()
	}
	return m.Clone()
}

// Waits returns the delays passed to WaitKey, in call order.
func (f *FakeDisplay) Waits() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.waits...)
}

// HasWindow reports whether window was opened or drawn to.
func (f *FakeDisplay) HasWindow(window string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[window]
}

// Closed reports whether Close was called.
func (f *FakeDisplay) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
