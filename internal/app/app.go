// Package app runs the interactive demo loops: frame differencing and
// mean-shift object tracking.
package app

import (
	"errors"
	"fmt"

	"github.com/cyclopcam/logs"
	"gocv.io/x/gocv"

	"github.com/ayusman/framelab/internal/capture"
	"github.com/ayusman/framelab/internal/store"
	"github.com/ayusman/framelab/internal/track"
	"github.com/ayusman/framelab/internal/ui"
)

// Demo names, used for sessions and settings keys.
const (
	DemoDifference = "absdiff"
	DemoTracking   = "meanshift"
)

// Window names.
const (
	WindowLive           = "Live Camera Input"
	WindowDifference     = "Difference Image"
	WindowBackProjection = "Hue histogram back projection"
	WindowSelection      = "selected"
)

// Trackbar names.
const (
	TrackbarContrast  = "contrast"
	TrackbarFPS       = "fps"
	TrackbarThreshold = "threshold"
)

// MaxReadFailures is the number of consecutive failed reads after which a
// loop gives up on the source.
const MaxReadFailures = 30

// Publisher receives every displayed output frame along with the demo state.
// Implementations must copy what they keep; img is closed after Publish returns.
type Publisher interface {
	Publish(img gocv.Mat, state any)
}

// Config holds configuration options for the demos.
type Config struct {
	Log       logs.Log
	Store     *store.Store // optional: settings and session history
	Publisher Publisher    // optional: preview server
	TrackMode track.Mode
}

// App runs the demos.
type App struct {
	config Config
	log    logs.Log
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	return &App{
		config: config,
		log:    config.Log,
	}
}

// readFrame reads the next frame, retrying transient failures. It returns
// done=true when the source has ended or keeps failing.
func (a *App) readFrame(src capture.Source, failures *int) (frame *gocv.Mat, done bool, err error) {
	frame, err = src.Read()
	if err == nil {
		*failures = 0
		return frame, false, nil
	}

	if errors.Is(err, capture.ErrEndOfStream) || errors.Is(err, capture.ErrSourceClosed) {
		a.log.Infof("Video source %v finished: %v", src.Name(), err)
		return nil, true, nil
	}

	*failures++
	if *failures >= MaxReadFailures {
		return nil, true, fmt.Errorf("reading from %v: %w", src.Name(), err)
	}
	a.log.Warnf("Error reading frame: %v", err)
	return nil, false, nil
}

func (a *App) publish(img gocv.Mat, state any) {
	if a.config.Publisher != nil {
		a.config.Publisher.Publish(img, state)
	}
}

// beginSession records the start of a run. Storage errors are logged, not fatal.
func (a *App) beginSession(demo, source string) *store.Session {
	if a.config.Store == nil {
		return nil
	}

	sess, err := a.config.Store.Sessions().Start(demo, source)
	if err != nil {
		a.log.Warnf("Failed to record session: %v", err)
		return nil
	}
	a.log.Infof("Started %v session %v on %v", demo, sess.ID, source)
	return sess
}

func (a *App) endSession(sess *store.Session, frames int) {
	if sess == nil {
		return
	}
	if err := a.config.Store.Sessions().Finish(sess.ID, frames); err != nil {
		a.log.Warnf("Failed to finish session %v: %v", sess.ID, err)
	}
}

func settingKey(demo, name string) string {
	return demo + "." + name
}

// loadSetting returns the persisted trackbar value, clamped to [0, limit].
func (a *App) loadSetting(demo, name string, def, limit int) int {
	if a.config.Store == nil {
		return def
	}
	v := a.config.Store.Settings().GetInt(settingKey(demo, name), def)
	return min(limit, max(0, v))
}

// saveSettings persists the current positions of the named trackbars.
func (a *App) saveSettings(disp ui.Display, demo, window string, names ...string) {
	if a.config.Store == nil {
		return
	}
	for _, name := range names {
		if err := a.config.Store.Settings().SetInt(settingKey(demo, name), disp.Trackbar(window, name)); err != nil {
			a.log.Warnf("Failed to save setting %v: %v", name, err)
		}
	}
}
