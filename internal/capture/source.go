// Package capture opens video sources (files or cameras) using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

var (
	// ErrNoSource is returned when neither the named file nor the camera could be opened.
	ErrNoSource = errors.New("no video file specified or camera connected")

	// ErrSourceClosed is returned when reading from a source that is not open.
	ErrSourceClosed = errors.New("video source is not open")

	// ErrEndOfStream is returned when a source has no more frames to deliver.
	ErrEndOfStream = errors.New("end of video stream")
)

// Source defines a stream of video frames.
type Source interface {
	// Read returns the next frame. The caller is responsible for closing it.
	Read() (*gocv.Mat, error)
	Close() error
	IsOpen() bool
	// Name identifies the source, e.g. a file path or "camera:0".
	Name() string
}

// videoSource wraps a gocv.VideoCapture opened from a file or a device.
type videoSource struct {
	name    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	isFile  bool
}

// Open opens a video source. When path is non-empty it is tried first as a
// video file; if that fails (or path is empty) the camera with the given
// index is opened instead.
func Open(path string, cameraID int) (Source, error) {
	if path != "" {
		if vc, err := gocv.VideoCaptureFile(path); err == nil && vc.IsOpened() {
			return &videoSource{name: path, capture: vc, isFile: true}, nil
		} else if vc != nil {
			vc.Close()
		}
	}

	vc, err := gocv.VideoCaptureDevice(cameraID)
	if err != nil || !vc.IsOpened() {
		if vc != nil {
			vc.Close()
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoSource, err)
		}
		return nil, ErrNoSource
	}

	return &videoSource{name: "camera:" + strconv.Itoa(cameraID), capture: vc}, nil
}

// Read reads a single frame. A file that has run out of frames returns
// ErrEndOfStream.
func (s *videoSource) Read() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil, ErrSourceClosed
	}

	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		if s.isFile {
			return nil, ErrEndOfStream
		}
		return nil, errors.New("failed to read frame from camera")
	}

	return &mat, nil
}

// Close releases the underlying capture device.
func (s *videoSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil
	}

	err := s.capture.Close()
	s.capture = nil
	return err
}

// IsOpen returns true if the source is still open.
func (s *videoSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.capture != nil
}

func (s *videoSource) Name() string {
	return s.name
}
