package server

import (
	"bytes"
	"testing"

	"github.com/cyclopcam/logs"
	"gocv.io/x/gocv"
)

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(logs.NewTestingLog(t))

	img := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	defer img.Close()

	hub.Publish(img, map[string]int{"contrast": 3})

	jpeg, state, seq := hub.Latest()
	if len(jpeg) != 0 {
		t.Error("frame should not be encoded without subscribers")
	}
	if string(state) != `{"contrast":3}` {
		t.Errorf("state = %s, want {\"contrast\":3}", state)
	}
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}
}

func TestHub_PublishNotifiesSubscribers(t *testing.T) {
	hub := NewHub(logs.NewTestingLog(t))

	updates, cancel := hub.Subscribe()
	if hub.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", hub.Subscribers())
	}

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 255, 0), 8, 8, gocv.MatTypeCV8UC3)
	defer img.Close()

	// Two publishes must not block on a subscriber that has not read yet
	hub.Publish(img, nil)
	hub.Publish(img, nil)

	select {
	case <-updates:
	default:
		t.Fatal("subscriber was not notified")
	}

	jpeg, _, seq := hub.Latest()
	if !bytes.HasPrefix(jpeg, []byte{0xFF, 0xD8}) {
		t.Errorf("frame does not start with a JPEG SOI marker")
	}
	if seq != 2 {
		t.Errorf("seq = %d, want 2", seq)
	}

	cancel()
	cancel()
	if hub.Subscribers() != 0 {
		t.Errorf("Subscribers() after cancel = %d, want 0", hub.Subscribers())
	}
}
