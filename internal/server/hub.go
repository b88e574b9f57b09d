package server

import (
	"encoding/json"
	"sync"

	"github.com/cyclopcam/logs"
	"gocv.io/x/gocv"
)

// Hub holds the most recent output frame and demo state published by the
// display loop, and wakes subscribers when they change.
type Hub struct {
	log   logs.Log
	mu    sync.RWMutex
	jpeg  []byte
	state []byte
	seq   uint64
	subs  map[chan struct{}]struct{}
}

// NewHub creates an empty Hub.
func NewHub(log logs.Log) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[chan struct{}]struct{}),
	}
}

// Publish stores img (JPEG-encoded) and state (as JSON). Encoding is skipped
// while nobody is subscribed. Publish never blocks on subscribers.
func (h *Hub) Publish(img gocv.Mat, state any) {
	h.mu.RLock()
	watched := len(h.subs) > 0
	h.mu.RUnlock()

	var jpeg []byte
	if watched && !img.Empty() {
		buf, err := gocv.IMEncode(".jpg", img)
		if err != nil {
			h.log.Warnf("Failed to encode preview frame: %v", err)
		} else {
			jpeg = append([]byte(nil), buf.GetBytes()...)
			buf.Close()
		}
	}

	encoded, err := json.Marshal(state)
	if err != nil {
		h.log.Warnf("Failed to encode preview state: %v", err)
		encoded = nil
	}

	h.mu.Lock()
	if jpeg != nil {
		h.jpeg = jpeg
	}
	if encoded != nil {
		h.state = encoded
	}
	h.seq++
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}

// Subscribe returns a channel that receives a value after each Publish, and a
// function that cancels the subscription.
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

// Latest returns the most recent JPEG frame, state JSON and publish sequence
// number. The slices must not be modified.
func (h *Hub) Latest() (jpeg, state []byte, seq uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.jpeg, h.state, h.seq
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
