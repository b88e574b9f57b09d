package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/framelab/internal/store"
)

func TestServer_Health(t *testing.T) {
	s := New(Config{Log: logs.NewTestingLog(t)})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{Log: logs.NewTestingLog(t)})

	for _, path := range []string{"/api/nonexistent", "/api/stream", "/api/sessions"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_Sessions(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	if _, err := st.Sessions().Start("absdiff", "camera:0"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	s := New(Config{Log: logs.NewTestingLog(t), Store: st})

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var listed struct {
		Sessions []store.Session `json:"sessions"`
	}
	json.NewDecoder(rec.Body).Decode(&listed)
	if len(listed.Sessions) != 1 || listed.Sessions[0].Demo != "absdiff" {
		t.Errorf("sessions = %+v, want one absdiff session", listed.Sessions)
	}
}

// publishUntil publishes img and state every few milliseconds until done is closed.
func publishUntil(hub *Hub, img gocv.Mat, state any, done <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			hub.Publish(img, state)
		}
	}
}

func TestServer_Stream(t *testing.T) {
	log := logs.NewTestingLog(t)
	hub := NewHub(log)
	ts := httptest.NewServer(New(Config{Log: log, Hub: hub}))
	defer ts.Close()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 24, 32, gocv.MatTypeCV8UC3)
	defer img.Close()

	done := make(chan struct{})
	defer close(done)
	go publishUntil(hub, img, map[string]int{"frame": 1}, done)

	resp, err := ts.Client().Get(ts.URL + "/api/stream")
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %q, want multipart/x-mixed-replace", ct)
	}

	reader := bufio.NewReader(resp.Body)
	boundary, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading boundary: %v", err)
	}
	if boundary != "--frame\r\n" {
		t.Errorf("boundary = %q, want --frame", boundary)
	}

	partType, _ := reader.ReadString('\n')
	if partType != "Content-Type: image/jpeg\r\n" {
		t.Errorf("part header = %q, want image/jpeg", partType)
	}
}

func TestServer_Telemetry(t *testing.T) {
	log := logs.NewTestingLog(t)
	hub := NewHub(log)
	ts := httptest.NewServer(New(Config{Log: log, Hub: hub}))
	defer ts.Close()

	img := gocv.NewMat()
	defer img.Close()

	done := make(chan struct{})
	defer close(done)
	go publishUntil(hub, img, map[string]any{"demo": "meanshift", "tracking": true}, done)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/telemetry"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var state map[string]any
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}

	if state["demo"] != "meanshift" || state["tracking"] != true {
		t.Errorf("state = %v, want meanshift tracking", state)
	}
}

func TestServer_Run_ShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	s := New(Config{Log: logs.NewTestingLog(t)})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx, addr)
	}()

	// Wait for the server to come up
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/api/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
