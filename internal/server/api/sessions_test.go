package api

import (
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/julienschmidt/httprouter"

	"github.com/ayusman/framelab/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func newRouter(h *SessionHandler) *httprouter.Router {
	r := httprouter.New()
	r.GET("/api/sessions", h.List)
	r.GET("/api/sessions/:id", h.Get)
	return r
}

func TestSessionHandler_List(t *testing.T) {
	s := newTestStore(t)
	router := newRouter(NewSessionHandler(s))

	t.Run("empty list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var resp listSessionsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Sessions == nil || len(resp.Sessions) != 0 {
			t.Errorf("sessions = %v, want empty array", resp.Sessions)
		}
	})

	for i := 0; i < 3; i++ {
		if _, err := s.Sessions().Start("absdiff", "camera:0"); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	}

	t.Run("with limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions?limit=2", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var resp listSessionsResponse
		json.NewDecoder(rec.Body).Decode(&resp)
		if len(resp.Sessions) != 2 {
			t.Errorf("len(sessions) = %d, want 2", len(resp.Sessions))
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		for _, q := range []string{"abc", "0", "-4"} {
			req := httptest.NewRequest(http.MethodGet, "/api/sessions?limit="+q, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit=%s: status = %d, want %d", q, rec.Code, http.StatusBadRequest)
			}
		}
	})
}

func TestSessionHandler_Get(t *testing.T) {
	s := newTestStore(t)
	router := newRouter(NewSessionHandler(s))

	sess, err := s.Sessions().Start("meanshift", "clip.mp4")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := s.Sessions().AddSelection(sess.ID, image.Rect(1, 2, 11, 22)); err != nil {
		t.Fatalf("AddSelection() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != sess.ID || resp.Demo != "meanshift" {
		t.Errorf("session = %+v, want id %s demo meanshift", resp.Session, sess.ID)
	}
	if len(resp.Selections) != 1 || resp.Selections[0].Width != 10 || resp.Selections[0].Height != 20 {
		t.Errorf("selections = %+v, want one 10x20 selection", resp.Selections)
	}
}

func TestSessionHandler_Get_NotFound(t *testing.T) {
	router := newRouter(NewSessionHandler(newTestStore(t)))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
