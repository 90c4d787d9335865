package webutil_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/effective-security/academix/chatmodel"
	"github.com/effective-security/academix/pkg/webutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	r := webutil.NewRouter(true)
	r.Get("/chat", func(w http.ResponseWriter, r *http.Request) {
		webutil.WriteJSON(w, http.StatusOK, map[string]string{"chat": chatmodel.GetChatID(r.Context())})
	})
	r.Get("/fail", func(w http.ResponseWriter, r *http.Request) {
		webutil.WriteError(w, http.StatusBadRequest, "bad")
	})
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	t.Run("chat id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		req.Header.Set(webutil.HeaderChatID, "c123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "c123", w.Header().Get(webutil.HeaderChatID))
		assert.JSONEq(t, `{"chat":"c123"}`, w.Body.String())
	})

	t.Run("new chat id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat", nil))
		assert.NotEmpty(t, w.Header().Get(webutil.HeaderChatID))
	})

	t.Run("error", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"bad"}`, w.Body.String())
	})

	t.Run("panic", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("cors", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- webutil.Serve(ctx, "127.0.0.1:0", http.NotFoundHandler())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(webutil.ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}

	err := webutil.Serve(context.Background(), "bad-address", http.NotFoundHandler())
	assert.Error(t, err)
}
