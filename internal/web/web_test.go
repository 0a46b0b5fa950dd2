package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/serroba/shorturl/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *chi.Mux {
	router := chi.NewMux()
	web.RegisterRoutes(router)

	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

func TestIndex(t *testing.T) {
	w := get(newRouter(), "/")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `action="/api/shorturl"`)
	assert.Contains(t, w.Body.String(), `name="url"`)
}

func TestPublicAssets(t *testing.T) {
	t.Run("serves stylesheet", func(t *testing.T) {
		w := get(newRouter(), "/public/style.css")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/css")
	})

	t.Run("unknown asset is not found", func(t *testing.T) {
		w := get(newRouter(), "/public/missing.js")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
