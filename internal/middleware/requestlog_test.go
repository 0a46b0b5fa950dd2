package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/serroba/shorturl/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testOutput struct {
	Status int
	Body   struct {
		Message string `json:"message"`
	}
}

func setupTestAPI(t *testing.T, status int) (*chi.Mux, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)

	router := chi.NewMux()
	router.Use(chimw.RequestID)

	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestLogger(zap.New(core)))

	huma.Register(api, huma.Operation{
		OperationID: "test-op",
		Method:      http.MethodGet,
		Path:        "/test",
	}, func(_ context.Context, _ *struct{}) (*testOutput, error) {
		out := &testOutput{Status: status}
		out.Body.Message = "ok"

		return out, nil
	})

	return router, logs
}

func serve(router http.Handler, headers map[string]string) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "203.0.113.9:51234"

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	router.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRequestLogger(t *testing.T) {
	t.Run("logs method path status and operation", func(t *testing.T) {
		router, logs := setupTestAPI(t, http.StatusOK)

		serve(router, nil)

		require.Equal(t, 1, logs.Len())

		entry := logs.All()[0]
		fields := entry.ContextMap()

		assert.Equal(t, zapcore.InfoLevel, entry.Level)
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/test", fields["path"])
		assert.EqualValues(t, http.StatusOK, fields["status"])
		assert.Equal(t, "test-op", fields["operation"])
		assert.NotEmpty(t, fields["request_id"])
	})

	t.Run("logs server errors at error level", func(t *testing.T) {
		router, logs := setupTestAPI(t, http.StatusInternalServerError)

		serve(router, nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
	})

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "single X-Forwarded-For", headers: map[string]string{"X-Forwarded-For": "192.168.1.1"}, want: "192.168.1.1"},
		{name: "first of many X-Forwarded-For", headers: map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1, 172.16.0.1"}, want: "192.168.1.1"},
		{name: "X-Real-IP when X-Forwarded-For is absent", headers: map[string]string{"X-Real-IP": "10.0.0.1"}, want: "10.0.0.1"},
		{name: "remote address without port", headers: nil, want: "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run("client ip from "+tt.name, func(t *testing.T) {
			router, logs := setupTestAPI(t, http.StatusOK)

			serve(router, tt.headers)

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.want, logs.All()[0].ContextMap()["client_ip"])
		})
	}
}
