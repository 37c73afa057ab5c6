package middleware

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

// captureLog redirects the global logger into a buffer for the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	saved := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = saved })
	return &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines[len(lines)-1])
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestAllowSubnet(t *testing.T) {
	_, allowed, err := net.ParseCIDR("192.168.1.0/24")
	require.NoError(t, err)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	cases := map[string]struct {
		subnet *net.IPNet
		remote string
		want   int
	}{
		"unrestricted":   {nil, "10.0.0.1:4000", http.StatusNoContent},
		"inside subnet":  {allowed, "192.168.1.20:4000", http.StatusNoContent},
		"outside subnet": {allowed, "10.0.0.1:4000", http.StatusForbidden},
		"bare ip":        {allowed, "192.168.1.20", http.StatusNoContent},
		"garbage":        {allowed, "somewhere", http.StatusForbidden},
	}
	for name, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		req.RemoteAddr = tc.remote
		rec := httptest.NewRecorder()

		AllowSubnet(tc.subnet)(ok).ServeHTTP(rec, req)
		require.Equal(t, tc.want, rec.Code, name)
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	captureLog(t)

	rec := httptest.NewRecorder()
	Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, "short and stout", rec.Body.String())
}

func TestLoggerUsesRoutePatternAndStatusLevel(t *testing.T) {
	buf := captureLog(t)

	r := chi.NewRouter()
	r.Use(Logger)
	r.Post("/api/fees/{id}/payments", func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "id") {
		case "7":
			w.WriteHeader(http.StatusCreated)
		case "8":
			http.Error(w, "overpayment", http.StatusConflict)
		default:
			http.Error(w, "store down", http.StatusServiceUnavailable)
		}
	})

	cases := []struct {
		path   string
		status int
		level string
	}{
		{"/api/fees/7/payments", http.StatusCreated, "debug"},
		{"/api/fees/8/payments", http.StatusConflict, "warn"},
		{"/api/fees/9/payments", http.StatusServiceUnavailable, "error"},
	}
	for _, tc := range cases {
		buf.Reset()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.path, nil))
		require.Equal(t, tc.status, rec.Code, tc.path)

		entry := lastEntry(t, buf)
		require.Equal(t, tc.level, entry["level"], tc.path)
		require.Equal(t, "/api/fees/{id}/payments", entry["route"], tc.path)
		require.EqualValues(t, tc.status, entry["status"], tc.path)
	}
}

func TestLoggerFallsBackToPathWithoutRouter(t *testing.T) {
	buf := captureLog(t)

	Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entry := lastEntry(t, buf)
	require.Equal(t, "debug", entry["level"])
	require.Equal(t, "/healthz", entry["route"])
	require.EqualValues(t, http.StatusOK, entry["status"])
}
