package httpclient

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedactURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://discord.com/api/webhooks/123/abcDEF":           "https://discord.com/api/webhooks/123/redacted",
		"https://hooks.example.com/school?token=s3cret&school=1": "https://hooks.example.com/school?school=1&token=redacted",
		"https://user:pw@hooks.example.com/in":                   "https://hooks.example.com/in",
		"https://hooks.example.com/webhooks/7":                   "https://hooks.example.com/webhooks/7",
		"http://127.0.0.1:8080/notify":                           "http://127.0.0.1:8080/notify",
	}
	for raw, want := range cases {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		require.Equal(t, want, RedactURL(u), raw)
	}
	require.Empty(t, RedactURL(nil))
}

func TestTraceClientPassesResponsesThrough(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	client := NewTraceClient("test", 5*time.Second)
	resp, err := client.Get(srv.URL + "/api/webhooks/1/token")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	srv.Close()
	_, err = client.Get(srv.URL)
	require.Error(t, err)
}
