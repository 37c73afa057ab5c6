package httpclient

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Redacted replaces secrets in logged URLs.
const Redacted = "redacted"

type traceTransport struct {
	base http.RoundTripper
	name string
}

// NewTraceClient returns an HTTP client that logs each outbound request at
// trace level with its secrets redacted.
func NewTraceClient(name string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &traceTransport{name: name},
	}
}

func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	target := RedactURL(req.URL)
	start := time.Now()

	resp, err := base.RoundTrip(req)
	event := log.Trace().
		Str("client", t.name).
		Str("method", req.Method).
		Str("url", target).
		Dur("duration", time.Since(start))
	if err != nil {
		event.Err(err).Msg("HTTP request failed")
		return nil, err
	}
	event.Int("status", resp.StatusCode).Msg("HTTP request")
	return resp, nil
}

// RedactURL renders u for logging. Sensitive query values and the token
// segment of webhook paths (/webhooks/{id}/{token}) are replaced.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	copyURL := *u
	copyURL.User = nil

	segments := strings.Split(copyURL.Path, "/")
	for i, seg := range segments {
		if seg == "webhooks" && i+2 < len(segments) && segments[i+2] != "" {
			segments[i+2] = Redacted
		}
	}
	copyURL.Path = strings.Join(segments, "/")
	copyURL.RawPath = ""

	if copyURL.RawQuery != "" {
		q := copyURL.Query()
		for key := range q {
			if isSensitiveQueryKey(key) {
				q.Set(key, Redacted)
			}
		}
		copyURL.RawQuery = q.Encode()
	}
	return copyURL.String()
}

func isSensitiveQueryKey(key string) bool {
	switch strings.ToLower(key) {
	case "apikey", "api_key", "api-key", "key", "token", "access_token", "secret", "signature", "sig":
		return true
	default:
		return false
	}
}
