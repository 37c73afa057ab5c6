package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/schoolrecords/schoolrecords/internal/httpclient"
)

// WebhookConfig holds generic webhook configuration
type WebhookConfig struct {
	URL         string
	Method      string            // HTTP method (POST, PUT, etc.)
	Body        string            // Template for request body
	Headers     map[string]string // Custom headers
	ContentType string            // Content-Type header
}

// WebhookProvider sends notifications via generic HTTP webhooks
type WebhookProvider struct {
	config WebhookConfig
	body   *template.Template
	client *http.Client
}

// NewWebhookProvider creates a new generic webhook notification provider.
// It fails when the body template does not parse.
func NewWebhookProvider(config WebhookConfig) (*WebhookProvider, error) {
	if config.Method == "" {
		config.Method = http.MethodPost
	}
	if config.ContentType == "" {
		config.ContentType = "application/json"
	}
	if config.Body == "" {
		config.Body = DefaultWebhookBody
	}

	tmpl, err := template.New("webhook").Parse(config.Body)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook body template: %w", err)
	}

	return &WebhookProvider{
		config: config,
		body:   tmpl,
		client: httpclient.NewTraceClient("webhook", sendTimeout),
	}, nil
}

// Name returns the provider name
func (w *WebhookProvider) Name() string {
	return "webhook"
}

// webhookTemplateData holds the data available for template rendering
type webhookTemplateData struct {
	Type      string
	Title     string
	Timestamp string
	DataJSON  string
}

// Send sends a notification via the webhook
func (w *WebhookProvider) Send(ctx context.Context, event Event) error {
	body, err := w.renderBody(event)
	if err != nil {
		return fmt.Errorf("failed to render body template: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", w.config.ContentType)
	for key, value := range w.config.Headers {
		header.Set(key, value)
	}
	return deliver(ctx, w.client, w.config.Method, w.config.URL, header, body)
}

// replySnippetLimit bounds how much of a rejecting endpoint's reply is kept.
const replySnippetLimit = 512

// DeliveryError reports an endpoint that answered a notification with a
// non-2xx status.
type DeliveryError struct {
	Status int
	Reply  string
}

func (e *DeliveryError) Error() string {
	if e.Reply == "" {
		return fmt.Sprintf("endpoint answered %d", e.Status)
	}
	return fmt.Sprintf("endpoint answered %d: %s", e.Status, e.Reply)
}

// deliver sends one notification body. The reply is always drained so the
// connection can be reused.
func deliver(ctx context.Context, client *http.Client, method, target string, header http.Header, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header = header

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notification delivery failed: %w", err)
	}
	defer resp.Body.Close()

	reply, _ := io.ReadAll(io.LimitReader(resp.Body, replySnippetLimit))
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode/100 != 2 {
		return &DeliveryError{Status: resp.StatusCode, Reply: strings.TrimSpace(string(reply))}
	}
	return nil
}

// renderBody renders the body template with event data
func (w *WebhookProvider) renderBody(event Event) ([]byte, error) {
	dataJSON := []byte("null")
	if event.Data != nil {
		var err error
		if dataJSON, err = json.Marshal(event.Data); err != nil {
			return nil, fmt.Errorf("failed to marshal event data: %w", err)
		}
	}

	data := webhookTemplateData{
		Type:      string(event.Type),
		Title:     event.Title(),
		Timestamp: event.Timestamp.Format(time.RFC3339),
		DataJSON:  string(dataJSON),
	}

	var buf bytes.Buffer
	if err := w.body.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultWebhookBody is the body template used when none is configured.
const DefaultWebhookBody = `{
  "event": "{{.Type}}",
  "title": "{{.Title}}",
  "timestamp": "{{.Timestamp}}",
  "data": {{.DataJSON}}
}`
