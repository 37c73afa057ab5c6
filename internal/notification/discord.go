package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/schoolrecords/schoolrecords/internal/httpclient"
	"github.com/schoolrecords/schoolrecords/internal/web/events"
)

const defaultDiscordUsername = "School Records"

// DiscordConfig holds Discord webhook configuration
type DiscordConfig struct {
	WebhookURL string
	Username   string // Bot username (optional)
	AvatarURL  string // Bot avatar URL (optional)
}

// DiscordProvider sends notifications via Discord webhooks
type DiscordProvider struct {
	config DiscordConfig
	client *http.Client
}

// NewDiscordProvider creates a new Discord notification provider
func NewDiscordProvider(config DiscordConfig) *DiscordProvider {
	if config.Username == "" {
		config.Username = defaultDiscordUsername
	}
	return &DiscordProvider{
		config: config,
		client: httpclient.NewTraceClient("discord", sendTimeout),
	}
}

// Name returns the provider name
func (d *DiscordProvider) Name() string {
	return "discord"
}

// Send sends a notification to Discord
func (d *DiscordProvider) Send(ctx context.Context, event Event) error {
	embed, err := d.buildEmbed(event)
	if err != nil {
		return err
	}

	payload := discordWebhookPayload{
		Username:  d.config.Username,
		AvatarURL: d.config.AvatarURL,
		Embeds:    []discordEmbed{embed},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return deliver(ctx, d.client, http.MethodPost, d.config.WebhookURL, header, body)
}

// buildEmbed creates a Discord embed from an event. Each top-level field of
// the event data becomes an inline embed field, in key order.
func (d *DiscordProvider) buildEmbed(event Event) (discordEmbed, error) {
	embed := discordEmbed{
		Title:     event.Title(),
		Color:     colorForEvent(event.Type),
		Timestamp: event.Timestamp.Format(time.RFC3339),
		Footer: &discordEmbedFooter{
			Text: defaultDiscordUsername,
		},
	}

	fields, err := flattenData(event.Data)
	if err != nil {
		return discordEmbed{}, err
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		embed.Fields = append(embed.Fields, discordEmbedField{Name: k, Value: fields[k], Inline: true})
	}
	return embed, nil
}

// flattenData renders the top level of data, as seen through its JSON form.
func flattenData(data any) (map[string]string, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		// Not an object: show it whole.
		return map[string]string{"value": string(raw)}, nil
	}

	out := make(map[string]string, len(top))
	for k, v := range top {
		var s string
		if json.Unmarshal(v, &s) == nil {
			out[k] = s
			continue
		}
		out[k] = string(v)
	}
	return out, nil
}

// colorForEvent returns a color based on event type
func colorForEvent(eventType events.EventType) int {
	switch eventType {
	case events.EventPaymentRecorded, events.EventFeeCreated:
		return 0x00FF00 // Green
	case events.EventStudentDeleted:
		return 0xFF0000 // Red
	case events.EventAttendanceMarked, events.EventMarkAdded:
		return 0xFFFF00 // Yellow
	case events.EventStudentAdded, events.EventRecordAdded:
		return 0x0099FF // Blue
	default:
		return 0x808080 // Gray
	}
}

// Discord webhook payload structures
type discordWebhookPayload struct {
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Content   string         `json:"content,omitempty"`
	Embeds    []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}
