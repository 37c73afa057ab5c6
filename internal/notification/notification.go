package notification

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/schoolrecords/schoolrecords/internal/config"
	"github.com/schoolrecords/schoolrecords/internal/web/events"
)

const (
	queueSize   = 100
	sendTimeout = 30 * time.Second
)

// Event is a record change handed to providers.
type Event struct {
	Type      events.EventType
	Data      any
	Timestamp time.Time
}

// Title is the human-readable name of the event type.
func (e Event) Title() string {
	switch e.Type {
	case events.EventStudentAdded:
		return "Student added"
	case events.EventStudentDeleted:
		return "Student deleted"
	case events.EventMarkAdded:
		return "Mark recorded"
	case events.EventAttendanceMarked:
		return "Attendance marked"
	case events.EventFeeCreated:
		return "Fee account opened"
	case events.EventPaymentRecorded:
		return "Payment recorded"
	case events.EventRecordAdded:
		return "Record added"
	default:
		return string(e.Type)
	}
}

// Provider is the interface for notification providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Send sends a notification
	Send(ctx context.Context, event Event) error
}

// Manager queues record events and dispatches them to every provider from a
// single goroutine, so a slow endpoint never blocks a request.
type Manager struct {
	providers []Provider
	allowed   map[events.EventType]bool
	mu        sync.Mutex
	events    chan Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
	running   bool
}

// NewManager creates a manager for providers. A non-empty only list limits
// the event types that are forwarded.
func NewManager(only []events.EventType, providers ...Provider) *Manager {
	m := &Manager{
		providers: providers,
		events:    make(chan Event, queueSize),
		stopChan:  make(chan struct{}),
	}
	if len(only) > 0 {
		m.allowed = make(map[events.EventType]bool, len(only))
		for _, t := range only {
			m.allowed[t] = true
		}
	}
	return m
}

// FromConfig builds the providers cfg names. It returns nil when no target
// is configured.
func FromConfig(cfg config.NotifyConfig) (*Manager, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	var providers []Provider
	if cfg.WebhookURL != "" {
		p, err := NewWebhookProvider(WebhookConfig{URL: cfg.WebhookURL, Body: cfg.WebhookBody})
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if cfg.DiscordURL != "" {
		providers = append(providers, NewDiscordProvider(DiscordConfig{
			WebhookURL: cfg.DiscordURL,
			Username:   cfg.DiscordUsername,
		}))
	}

	only := make([]events.EventType, 0, len(cfg.Events))
	for _, name := range cfg.Events {
		only = append(only, events.EventType(name))
	}
	return NewManager(only, providers...), nil
}

// Start starts the notification dispatcher
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Notification dispatcher panicked")
			}
		}()
		m.dispatcher()
	})
	log.Info().Int("providers", len(m.providers)).Msg("Notification manager started")
}

// Stop stops the dispatcher after it has sent the events already queued.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopChan)
	m.wg.Wait()

	// Recreate stopChan for potential restart
	m.stopChan = make(chan struct{})

	log.Info().Msg("Notification manager stopped")
}

// Publish queues a record event. It never blocks: when the queue is full
// the event is dropped.
func (m *Manager) Publish(eventType events.EventType, data any) {
	if m.allowed != nil && !m.allowed[eventType] {
		return
	}
	event := Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
	select {
	case m.events <- event:
	default:
		log.Warn().Str("type", string(eventType)).Msg("Notification queue full, dropping event")
	}
}

// dispatcher processes events and sends notifications
func (m *Manager) dispatcher() {
	for {
		select {
		case <-m.stopChan:
			for {
				select {
				case event := <-m.events:
					m.dispatch(event)
				default:
					return
				}
			}
		case event := <-m.events:
			m.dispatch(event)
		}
	}
}

// dispatch sends an event to all providers
func (m *Manager) dispatch(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	for _, provider := range m.providers {
		if err := provider.Send(ctx, event); err != nil {
			log.Error().
				Err(err).
				Str("provider", provider.Name()).
				Str("event", string(event.Type)).
				Msg("Failed to send notification")
			continue
		}
		log.Debug().
			Str("provider", provider.Name()).
			Str("event", string(event.Type)).
			Msg("Notification sent")
	}
}
