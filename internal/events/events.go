package events

import (
	"context"
	"sync"
	"time"

	"lead-market-api/internal/models"
)

// EventType represents the type of event.
type EventType string

const (
	// EventLeadScored is emitted when a lead is ingested and scored
	EventLeadScored EventType = "lead.scored"
	// EventLeadDelivered is emitted after a delivery attempt completes
	EventLeadDelivered EventType = "lead.delivered"
	// EventOutcomeRecorded is emitted when a buyer outcome is recorded
	EventOutcomeRecorded EventType = "outcome.recorded"
	// EventAppointmentBooked is emitted when an appointment is booked
	EventAppointmentBooked EventType = "appointment.booked"
	// EventAppointmentCancelled is emitted when an appointment is cancelled
	EventAppointmentCancelled EventType = "appointment.cancelled"
)

// Event represents an event in the system.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      interface{}
}

// LeadScoredData contains data for lead scored events.
type LeadScoredData struct {
	Lead        models.Lead
	Destination string
}

// LeadDeliveredData contains data for delivery events.
type LeadDeliveredData struct {
	LeadID string
	Result models.DeliveryResult
}

// OutcomeRecordedData contains data for outcome events.
type OutcomeRecordedData struct {
	BuyerID string
	LeadID  string
	Outcome models.Outcome
}

// AppointmentData contains data for booking lifecycle events.
type AppointmentData struct {
	Appointment models.Appointment
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager manages event handlers and event publishing.
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	enabled  bool
}

// NewManager creates a new event manager.
func NewManager(enabled bool) *Manager {
	return &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
	}
}

// Subscribe subscribes a handler to a specific event type.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// Publish publishes an event to all subscribed handlers. Handlers run
// asynchronously so publishing never blocks the request path.
func (m *Manager) Publish(ctx context.Context, eventType EventType, data interface{}) {
	if !m.enabled {
		return
	}

	m.mu.RLock()
	handlers := m.handlers[eventType]
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	for _, handler := range handlers {
		go func(h Handler) {
			if err := h(context.WithoutCancel(ctx), event); err != nil {
				_ = err
			}
		}(handler)
	}
}

// PublishLeadScored publishes a lead scored event.
func (m *Manager) PublishLeadScored(ctx context.Context, lead models.Lead, destination string) {
	m.Publish(ctx, EventLeadScored, LeadScoredData{Lead: lead, Destination: destination})
}

// PublishLeadDelivered publishes a delivery result event.
func (m *Manager) PublishLeadDelivered(ctx context.Context, leadID string, result models.DeliveryResult) {
	m.Publish(ctx, EventLeadDelivered, LeadDeliveredData{LeadID: leadID, Result: result})
}

// PublishOutcomeRecorded publishes an outcome recorded event.
func (m *Manager) PublishOutcomeRecorded(ctx context.Context, buyerID, leadID string, outcome models.Outcome) {
	m.Publish(ctx, EventOutcomeRecorded, OutcomeRecordedData{BuyerID: buyerID, LeadID: leadID, Outcome: outcome})
}

// PublishAppointmentBooked publishes an appointment booked event.
func (m *Manager) PublishAppointmentBooked(ctx context.Context, a models.Appointment) {
	m.Publish(ctx, EventAppointmentBooked, AppointmentData{Appointment: a})
}

// PublishAppointmentCancelled publishes an appointment cancelled event.
func (m *Manager) PublishAppointmentCancelled(ctx context.Context, a models.Appointment) {
	m.Publish(ctx, EventAppointmentCancelled, AppointmentData{Appointment: a})
}

// Shutdown shuts down the event manager.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
}
