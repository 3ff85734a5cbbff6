/*
Package events publishes domain events to a message broker.

PURPOSE:
  Other services (kitchen displays, accounting exports) learn about new
  payments and freshly generated reports without polling the API. The HTTP
  layer publishes after the write has succeeded; a publish failure is logged
  and never fails the request.

ROUTING KEYS:
  report.generated   a report was inserted or refreshed
  payment.created    a table was settled

IMPLEMENTATIONS:
  - Noop: used when no broker is configured
  - AMQP: RabbitMQ topic exchange
  - Recorder: keeps events in memory for tests
*/
package events

import (
	"context"
	"sync"
	"time"
)

const (
	ReportGenerated = "report.generated"
	PaymentCreated  = "payment.created"
)

// Publisher sends a JSON-encodable payload under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// ReportGeneratedEvent is the payload of ReportGenerated.
type ReportGeneratedEvent struct {
	ReportID    string    `json:"reportId"`
	Type        string    `json:"type"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	TotalOrders int       `json:"totalOrders"`
	TotalSales  float64   `json:"totalSales"`
}

// PaymentCreatedEvent is the payload of PaymentCreated.
type PaymentCreatedEvent struct {
	PaymentID     string   `json:"paymentId"`
	TableID       string   `json:"tableId"`
	RelatedOrders []string `json:"relatedOrders"`
	TotalAmount   float64  `json:"totalAmount"`
	Method        string   `json:"paymentMethod"`
}

// =============================================================================
// NOOP
// =============================================================================

type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close() error                               { return nil }

// =============================================================================
// RECORDER
// =============================================================================

// Event is one recorded publication.
type Event struct {
	RoutingKey string
	Payload    any
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, routingKey string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{RoutingKey: routingKey, Payload: payload})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
