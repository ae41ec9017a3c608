package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
	pkgkafka "github.com/hermannafesehbuma/khalifa-auto/pkg/kafka"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/logger"
)

// Kafka topics for storefront domain events.
var (
	TopicOrderCreated  = pkgkafka.Topic("order", "created")
	TopicLeadSubmitted = pkgkafka.Topic("lead", "submitted")
)

// Aggregate type constants.
const (
	AggregateTypeOrder = "order"
	AggregateTypeLead  = "lead"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// Publisher sends an event to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// OrderCreatedItem is one line of an order.created payload.
type OrderCreatedItem struct {
	VehicleID int64           `json:"vehicle_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID       string             `json:"order_id"`
	CustomerEmail string             `json:"customer_email"`
	PaymentMethod string             `json:"payment_method"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Items         []OrderCreatedItem `json:"items"`
}

// LeadSubmittedData is the payload for a lead.submitted event.
type LeadSubmittedData struct {
	LeadID    string `json:"lead_id"`
	Kind      string `json:"kind"`
	Email     string `json:"email"`
	VehicleID *int64 `json:"vehicle_id,omitempty"`
}

// Producer publishes storefront domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	data := OrderCreatedData{
		OrderID:       o.ID,
		CustomerEmail: o.Customer.Email,
		PaymentMethod: o.PaymentMethod,
		TotalAmount:   o.TotalAmount,
		Items:         make([]OrderCreatedItem, len(o.Items)),
	}
	for i, item := range o.Items {
		data.Items[i] = OrderCreatedItem{VehicleID: item.VehicleID, Quantity: item.Quantity, Price: item.Price}
	}

	return p.publish(ctx, TopicOrderCreated, o.ID, AggregateTypeOrder, data)
}

// PublishLeadSubmitted publishes a lead.submitted event.
func (p *Producer) PublishLeadSubmitted(ctx context.Context, l *domain.Lead) error {
	data := LeadSubmittedData{
		LeadID:    l.ID,
		Kind:      l.Kind,
		Email:     l.Email,
		VehicleID: l.VehicleID,
	}

	evt, err := p.newEvent(ctx, TopicLeadSubmitted, l.ID, AggregateTypeLead, data)
	if err != nil {
		return err
	}
	if l.VehicleID != nil {
		evt.WithMetadata("vehicle_id", strconv.FormatInt(*l.VehicleID, 10))
	}
	return p.send(ctx, TopicLeadSubmitted, evt)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := p.newEvent(ctx, topic, aggregateID, aggregateType, data)
	if err != nil {
		return err
	}
	return p.send(ctx, topic, evt)
}

func (p *Producer) newEvent(ctx context.Context, topic, aggregateID, aggregateType string, data any) (*pkgkafka.Event, error) {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return nil, fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	return evt, nil
}

func (p *Producer) send(ctx context.Context, topic string, evt *pkgkafka.Event) error {
	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", evt.AggregateID),
	)
	return nil
}

// Discard is a Publisher that drops every event. It is used when Kafka is
// disabled.
type Discard struct {
	Logger *slog.Logger
}

func (d Discard) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	if d.Logger != nil {
		d.Logger.DebugContext(ctx, "event discarded, kafka disabled",
			slog.String("topic", topic),
			slog.String("event_id", event.EventID),
		)
	}
	return nil
}
