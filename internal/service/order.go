package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hermannafesehbuma/khalifa-auto/internal/checkout"
	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
	"github.com/hermannafesehbuma/khalifa-auto/internal/mailer"
	"github.com/hermannafesehbuma/khalifa-auto/internal/repository"
	apperrors "github.com/hermannafesehbuma/khalifa-auto/pkg/errors"
)

// OrderEventPublisher publishes order domain events.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *domain.Order) error
}

// EmailConfig holds the addresses used for transactional email.
type EmailConfig struct {
	From         string
	AdminAddress string
}

// OrderService creates orders from checkout requests and serves the admin
// order views.
type OrderService struct {
	repo      repository.OrderRepository
	sender    mailer.Sender
	templates *mailer.Templates
	events    OrderEventPublisher
	email     EmailConfig
	logger    *slog.Logger
}

var _ checkout.OrderCreator = (*OrderService)(nil)

// NewOrderService creates a new order service.
func NewOrderService(
	repo repository.OrderRepository,
	sender mailer.Sender,
	templates *mailer.Templates,
	events OrderEventPublisher,
	email EmailConfig,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		repo:      repo,
		sender:    sender,
		templates: templates,
		events:    events,
		email:     email,
		logger:    logger,
	}
}

// CreateOrder runs the order pipeline: persist_order, notify_admin,
// notify_customer, publish_event. Only a persist failure fails the call; the
// outcome of every later step is reported in the result.
func (s *OrderService) CreateOrder(ctx context.Context, req *checkout.OrderRequest) (*checkout.OrderResult, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one vehicle")
	}
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("vehicle %d: quantity must be at least 1", line.VehicleID))
		}
	}

	o := newOrder(req)
	if computed := o.CalculateTotal(); !computed.Equal(req.TotalAmount) {
		s.logger.WarnContext(ctx, "order total differs from line items",
			slog.String("order_id", o.ID),
			slog.String("total_amount", req.TotalAmount.String()),
			slog.String("computed_total", computed.String()),
		)
	}

	persist := domain.NewPipelineStep(domain.StepPersistOrder)
	if err := s.repo.Create(ctx, o); err != nil {
		persist.Fail(err.Error())
		recordSteps("order", []domain.PipelineStep{persist})
		return nil, fmt.Errorf("persist order: %w", err)
	}
	persist.Complete()

	steps := []domain.PipelineStep{
		persist,
		s.runStep(ctx, o, domain.StepNotifyAdmin, s.notifyAdmin),
		s.runStep(ctx, o, domain.StepNotifyCustomer, s.notifyCustomer),
		s.runStep(ctx, o, domain.StepPublishEvent, s.events.PublishOrderCreated),
	}
	recordSteps("order", steps)

	attrs := []any{
		slog.String("order_id", o.ID),
		slog.Int("item_count", o.ItemCount()),
		slog.String("total_amount", o.TotalAmount.StringFixed(2)),
	}
	if failed := domain.FailedSteps(steps); len(failed) > 0 {
		s.logger.WarnContext(ctx, "order created with failed steps", append(attrs, slog.Any("failed_steps", failed))...)
	} else {
		s.logger.InfoContext(ctx, "order created", attrs...)
	}

	return &checkout.OrderResult{OrderID: o.ID, Steps: steps}, nil
}

func (s *OrderService) runStep(ctx context.Context, o *domain.Order, name string, fn func(context.Context, *domain.Order) error) domain.PipelineStep {
	step := domain.NewPipelineStep(name)
	if err := fn(ctx, o); err != nil {
		step.Fail(err.Error())
		s.logger.ErrorContext(ctx, "order pipeline step failed",
			slog.String("order_id", o.ID),
			slog.String("step", name),
			slog.String("error", err.Error()),
		)
		return step
	}
	step.Complete()
	return step
}

func (s *OrderService) notifyAdmin(ctx context.Context, o *domain.Order) error {
	content, err := s.templates.OrderAdmin(o)
	if err != nil {
		return err
	}
	msg := content.Message(s.email.From, s.email.AdminAddress)
	msg.ReplyTo = o.Customer.Email
	msg.Tags = map[string]string{"type": "order_admin"}

	id, err := s.sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("send admin notification: %w", err)
	}
	s.logger.DebugContext(ctx, "admin order notification sent", slog.String("message_id", id))
	return nil
}

func (s *OrderService) notifyCustomer(ctx context.Context, o *domain.Order) error {
	content, err := s.templates.OrderCustomer(o)
	if err != nil {
		return err
	}
	msg := content.Message(s.email.From, o.Customer.Email)
	msg.ReplyTo = s.email.AdminAddress
	msg.Tags = map[string]string{"type": "order_customer"}

	id, err := s.sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("send customer confirmation: %w", err)
	}
	s.logger.DebugContext(ctx, "customer order confirmation sent", slog.String("message_id", id))
	return nil
}

// GetOrder retrieves an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListOrders returns a page of orders, newest first, and the total count.
func (s *OrderService) ListOrders(ctx context.Context, page, perPage int) ([]domain.Order, int, error) {
	orders, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func newOrder(req *checkout.OrderRequest) *domain.Order {
	now := time.Now().UTC()
	o := &domain.Order{
		ID:            uuid.New().String(),
		Customer:      req.Customer,
		PaymentMethod: req.PaymentMethod,
		Status:        domain.OrderStatusPending,
		TotalAmount:   req.TotalAmount,
		Items:         make([]domain.OrderItem, len(req.Items)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i, line := range req.Items {
		desc := req.Descriptions[line.VehicleID]
		if desc == "" {
			desc = fmt.Sprintf("Vehicle %d", line.VehicleID)
		}
		o.Items[i] = domain.OrderItem{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			VehicleID:   line.VehicleID,
			Description: desc,
			Quantity:    line.Quantity,
			Price:       line.Price,
		}
	}
	return o
}
