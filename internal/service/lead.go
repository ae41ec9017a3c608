package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
	"github.com/hermannafesehbuma/khalifa-auto/internal/mailer"
	"github.com/hermannafesehbuma/khalifa-auto/internal/repository"
	apperrors "github.com/hermannafesehbuma/khalifa-auto/pkg/errors"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/validator"
)

// LeadEventPublisher publishes lead domain events.
type LeadEventPublisher interface {
	PublishLeadSubmitted(ctx context.Context, l *domain.Lead) error
}

// LeadResult reports the outcome of a lead submission.
type LeadResult struct {
	LeadID string                `json:"lead_id"`
	Steps  []domain.PipelineStep `json:"steps"`
}

// LeadService delivers storefront leads to the dealership. Leads are not
// stored; the dealership email is the record.
type LeadService struct {
	vehicles  repository.VehicleRepository
	sender    mailer.Sender
	templates *mailer.Templates
	events    LeadEventPublisher
	email     EmailConfig
	logger    *slog.Logger
}

// NewLeadService creates a new lead service.
func NewLeadService(
	vehicles repository.VehicleRepository,
	sender mailer.Sender,
	templates *mailer.Templates,
	events LeadEventPublisher,
	email EmailConfig,
	logger *slog.Logger,
) *LeadService {
	return &LeadService{
		vehicles:  vehicles,
		sender:    sender,
		templates: templates,
		events:    events,
		email:     email,
		logger:    logger,
	}
}

// Submit validates a lead and emails it to the dealership. Failing to reach
// the dealership fails the submission; the shopper acknowledgement and the
// event are best effort.
func (s *LeadService) Submit(ctx context.Context, lead *domain.Lead) (*LeadResult, error) {
	if lead == nil {
		return nil, apperrors.InvalidInput("lead is required")
	}
	lead.Kind = strings.TrimSpace(strings.ToLower(lead.Kind))
	if err := validator.Validate(lead); err != nil {
		return nil, err
	}
	if err := validateKind(lead); err != nil {
		return nil, err
	}

	var vehicle *domain.Vehicle
	if lead.VehicleID != nil {
		v, err := s.vehicles.GetByID(ctx, *lead.VehicleID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.InvalidInput(fmt.Sprintf("vehicle %d does not exist", *lead.VehicleID))
			}
			return nil, fmt.Errorf("load lead vehicle: %w", err)
		}
		vehicle = v
	}

	lead.ID = uuid.New().String()
	lead.CreatedAt = time.Now().UTC()

	dealer := domain.NewPipelineStep(domain.StepNotifyDealer)
	if err := s.notifyDealer(ctx, lead, vehicle); err != nil {
		dealer.Fail(err.Error())
		recordSteps("lead", []domain.PipelineStep{dealer})
		s.logger.ErrorContext(ctx, "lead could not be delivered",
			slog.String("lead_id", lead.ID),
			slog.String("kind", lead.Kind),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Upstream("LEAD_NOT_DELIVERED", "your request could not be sent, please try again", err)
	}
	dealer.Complete()

	steps := []domain.PipelineStep{
		dealer,
		s.runStep(ctx, lead, domain.StepNotifyCustomer, func(ctx context.Context) error {
			return s.acknowledge(ctx, lead, vehicle)
		}),
		s.runStep(ctx, lead, domain.StepPublishEvent, func(ctx context.Context) error {
			return s.events.PublishLeadSubmitted(ctx, lead)
		}),
	}
	recordSteps("lead", steps)
	leadsSubmittedTotal.WithLabelValues(lead.Kind).Inc()

	s.logger.InfoContext(ctx, "lead submitted",
		slog.String("lead_id", lead.ID),
		slog.String("kind", lead.Kind),
	)

	return &LeadResult{LeadID: lead.ID, Steps: steps}, nil
}

func validateKind(lead *domain.Lead) error {
	switch lead.Kind {
	case domain.LeadInquiry:
		if lead.VehicleID == nil && strings.TrimSpace(lead.Message) == "" {
			return apperrors.InvalidInput("an inquiry needs a vehicle or a message")
		}
	case domain.LeadFinancing:
		if lead.Financing == nil {
			return apperrors.InvalidInput("financing details are required")
		}
		if lead.Financing.AnnualIncome.IsNegative() || lead.Financing.DownPayment.IsNegative() {
			return apperrors.InvalidInput("financing amounts cannot be negative")
		}
		return validator.Validate(lead.Financing)
	case domain.LeadTradeIn:
		if lead.TradeIn == nil {
			return apperrors.InvalidInput("trade-in vehicle details are required")
		}
		return validator.Validate(lead.TradeIn)
	case domain.LeadContact:
		if strings.TrimSpace(lead.Message) == "" {
			return apperrors.InvalidInput("message is required")
		}
	}
	return nil
}

func (s *LeadService) runStep(ctx context.Context, lead *domain.Lead, name string, fn func(context.Context) error) domain.PipelineStep {
	step := domain.NewPipelineStep(name)
	if err := fn(ctx); err != nil {
		step.Fail(err.Error())
		s.logger.ErrorContext(ctx, "lead pipeline step failed",
			slog.String("lead_id", lead.ID),
			slog.String("step", name),
			slog.String("error", err.Error()),
		)
		return step
	}
	step.Complete()
	return step
}

func (s *LeadService) notifyDealer(ctx context.Context, lead *domain.Lead, v *domain.Vehicle) error {
	content, err := s.templates.LeadDealer(lead, v)
	if err != nil {
		return err
	}
	msg := content.Message(s.email.From, s.email.AdminAddress)
	msg.ReplyTo = lead.Email
	msg.Tags = map[string]string{"type": "lead_" + lead.Kind}

	if _, err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send lead to dealership: %w", err)
	}
	return nil
}

func (s *LeadService) acknowledge(ctx context.Context, lead *domain.Lead, v *domain.Vehicle) error {
	content, err := s.templates.LeadAck(lead, v)
	if err != nil {
		return err
	}
	msg := content.Message(s.email.From, lead.Email)
	msg.ReplyTo = s.email.AdminAddress
	msg.Tags = map[string]string{"type": "lead_ack"}

	if _, err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send lead acknowledgement: %w", err)
	}
	return nil
}
