package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
	"github.com/hermannafesehbuma/khalifa-auto/internal/mailer"
)

// --- Mock Order Repository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, page, perPage int) ([]domain.Order, int, error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

// --- Mock Vehicle Repository ---

type mockVehicleRepository struct {
	mock.Mock
}

func (m *mockVehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *mockVehicleRepository) List(ctx context.Context, filter domain.VehicleFilter) ([]domain.Vehicle, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Vehicle), args.Int(1), args.Error(2)
}

// --- Mock Sender ---

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg *mailer.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

// --- Mock Event Publisher ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockEvents) PublishLeadSubmitted(ctx context.Context, l *domain.Lead) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTemplates(t *testing.T) *mailer.Templates {
	t.Helper()
	tpl, err := mailer.NewTemplates(mailer.Dealership{Name: "Khalifa Auto", Phone: "(713) 555-0100"})
	require.NoError(t, err)
	return tpl
}

var testEmail = EmailConfig{From: "Khalifa Auto <orders@khalifa-auto.com>", AdminAddress: "sales@khalifa-auto.com"}

func sentTo(addr string) any {
	return mock.MatchedBy(func(msg *mailer.Message) bool {
		return len(msg.To) == 1 && msg.To[0] == addr
	})
}
