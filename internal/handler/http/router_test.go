package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hermannafesehbuma/khalifa-auto/internal/cart"
	"github.com/hermannafesehbuma/khalifa-auto/internal/checkout"
	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
	"github.com/hermannafesehbuma/khalifa-auto/internal/event"
	"github.com/hermannafesehbuma/khalifa-auto/internal/mailer"
	"github.com/hermannafesehbuma/khalifa-auto/internal/mailer/logsender"
	"github.com/hermannafesehbuma/khalifa-auto/internal/service"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/health"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/httputil"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/middleware"
)

// ============================================================================
// Mock repositories
// ============================================================================

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

// ============================================================================
// Test helpers
// ============================================================================

var (
	testSessionSecret = []byte("test-session-secret-0123456789abcdef")
	testAdminSecret   = []byte("test-admin-secret-0123456789abcdefgh")
)

const (
	testAdminIssuer = "khalifa-auto"
	testAdminUserID = "admin-1"
)

type testEnv struct {
	router   http.Handler
	vehicles *mockVehicleRepository
	orders   *mockOrderRepository
	storage  *cart.MemoryStorage
	logs     *bytes.Buffer
}

func testLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := testLogger(logs)

	vehicles := &mockVehicleRepository{}
	orders := &mockOrderRepository{}
	storage := cart.NewMemoryStorage()

	templates, err := mailer.NewTemplates(mailer.Dealership{Name: "Khalifa Auto", Phone: "(713) 555-0100"})
	require.NoError(t, err)
	sender := logsender.New(logger)
	events := event.NewProducer(event.Discard{Logger: logger}, logger)
	email := service.EmailConfig{From: "Khalifa Auto <orders@khalifa-auto.com>", AdminAddress: "sales@khalifa-auto.com"}

	orderService := service.NewOrderService(orders, sender, templates, events, email, logger)
	cartService := service.NewCartService(storage, vehicles, logger)

	router := NewRouter(RouterConfig{
		Vehicles:    service.NewVehicleService(vehicles, logger),
		Carts:       cartService,
		Checkout:    checkout.NewAdapter(orderService, checkout.NewMemoryIdempotencyStore(time.Hour), logger),
		Leads:       service.NewLeadService(vehicles, sender, templates, events, email, logger),
		Orders:      orderService,
		Health:      health.NewHandler(),
		Logger:      logger,
		Session:     SessionConfig{Secret: testSessionSecret, TTL: time.Hour},
		CORS:        middleware.DefaultCORSConfig(),
		AdminAuth:   middleware.JWTValidator(testAdminSecret, testAdminIssuer),
		AdminUserID: testAdminUserID,
	})

	return &testEnv{router: router, vehicles: vehicles, orders: orders, storage: storage, logs: logs}
}

type request struct {
	method  string
	path    string
	body    any
	cookies []*http.Cookie
	headers map[string]string
}

func (e *testEnv) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}

	r := httptest.NewRequest(req.method, req.path, body)
	if req.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	return rec
}

// newSession opens a cart session and returns its cookie.
func (e *testEnv) newSession(t *testing.T) *http.Cookie {
	t.Helper()
	rec := e.do(t, request{method: http.MethodGet, path: "/api/v1/cart"})
	require.Equal(t, http.StatusOK, rec.Code)
	c := sessionCookie(rec)
	require.NotNil(t, c)
	return c
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

// decodeResponse reads the response body into the standard Response struct.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func decodeJSON(rec *httptest.ResponseRecorder, dst any) error {
	return json.NewDecoder(rec.Body).Decode(dst)
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return data
}

func sampleVehicle(id int64) *domain.Vehicle {
	return &domain.Vehicle{
		ID:        id,
		Brand:     "Toyota",
		Model:     "Camry",
		Year:      2019,
		Price:     decimal.RequireFromString("18500.00"),
		Mileage:   42000,
		BodyStyle: "sedan",
		Available: true,
		Images:    []string{"https://cdn.example.com/camry-1.jpg"},
	}
}

func sampleSubmission() map[string]any {
	return map[string]any{
		"customer": map[string]any{
			"first_name": "Amina",
			"last_name":  "Khalifa",
			"email":      "amina@example.com",
			"phone":      "+1 (555) 010-2030",
			"address":    "12 Elm Street",
			"city":       "Houston",
			"state":      "TX",
			"zip_code":   "77002",
		},
		"payment_method": "financing",
	}
}

func adminToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := middleware.IssueJWT(testAdminSecret, testAdminIssuer, userID, "", time.Hour)
	require.NoError(t, err)
	return token
}

// ============================================================================
// Health
// ============================================================================

func TestRouter_Liveness(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, request{method: http.MethodGet, path: "/health/live"})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnsupportedMediaType(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader([]byte("vehicle_id=1")))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", resp.Error.Code)
}
