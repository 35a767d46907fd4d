package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/cache"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

// --- Mock Repositories ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Place(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) MarkPaid(ctx context.Context, id string, at time.Time) (*domain.Order, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) MarkDelivered(ctx context.Context, id string, at time.Time) (*domain.Order, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) AddRefund(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, id, amount, at)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockOrderRepository) ListSince(ctx context.Context, since time.Time) ([]domain.OrderSummary, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]domain.OrderSummary), args.Error(1)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Count(ctx context.Context, keyword string) (int, error) {
	args := m.Called(ctx, keyword)
	return args.Int(0), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetDetail(ctx context.Context, id string) (*domain.ProductDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductDetail), args.Error(1)
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductRepository) ReorderMedia(ctx context.Context, productID string, mediaIDs []string) ([]domain.ProductMedia, error) {
	args := m.Called(ctx, productID, mediaIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductMedia), args.Error(1)
}

func (m *mockProductRepository) CountLowStock(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Exists(ctx context.Context, productID, userID string) (bool, error) {
	args := m.Called(ctx, productID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) (*domain.Product, error) {
	args := m.Called(ctx, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

// --- Test Helpers ---

const (
	testSecret  = "handler-test-secret"
	ownerID     = "11111111-1111-4111-8111-111111111111"
	strangerID  = "22222222-2222-4222-8222-222222222222"
	adminID     = "33333333-3333-4333-8333-333333333333"
	productID   = "550e8400-e29b-41d4-a716-446655440020"
	productID2  = "550e8400-e29b-41d4-a716-446655440021"
	orderID     = "550e8400-e29b-41d4-a716-446655440001"
	mediaID     = "550e8400-e29b-41d4-a716-446655440030"
	mediaID2    = "550e8400-e29b-41d4-a716-446655440031"
	missingUUID = "550e8400-e29b-41d4-a716-4466554400ff"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testEnv struct {
	router   http.Handler
	products *mockProductRepository
	reviews  *mockReviewRepository
	orders   *mockOrderRepository
	jwt      *auth.JWTManager
}

// newTestEnv builds the production router over real services backed by
// mocked repositories, a no-op cache and a producer that drops events.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := testLogger()

	env := &testEnv{
		products: new(mockProductRepository),
		reviews:  new(mockReviewRepository),
		orders:   new(mockOrderRepository),
		jwt:      auth.NewJWTManager(testSecret, time.Hour),
	}

	productCache := cache.NoopProductCache{}
	producer := event.NewProducer(nil, logger)
	limiter := middleware.NewRateLimiter(1000, 1000, logger)
	t.Cleanup(limiter.Close)

	env.router = NewRouter(RouterConfig{
		Catalog:       service.NewCatalogService(env.products, productCache, logger),
		Reviews:       service.NewReviewService(env.reviews, env.products, productCache, producer, logger),
		Orders:        service.NewOrderService(env.orders, productCache, producer, logger),
		Analytics:     service.NewAnalyticsService(env.orders, env.products, logger),
		Health:        health.NewHandler(),
		ValidateToken: env.jwt.Validator(),
		RateLimiter:   limiter,
		CORSOrigins:   []string{"*"},
		PprofCIDRs:    []string{"127.0.0.1/32"},
		ProductMaxAge: time.Minute,
	}, logger)
	return env
}

func (e *testEnv) token(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := e.jwt.GenerateAccessToken(userID, "ann@example.com", "Ann", role)
	require.NoError(t, err)
	return token
}

// do sends a request through the router. A non-empty token is sent as a
// bearer credential; a non-nil body is sent as JSON.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage         `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleOrder(userID *string) *domain.Order {
	pid := productID
	oid := orderID
	return &domain.Order{
		ID:            orderID,
		UserID:        userID,
		PaymentMethod: "PayPal",
		TaxPrice:      dec("2.00"),
		ShippingPrice: dec("5.00"),
		TotalPrice:    dec("27.00"),
		RefundTotal:   decimal.Zero,
		CreatedAt:     time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Items: []domain.OrderItem{
			{ID: "item-1", OrderID: &oid, ProductID: &pid, Name: "Mouse", Qty: 2, Price: dec("10.00")},
		},
		ShippingAddress: &domain.ShippingAddress{ID: "addr-1", OrderID: orderID, City: "Oslo", ShippingPrice: dec("5.00")},
	}
}

func jsonDecode(rec *httptest.ResponseRecorder, dst any) error {
	return json.NewDecoder(rec.Body).Decode(dst)
}
