// Package e2e runs the storefront HTTP API end to end.
//
// The suite starts PostgreSQL with testcontainers-go, builds the application through
// internal/app exactly like cmd/storefront does, and serves it from an httptest.Server.
// The payment gateway is a local fake speaking the Razorpay orders API, and status events
// are captured in memory. Tables are truncated before every test.
package e2e

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abgdnv/stitchnstyle/internal/app"
	"github.com/abgdnv/stitchnstyle/internal/config"
	"github.com/abgdnv/stitchnstyle/internal/customorder"
	"github.com/abgdnv/stitchnstyle/internal/payment"
	"github.com/abgdnv/stitchnstyle/internal/service"
	"github.com/abgdnv/stitchnstyle/pkg/auth"
	pkgconfig "github.com/abgdnv/stitchnstyle/pkg/config"
	"github.com/abgdnv/stitchnstyle/pkg/messaging"
	"github.com/abgdnv/stitchnstyle/pkg/messaging/events"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "STOREFRONT_SKIP_E2E_TESTS"

const (
	tokenSecret = "e2e-token-secret-0123456789abcdef"
	keySecret   = "e2e-gateway-secret"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Kind    string            `json:"kind"`
	Fields  map[string]string `json:"fields"`
	Data    json.RawMessage   `json:"data"`
}

// eventLog captures published status changes.
type eventLog struct {
	mu     sync.Mutex
	events []events.CustomOrderStatusChanged
}

func (l *eventLog) Publish(_ context.Context, event messaging.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := event.(events.CustomOrderStatusChanged); ok {
		l.events = append(l.events, e)
	}
	return nil
}

func (l *eventLog) statuses() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.To)
	}
	return out
}

func (l *eventLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// StorefrontE2ESuite drives the storefront API against PostgreSQL.
type StorefrontE2ESuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	stores      *app.Stores
	gateway     *httptest.Server
	server      *httptest.Server
	events      *eventLog
	signer      *auth.SecretVerifier
	logger      *slog.Logger
	ctx         context.Context
}

// testConfig builds the storefront configuration the suite runs with.
func testConfig(dbURL, gatewayURL string) *config.Storefront {
	var cfg config.Storefront
	cfg.Storage = config.StorageConfig{Backend: config.BackendPostgres, CartBackend: config.BackendPostgres}
	cfg.Database = pkgconfig.DatabaseConfig{URL: dbURL, Timeout: 10 * time.Second, Migrate: true}
	cfg.Auth = pkgconfig.AuthConfig{Mode: pkgconfig.AuthModeSecret, Secret: tokenSecret, Staff: []string{"designer-1"}}
	cfg.Payment = pkgconfig.PaymentConfig{
		Razorpay: pkgconfig.RazorpayConfig{BaseURL: gatewayURL, KeyID: "rzp_e2e", KeySecret: keySecret, Timeout: 5 * time.Second},
		CircuitBreaker: pkgconfig.CircuitBreakerConfig{
			ConsecutiveFailures: 5,
			MinRequests:         10,
			ErrorRatePercent:    50,
			OpenTimeout:         time.Second,
		},
	}
	cfg.Shop = config.ShopConfig{DeliveryFee: "49", Currency: "INR"}
	return &cfg
}

// fakeGateway answers POST /v1/orders like Razorpay does.
func fakeGateway() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/orders" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
			Receipt  string `json:"receipt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payment.GatewayOrder{
			ID: "order_" + req.Receipt[:8], Amount: req.Amount, Currency: req.Currency, Status: "created",
		})
	}))
}

func (s *StorefrontE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgx pool")
	for i := range 10 {
		if err = s.dbPool.Ping(s.ctx); err == nil {
			break
		}
		s.logger.Info("Pinging E2E PostgreSQL database", "attempt", i+1)
		time.Sleep(2 * time.Second)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	s.gateway = fakeGateway()
	cfg := testConfig(connStr, s.gateway.URL)
	require.NoError(s.T(), cfg.Storage.Validate())
	require.NoError(s.T(), cfg.Shop.Validate())

	s.stores, err = app.SetupStores(s.ctx, cfg, s.logger)
	require.NoError(s.T(), err, "Failed to set up stores")

	s.events = &eventLog{}
	s.signer = auth.NewSecretVerifier(tokenSecret)
	deps := app.SetupDependencies(cfg, s.stores, s.events, s.signer, s.gateway.Client(), s.logger)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps, nil))
}

func (s *StorefrontE2ESuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.gateway != nil {
		s.gateway.Close()
	}
	if s.stores != nil {
		s.stores.Close()
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

func (s *StorefrontE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE products, carts, custom_orders")
	require.NoError(s.T(), err, "Failed to truncate tables")
	s.events.reset()
}

// do sends a request as subject (anonymous when empty) and decodes the envelope.
func (s *StorefrontE2ESuite) do(method, path, subject, body string) (int, envelope) {
	t := s.T()
	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		tok, err := jwt.NewBuilder().Subject(subject).Expiration(time.Now().Add(time.Hour)).Build()
		require.NoError(t, err)
		signed, err := s.signer.Sign(tok)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+signed)
	}
	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (s *StorefrontE2ESuite) TestProductsAndCart() {
	t := s.T()

	// given a product created by staff
	code, env := s.do(http.MethodPost, "/api/v1/products", "designer-1",
		`{"name":"Anarkali","price":"1100","category":"Women","sizes":["S","M"],"images":["https://img.example.com/a.jpg"]}`)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var product struct {
		ID      string `json:"id"`
		Version int32  `json:"version"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &product))

	// when a customer tries to create a product
	code, _ = s.do(http.MethodPost, "/api/v1/products", "user-1", `{"name":"x","price":"1","category":"c","sizes":["M"]}`)

	// then
	assert.Equal(t, http.StatusForbidden, code)

	// when the customer adds two of the product
	for range 2 {
		code, env = s.do(http.MethodPost, "/api/v1/cart/items", "user-1", `{"itemId":"`+product.ID+`","size":"M"}`)
		require.Equal(t, http.StatusOK, code, env.Message)
	}
	code, env = s.do(http.MethodGet, "/api/v1/cart/summary", "user-1", "")

	// then
	require.Equal(t, http.StatusOK, code, env.Message)
	var summary struct {
		Count    int    `json:"count"`
		Subtotal string `json:"subtotal"`
		Total    string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, "2200", summary.Subtotal)
	assert.Equal(t, "2249", summary.Total)

	// when the product is deleted
	code, env = s.do(http.MethodDelete, "/api/v1/products/"+product.ID+"?version=1", "designer-1", "")
	require.Equal(t, http.StatusNoContent, code, env.Message)
	code, env = s.do(http.MethodGet, "/api/v1/cart/summary", "user-1", "")

	// then the line is no longer priced but the item count is unchanged
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, "0", summary.Subtotal)
	assert.Equal(t, "0", summary.Total)
}

func (s *StorefrontE2ESuite) TestCustomOrderLifecycle() {
	t := s.T()

	// given a submitted order with a designer's quote
	code, env := s.do(http.MethodPost, "/api/v1/custom-orders", "user-1", `{
		"measurementMode": "standard",
		"size": "L",
		"design": {"style": "Kurta", "fabric": "Linen", "customization": "Side pockets"},
		"referenceImages": ["https://img.example.com/kurta.jpg"]
	}`)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var order customorder.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	base := "/api/v1/custom-orders/" + order.ID.String()

	code, env = s.do(http.MethodPost, base+"/bid", "designer-1", `{"price":"1800.50","estimatedDeliveryDays":10}`)
	require.Equal(t, http.StatusOK, code, env.Message)

	// when the customer accepts and pays online
	code, env = s.do(http.MethodPost, base+"/accept", "user-1",
		`{"addressLine1":"12 MG Road","city":"Bengaluru","state":"KA","postalCode":"560001","phoneNumber":"9876543210"}`)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(http.MethodPost, base+"/payment", "user-1", `{"method":"razorpay"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	var start service.PaymentStart
	require.NoError(t, json.Unmarshal(env.Data, &start))
	require.NotNil(t, start.Gateway)
	assert.Equal(t, int64(180050), start.Gateway.Amount)
	assert.Equal(t, "rzp_e2e", start.KeyID)

	signature := payment.NewSignatureVerifier(keySecret).Sign(start.Gateway.ID, "pay_e2e")
	code, env = s.do(http.MethodPost, base+"/payment/verify", "user-1",
		`{"gatewayOrderId":"`+start.Gateway.ID+`","paymentId":"pay_e2e","signature":"`+signature+`"}`)

	// then
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, customorder.StatusInProgress, order.Status)

	// when the designer ships and delivers
	for _, status := range []string{"shipped", "delivered"} {
		code, env = s.do(http.MethodPost, base+"/fulfillment", "designer-1", `{"status":"`+status+`"}`)
		require.Equal(t, http.StatusOK, code, env.Message)
	}

	// then the order is terminal and its history was persisted
	code, env = s.do(http.MethodGet, base, "user-1", "")
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, customorder.StatusDelivered, order.Status)
	assert.Len(t, order.History, 7)

	code, env = s.do(http.MethodPost, base+"/cancel", "user-1", `{"reason":"too late"}`)
	assert.Equal(t, http.StatusConflict, code, env.Message)

	assert.Equal(t,
		[]string{"pending", "bid_received", "accepted", "waiting_payment", "in_progress", "shipped", "delivered"},
		s.events.statuses())
}

func (s *StorefrontE2ESuite) TestCustomOrderCashOnDeliveryAndCancel() {
	t := s.T()
	submit := `{"measurementMode":"standard","size":"M","design":{"style":"Saree blouse","fabric":"Silk","customization":"Boat neck"},"referenceImages":["https://img.example.com/b.jpg"]}`

	// given two orders
	code, env := s.do(http.MethodPost, "/api/v1/custom-orders", "user-2", submit)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var cod customorder.Order
	require.NoError(t, json.Unmarshal(env.Data, &cod))
	code, env = s.do(http.MethodPost, "/api/v1/custom-orders", "user-2", submit)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var cancelled customorder.Order
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))

	// when the first is paid on delivery
	base := "/api/v1/custom-orders/" + cod.ID.String()
	code, env = s.do(http.MethodPost, base+"/bid", "designer-1", `{"price":"900","estimatedDeliveryDays":7}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	code, env = s.do(http.MethodPost, base+"/accept", "user-2",
		`{"addressLine1":"4 Park Street","city":"Kolkata","state":"WB","postalCode":"700016","phoneNumber":"9123456780"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	code, env = s.do(http.MethodPost, base+"/payment", "user-2", `{"method":"cod"}`)
	require.Equal(t, http.StatusOK, code, env.Message)

	// and the second is cancelled
	code, env = s.do(http.MethodPost, "/api/v1/custom-orders/"+cancelled.ID.String()+"/cancel", "user-2", `{"reason":"changed my mind"}`)
	require.Equal(t, http.StatusOK, code, env.Message)

	// then
	code, env = s.do(http.MethodGet, "/api/v1/custom-orders", "user-2", "")
	require.Equal(t, http.StatusOK, code, env.Message)
	var mine []customorder.Order
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 2)
	byID := map[string]customorder.Status{}
	for _, o := range mine {
		byID[o.ID.String()] = o.Status
	}
	assert.Equal(t, customorder.StatusInProgress, byID[cod.ID.String()])
	assert.Equal(t, customorder.StatusCancelled, byID[cancelled.ID.String()])

	code, env = s.do(http.MethodGet, "/api/v1/custom-orders/all?status=cancelled", "designer-1", "")
	require.Equal(t, http.StatusOK, code, env.Message)
	var all []customorder.Order
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 1)
}

func TestStorefrontE2ESuite(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(StorefrontE2ESuite))
}
