package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abgdnv/stitchnstyle/internal/catalog"
	"github.com/abgdnv/stitchnstyle/internal/customorder"
	"github.com/abgdnv/stitchnstyle/internal/payment"
	"github.com/abgdnv/stitchnstyle/internal/service"
	"github.com/abgdnv/stitchnstyle/internal/store"
	"github.com/abgdnv/stitchnstyle/internal/validation"
	"github.com/abgdnv/stitchnstyle/pkg/auth"
	"github.com/abgdnv/stitchnstyle/pkg/messaging"
	"github.com/abgdnv/stitchnstyle/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokenSecret = "0123456789abcdef0123456789abcdef"
	keySecret   = "gateway-secret"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Kind    string            `json:"kind"`
	Fields  map[string]string `json:"fields"`
	Data    json.RawMessage   `json:"data"`
}

type stubGateway struct{}

func (stubGateway) CreateOrder(_ context.Context, receipt string, amount decimal.Decimal, currency string) (payment.GatewayOrder, error) {
	return payment.GatewayOrder{ID: "order_" + receipt[:8], Amount: payment.MinorUnits(amount), Currency: currency, Status: "created"}, nil
}

type apiFixture struct {
	router  http.Handler
	signer  *auth.SecretVerifier
	product catalog.Product
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	validate := validation.New()
	product := catalog.Product{ID: uuid.New(), Name: "Dress", Price: decimal.NewFromInt(500), Category: "Women", Sizes: []string{"M"}}
	products := store.NewMemoryProductStore(product)
	shop := service.ShopSettings{DeliveryFee: decimal.NewFromInt(49), Currency: "INR"}

	carts := service.NewCarts(store.NewMemoryCartStore(), products, shop, logger)
	orders := service.NewCustomOrders(store.NewMemoryCustomOrderStore(), customorder.NewWorkflow(validate), stubGateway{},
		payment.NewSignatureVerifier(keySecret), messaging.NopPublisher{}, service.PaymentSettings{KeyID: "rzp_key", Currency: "INR"}, logger)

	signer := auth.NewSecretVerifier(tokenSecret)
	staff := auth.NewStaffDirectory([]string{"designer-1"})
	r := chi.NewRouter()
	r.Use(web.RequestIDInjector)
	NewHandler(carts, service.NewProducts(products), orders, validate, logger).
		RegisterRoutes(r, web.AuthMiddleware(signer, staff, logger))
	return &apiFixture{router: r, signer: signer, product: product}
}

func (f *apiFixture) token(t *testing.T, subject string) string {
	t.Helper()
	tok, err := jwt.NewBuilder().Subject(subject).Expiration(time.Now().Add(time.Hour)).Build()
	require.NoError(t, err)
	signed, err := f.signer.Sign(tok)
	require.NoError(t, err)
	return signed
}

// do sends a request as subject (anonymous when empty) and decodes the envelope.
func (f *apiFixture) do(t *testing.T, method, path, subject, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+f.token(t, subject))
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	var env envelope
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr.Code, env
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestHealthCheck(t *testing.T) {
	f := newAPI(t)
	code, _ := f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestCartAPI(t *testing.T) {
	// given
	f := newAPI(t)
	itemID := f.product.ID.String()

	// when
	for range 2 {
		code, env := f.do(t, http.MethodPost, "/api/v1/cart/items", "user-1", toJSON(t, map[string]string{"itemId": itemID, "size": "M"}))
		require.Equal(t, http.StatusOK, code, env.Message)
	}
	code, env := f.do(t, http.MethodGet, "/api/v1/cart", "user-1", "")

	// then
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"`+itemID+`":{"M":2}}`, string(env.Data))

	// when
	code, env = f.do(t, http.MethodGet, "/api/v1/cart/summary", "user-1", "")

	// then
	require.Equal(t, http.StatusOK, code)
	var summary struct {
		Count int    `json:"count"`
		Total string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, "1049", summary.Total)

	// when
	code, env = f.do(t, http.MethodPut, "/api/v1/cart/items", "user-1", toJSON(t, map[string]any{"itemId": itemID, "size": "M", "quantity": 0}))

	// then
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{}`, string(env.Data))
}

func TestCartAPI_Errors(t *testing.T) {
	f := newAPI(t)

	testCases := []struct {
		name     string
		method   string
		path     string
		subject  string
		body     string
		wantCode int
		wantKind string
	}{
		{name: "missing token", method: http.MethodGet, path: "/api/v1/cart", wantCode: http.StatusUnauthorized, wantKind: "unauthorized"},
		{name: "missing size", method: http.MethodPost, path: "/api/v1/cart/items", subject: "user-1", body: `{"itemId":"x"}`, wantCode: http.StatusBadRequest, wantKind: "validation"},
		{name: "missing quantity", method: http.MethodPut, path: "/api/v1/cart/items", subject: "user-1", body: `{"itemId":"x","size":"M"}`, wantCode: http.StatusBadRequest, wantKind: "validation"},
		{name: "quantity above cap", method: http.MethodPut, path: "/api/v1/cart/items", subject: "user-1", body: `{"itemId":"x","size":"M","quantity":3000000000}`, wantCode: http.StatusBadRequest, wantKind: "validation"},
		{name: "malformed body", method: http.MethodPost, path: "/api/v1/cart/items", subject: "user-1", body: `{`, wantCode: http.StatusBadRequest, wantKind: "validation"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			code, env := f.do(t, tc.method, tc.path, tc.subject, tc.body)

			// then
			assert.Equal(t, tc.wantCode, code)
			assert.False(t, env.Success)
			assert.Equal(t, tc.wantKind, env.Kind)
		})
	}
}

func TestProductAPI(t *testing.T) {
	// given
	f := newAPI(t)
	body := toJSON(t, map[string]any{"name": "Saree", "price": "1200", "category": "Women", "sizes": []string{"Free"}})

	// when a customer creates a product
	code, env := f.do(t, http.MethodPost, "/api/v1/products", "user-1", body)

	// then
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", env.Kind)

	// when staff creates a product
	code, env = f.do(t, http.MethodPost, "/api/v1/products", "designer-1", body)

	// then
	require.Equal(t, http.StatusCreated, code, env.Message)
	var created catalog.Product
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, decimal.NewFromInt(1200).Equal(created.Price))

	// when the price is not positive
	code, env = f.do(t, http.MethodPost, "/api/v1/products", "designer-1",
		toJSON(t, map[string]any{"name": "Free", "price": "0", "category": "Women", "sizes": []string{"M"}}))

	// then
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Fields, "price")

	// when listing anonymously
	code, env = f.do(t, http.MethodGet, "/api/v1/products?limit=10", "", "")

	// then
	require.Equal(t, http.StatusOK, code)
	var list []catalog.Product
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	// when deleting with a stale version
	code, env = f.do(t, http.MethodDelete, "/api/v1/products/"+created.ID.String()+"?version=7", "designer-1", "")

	// then
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "state_conflict", env.Kind)

	// when
	code, _ = f.do(t, http.MethodDelete, "/api/v1/products/"+created.ID.String()+"?version=1", "designer-1", "")

	// then
	assert.Equal(t, http.StatusNoContent, code)
	code, env = f.do(t, http.MethodGet, "/api/v1/products/"+created.ID.String(), "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", env.Kind)
}

func TestCustomOrderAPI(t *testing.T) {
	// given
	f := newAPI(t)
	submission := `{
		"measurementMode": "custom",
		"measurements": {"chest": 38, "waist": 32, "hips": 40, "length": 44, "shoulders": 16, "sleeves": 22},
		"design": {"style": "Sherwani", "fabric": "Brocade", "customization": "Mandarin collar"},
		"referenceImages": ["https://img.example.com/1.jpg"]
	}`

	// when
	code, env := f.do(t, http.MethodPost, "/api/v1/custom-orders", "user-1", submission)

	// then
	require.Equal(t, http.StatusCreated, code, env.Message)
	var order customorder.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, customorder.StatusPending, order.Status)
	base := "/api/v1/custom-orders/" + order.ID.String()

	// when another customer looks at it
	code, env = f.do(t, http.MethodGet, base, "user-2", "")

	// then
	assert.Equal(t, http.StatusForbidden, code)

	// when the customer tries to bid
	code, _ = f.do(t, http.MethodPost, base+"/bid", "user-1", `{"price":"2500","estimatedDeliveryDays":12}`)

	// then
	assert.Equal(t, http.StatusForbidden, code)

	// when the designer bids
	code, env = f.do(t, http.MethodPost, base+"/bid", "designer-1", `{"price":"2500","estimatedDeliveryDays":12,"message":"ok"}`)

	// then
	require.Equal(t, http.StatusOK, code, env.Message)

	// when accepting with a bad phone number
	addr := map[string]string{"addressLine1": "1 Ring Road", "city": "Delhi", "state": "DL", "postalCode": "110001", "phoneNumber": "12345"}
	code, env = f.do(t, http.MethodPost, base+"/accept", "user-1", toJSON(t, addr))

	// then
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Fields, "phoneNumber")

	// when accepting properly
	addr["phoneNumber"] = "9876543210"
	code, env = f.do(t, http.MethodPost, base+"/accept", "user-1", toJSON(t, addr))

	// then
	require.Equal(t, http.StatusOK, code, env.Message)

	// when starting an online payment
	code, env = f.do(t, http.MethodPost, base+"/payment", "user-1", `{"method":"razorpay"}`)

	// then
	require.Equal(t, http.StatusOK, code, env.Message)
	var start service.PaymentStart
	require.NoError(t, json.Unmarshal(env.Data, &start))
	require.NotNil(t, start.Gateway)
	assert.Equal(t, int64(250000), start.Gateway.Amount)

	// when the signature is wrong
	code, env = f.do(t, http.MethodPost, base+"/payment/verify", "user-1",
		toJSON(t, map[string]string{"gatewayOrderId": start.Gateway.ID, "paymentId": "pay_9", "signature": "00"}))

	// then
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "payment_failed", env.Kind)

	// when the signature is right
	signature := payment.NewSignatureVerifier(keySecret).Sign(start.Gateway.ID, "pay_9")
	code, env = f.do(t, http.MethodPost, base+"/payment/verify", "user-1",
		toJSON(t, map[string]string{"gatewayOrderId": start.Gateway.ID, "paymentId": "pay_9", "signature": signature}))

	// then
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, customorder.StatusInProgress, order.Status)

	// when cancelling a paid order
	code, env = f.do(t, http.MethodPost, base+"/cancel", "user-1", "")

	// then
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "state_conflict", env.Kind)

	// when the designer moves it backwards
	code, _ = f.do(t, http.MethodPost, base+"/fulfillment", "designer-1", `{"status":"pending"}`)

	// then
	assert.Equal(t, http.StatusBadRequest, code)

	// when the designer ships it
	code, env = f.do(t, http.MethodPost, base+"/fulfillment", "designer-1", `{"status":"shipped"}`)

	// then
	require.Equal(t, http.StatusOK, code, env.Message)

	// when staff lists shipped orders
	code, env = f.do(t, http.MethodGet, "/api/v1/custom-orders/all?status=shipped", "designer-1", "")

	// then
	require.Equal(t, http.StatusOK, code)
	var all []customorder.Order
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 1)

	// when a customer lists all orders
	code, _ = f.do(t, http.MethodGet, "/api/v1/custom-orders/all", "user-1", "")

	// then
	assert.Equal(t, http.StatusForbidden, code)
}

func TestCustomOrderAPI_InvalidInput(t *testing.T) {
	f := newAPI(t)

	testCases := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
	}{
		{name: "invalid id", method: http.MethodGet, path: "/api/v1/custom-orders/not-a-uuid", wantCode: http.StatusBadRequest},
		{name: "unknown order", method: http.MethodGet, path: "/api/v1/custom-orders/" + uuid.NewString(), wantCode: http.StatusNotFound},
		{name: "no reference images", method: http.MethodPost, path: "/api/v1/custom-orders",
			body: `{"measurementMode":"standard","size":"M","design":{"style":"a","fabric":"b","customization":"c"}}`, wantCode: http.StatusBadRequest},
		{name: "unknown payment method", method: http.MethodPost, path: "/api/v1/custom-orders/" + uuid.NewString() + "/payment",
			body: `{"method":"paypal"}`, wantCode: http.StatusBadRequest},
		{name: "bad limit", method: http.MethodGet, path: "/api/v1/custom-orders?limit=0", wantCode: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			code, env := f.do(t, tc.method, tc.path, "user-1", tc.body)

			// then
			assert.Equal(t, tc.wantCode, code, env.Message)
			assert.False(t, env.Success)
		})
	}
}
