package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"github.com/abgdnv/stitchnstyle/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// errUpstream marks failures that count against the circuit breaker.
var errUpstream = errors.New("upstream failure")

// RazorpayClient creates Razorpay orders over its REST API. Calls run behind a circuit breaker;
// only transport errors and 5xx responses count as failures.
type RazorpayClient struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	breaker    *gobreaker.CircuitBreaker[GatewayOrder]
}

// NewRazorpayClient creates a client from cfg. httpClient may be nil.
func NewRazorpayClient(cfg config.PaymentConfig, httpClient *http.Client) *RazorpayClient {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = cfg.Razorpay.Timeout
	}
	return &RazorpayClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.Razorpay.BaseURL, "/"),
		keyID:      cfg.Razorpay.KeyID,
		keySecret:  cfg.Razorpay.KeySecret,
		breaker:    newBreaker(cfg.CircuitBreaker),
	}
}

func newBreaker(cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[GatewayOrder] {
	st := gobreaker.Settings{
		Name:        "razorpay-cb",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			if counts.Requests < cfg.MinRequests || cfg.ErrorRatePercent == 0 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests)*100 >= float64(cfg.ErrorRatePercent)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, errUpstream)
		},
	}
	return gobreaker.NewCircuitBreaker[GatewayOrder](st)
}

// KeyID is the public key the checkout page needs to open the gateway widget.
func (c *RazorpayClient) KeyID() string {
	return c.keyID
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder creates a gateway order for amount. Errors wrap ErrPaymentFailed; gateway outages
// and an open breaker wrap ErrGatewayUnavailable.
func (c *RazorpayClient) CreateOrder(ctx context.Context, receipt string, amount decimal.Decimal, currency string) (GatewayOrder, error) {
	if !amount.IsPositive() {
		return GatewayOrder{}, sferrors.Invalid("amount", "failed on rule: gt")
	}
	order, err := c.breaker.Execute(func() (GatewayOrder, error) {
		return c.createOrder(ctx, createOrderRequest{Amount: MinorUnits(amount), Currency: currency, Receipt: receipt})
	})
	switch {
	case err == nil:
		return order, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return GatewayOrder{}, fmt.Errorf("%w: %v", sferrors.ErrGatewayUnavailable, err)
	case errors.Is(err, errUpstream):
		return GatewayOrder{}, fmt.Errorf("%w: %w", sferrors.ErrGatewayUnavailable, err)
	default:
		return GatewayOrder{}, fmt.Errorf("%w: %w", sferrors.ErrPaymentFailed, err)
	}
}

func (c *RazorpayClient) createOrder(ctx context.Context, body createOrderRequest) (GatewayOrder, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("encode order request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("build order request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("%w: %w", errUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("%w: read response: %w", errUpstream, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return GatewayOrder{}, fmt.Errorf("%w: status %d", errUpstream, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return GatewayOrder{}, fmt.Errorf("gateway rejected order: status %d: %s", resp.StatusCode, errorDescription(data))
	}
	var order GatewayOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return GatewayOrder{}, fmt.Errorf("decode order response: %w", err)
	}
	if order.ID == "" {
		return GatewayOrder{}, errors.New("gateway returned an order without id")
	}
	return order, nil
}

func errorDescription(body []byte) string {
	var e struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Description != "" {
		return e.Error.Description
	}
	return strings.TrimSpace(string(body))
}
