// Package rest provides the HTTP API of the storefront.
package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/abgdnv/stitchnstyle/internal/service"
	"github.com/abgdnv/stitchnstyle/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Handler struct {
	carts    service.CartService
	products service.ProductService
	orders   service.CustomOrderService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the REST handler. validate must be the shared storefront validator so
// that decimal prices and phone numbers are checked the same way as in the domain.
func NewHandler(carts service.CartService, products service.ProductService, orders service.CustomOrderService,
	validate *validator.Validate, logger *slog.Logger) *Handler {
	return &Handler{
		carts:    carts,
		products: products,
		orders:   orders,
		validate: validate,
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the storefront routes. authn verifies the caller and stores the
// principal in the request context.
func (h *Handler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Get("/healthz", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.FindProducts)
			r.Get("/{id}", h.FindProduct)
			r.Group(func(r chi.Router) {
				r.Use(authn, web.RequireStaff(h.logger))
				r.Post("/", h.CreateProduct)
				r.Put("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Get("/summary", h.CartSummary)
				r.Post("/items", h.AddCartItem)
				r.Put("/items", h.SetCartItem)
			})

			r.Route("/custom-orders", func(r chi.Router) {
				r.Post("/", h.SubmitCustomOrder)
				r.Get("/", h.FindMyCustomOrders)
				r.With(web.RequireStaff(h.logger)).Get("/all", h.FindAllCustomOrders)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.FindCustomOrder)
					r.With(web.RequireStaff(h.logger)).Post("/bid", h.PlaceBid)
					r.Post("/accept", h.AcceptBid)
					r.Post("/payment", h.StartPayment)
					r.Post("/payment/verify", h.VerifyPayment)
					r.With(web.RequireStaff(h.logger)).Post("/fulfillment", h.AdvanceFulfillment)
					r.Post("/cancel", h.CancelCustomOrder)
				})
			})
		})
	})
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}

// decode reads a JSON body into dst. An empty body is accepted when optional is set.
func decode(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
	web.RespondFail(w, logger, web.KindValidation, "Invalid request body", nil)
	return false
}

// page reads the offset and limit query parameters.
func page(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (offset, limit int32, ok bool) {
	limit, ok = web.ParseValidateBetween(r, w, logger, "limit", 1, maxLimit, defaultLimit)
	if !ok {
		return 0, 0, false
	}
	offset, ok = web.ParseValidateGte(r, w, logger, "offset", 0, 0)
	return offset, limit, ok
}
