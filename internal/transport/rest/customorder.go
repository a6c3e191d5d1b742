package rest

import (
	"net/http"

	"github.com/abgdnv/stitchnstyle/internal/customorder"
	"github.com/abgdnv/stitchnstyle/internal/service"
	"github.com/abgdnv/stitchnstyle/pkg/web"
)

type startPaymentRequest struct {
	Method customorder.PaymentMethod `json:"method" validate:"required,oneof=razorpay cod"`
}

type fulfillmentRequest struct {
	Status string `json:"status" validate:"required"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// SubmitCustomOrder creates a custom order for the caller.
func (h *Handler) SubmitCustomOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	var sub customorder.Submission
	if !decode(w, r, mLogger, &sub, false) {
		return
	}
	o, err := h.orders.Submit(r.Context(), caller, sub)
	if err != nil {
		respondError(w, r, mLogger, err, "submitting custom order")
		return
	}
	mLogger.InfoContext(r.Context(), "Custom order submitted", "ID", o.ID)
	web.RespondOk(w, mLogger, http.StatusCreated, "Custom order submitted", o)
}

// FindMyCustomOrders lists the caller's custom orders.
func (h *Handler) FindMyCustomOrders(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	offset, limit, ok := page(w, r, mLogger)
	if !ok {
		return
	}
	list, err := h.orders.FindMine(r.Context(), caller, offset, limit)
	if err != nil {
		respondError(w, r, mLogger, err, "retrieving custom orders")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "", list)
}

// FindAllCustomOrders lists every custom order, optionally filtered by status.
func (h *Handler) FindAllCustomOrders(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	offset, limit, ok := page(w, r, mLogger)
	if !ok {
		return
	}
	var status customorder.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := customorder.ParseStatus(raw)
		if err != nil {
			respondError(w, r, mLogger, err, "listing custom orders")
			return
		}
		status = parsed
	}
	list, err := h.orders.FindAll(r.Context(), caller, status, offset, limit)
	if err != nil {
		respondError(w, r, mLogger, err, "retrieving custom orders")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "", list)
}

// FindCustomOrder retrieves one custom order visible to the caller.
func (h *Handler) FindCustomOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	o, err := h.orders.FindByID(r.Context(), caller, id)
	if err != nil {
		respondError(w, r, mLogger, err, "retrieving custom order")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "", o)
}

// PlaceBid records the designer's bid.
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	var bid customorder.Bid
	if !decode(w, r, mLogger, &bid, false) {
		return
	}
	o, err := h.orders.PlaceBid(r.Context(), caller, id, bid)
	if err != nil {
		respondError(w, r, mLogger, err, "placing bid")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "Bid placed", o)
}

// AcceptBid accepts the bid with the shipping address in the body.
func (h *Handler) AcceptBid(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	var addr customorder.Address
	if !decode(w, r, mLogger, &addr, false) {
		return
	}
	o, err := h.orders.AcceptBid(r.Context(), caller, id, addr)
	if err != nil {
		respondError(w, r, mLogger, err, "accepting bid")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "Bid accepted", o)
}

// StartPayment starts an online payment or confirms cash on delivery.
func (h *Handler) StartPayment(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	var req startPaymentRequest
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &req) {
		return
	}
	start, err := h.orders.StartPayment(r.Context(), caller, id, req.Method)
	if err != nil {
		respondError(w, r, mLogger, err, "starting payment")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "Payment started", start)
}

// VerifyPayment confirms an online payment from the gateway's signed callback data.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	var req service.PaymentVerification
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &req) {
		return
	}
	o, err := h.orders.VerifyPayment(r.Context(), caller, id, req)
	if err != nil {
		respondError(w, r, mLogger, err, "verifying payment")
		return
	}
	mLogger.InfoContext(r.Context(), "Payment verified", "ID", o.ID)
	web.RespondOk(w, mLogger, http.StatusOK, "Payment verified", o)
}

// AdvanceFulfillment moves a paid order to completed, shipped or delivered.
func (h *Handler) AdvanceFulfillment(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	var req fulfillmentRequest
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &req) {
		return
	}
	target, err := customorder.ParseStatus(req.Status)
	if err != nil {
		respondError(w, r, mLogger, err, "advancing fulfillment")
		return
	}
	o, err := h.orders.AdvanceFulfillment(r.Context(), caller, id, target)
	if err != nil {
		respondError(w, r, mLogger, err, "advancing fulfillment")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "Status updated", o)
}

// CancelCustomOrder cancels an unpaid order. The body with a reason is optional.
func (h *Handler) CancelCustomOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	var req cancelRequest
	if !decode(w, r, mLogger, &req, true) {
		return
	}
	o, err := h.orders.Cancel(r.Context(), caller, id, req.Reason)
	if err != nil {
		respondError(w, r, mLogger, err, "cancelling custom order")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "Custom order cancelled", o)
}
