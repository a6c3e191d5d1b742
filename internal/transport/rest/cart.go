package rest

import (
	"net/http"

	"github.com/abgdnv/stitchnstyle/pkg/web"
)

type addItemRequest struct {
	ItemID string `json:"itemId" validate:"required"`
	Size   string `json:"size"   validate:"required"`
}

type setItemRequest struct {
	ItemID   string `json:"itemId"   validate:"required"`
	Size     string `json:"size"     validate:"required"`
	Quantity *int   `json:"quantity" validate:"required,lte=2147483647"`
}

// GetCart returns the caller's cart as item -> size -> quantity.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	items, err := h.carts.Get(r.Context(), caller.Subject)
	if err != nil {
		respondError(w, r, mLogger, err, "retrieving cart")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "", items)
}

// AddCartItem increments one (item, size) line.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	var req addItemRequest
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &req) {
		return
	}
	items, err := h.carts.Add(r.Context(), caller.Subject, req.ItemID, req.Size)
	if err != nil {
		respondError(w, r, mLogger, err, "adding to cart")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "Added to cart", items)
}

// SetCartItem overwrites the quantity of one line; zero or less removes it.
func (h *Handler) SetCartItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	var req setItemRequest
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &req) {
		return
	}
	items, err := h.carts.SetQuantity(r.Context(), caller.Subject, req.ItemID, req.Size, *req.Quantity)
	if err != nil {
		respondError(w, r, mLogger, err, "updating cart")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "Cart updated", items)
}

// ClearCart empties the caller's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	items, err := h.carts.Clear(r.Context(), caller.Subject)
	if err != nil {
		respondError(w, r, mLogger, err, "clearing cart")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "Cart cleared", items)
}

// CartSummary prices the caller's cart.
func (h *Handler) CartSummary(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller, ok := web.GetPrincipal(w, r, mLogger)
	if !ok {
		return
	}
	summary, err := h.carts.Summary(r.Context(), caller.Subject)
	if err != nil {
		respondError(w, r, mLogger, err, "summarizing cart")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "", summary)
}
