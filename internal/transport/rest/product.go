package rest

import (
	"net/http"
	"strconv"

	"github.com/abgdnv/stitchnstyle/internal/service"
	"github.com/abgdnv/stitchnstyle/pkg/web"
)

// FindProducts lists products, newest first.
func (h *Handler) FindProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	offset, limit, ok := page(w, r, mLogger)
	if !ok {
		return
	}
	list, err := h.products.FindAll(r.Context(), offset, limit)
	if err != nil {
		respondError(w, r, mLogger, err, "retrieving products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondOk(w, mLogger, http.StatusOK, "", list)
}

// FindProduct retrieves a product by its ID.
func (h *Handler) FindProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.products.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, mLogger, err, "retrieving product")
		return
	}
	web.RespondOk(w, mLogger, http.StatusOK, "", found)
}

// CreateProduct adds a product to the catalog.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.ProductCreateDto
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &dto) {
		return
	}
	created, err := h.products.Create(r.Context(), dto)
	if err != nil {
		respondError(w, r, mLogger, err, "creating product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID)
	web.RespondOk(w, mLogger, http.StatusCreated, "Product added", created)
}

// UpdateProduct replaces a product if the given version is current.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto service.ProductUpdateDto
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &dto) {
		return
	}
	updated, err := h.products.Update(r.Context(), id, dto)
	if err != nil {
		respondError(w, r, mLogger, err, "updating product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID)
	web.RespondOk(w, mLogger, http.StatusOK, "Product updated", updated)
}

// DeleteProduct removes a product. The version query parameter is required.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	version, err := strconv.ParseInt(r.URL.Query().Get("version"), 10, 32)
	if err != nil || version < 1 {
		web.RespondFail(w, mLogger, web.KindValidation, "Invalid version", map[string]string{"version": "failed on rule: min"})
		return
	}
	if err := h.products.DeleteByID(r.Context(), id, int32(version)); err != nil {
		respondError(w, r, mLogger, err, "deleting product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}
