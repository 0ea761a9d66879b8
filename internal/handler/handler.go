// Package handler exposes the storefront over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/oolio-storefront/internal/domain/cart"
	"github.com/xenking/oolio-storefront/internal/domain/discount"
	"github.com/xenking/oolio-storefront/internal/domain/order"
	"github.com/xenking/oolio-storefront/internal/domain/product"
	"github.com/xenking/oolio-storefront/internal/domain/stats"
)

// Handler serves the storefront API, delegating to the domain services.
type Handler struct {
	catalog   product.Catalog
	carts     cart.Repository
	orders    *order.Service
	discounts *discount.Service
	stats     *stats.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	catalog product.Catalog,
	carts cart.Repository,
	orders *order.Service,
	discounts *discount.Service,
	stats *stats.Service,
) *Handler {
	return &Handler{
		catalog:   catalog,
		carts:     carts,
		orders:    orders,
		discounts: discounts,
		stats:     stats,
	}
}

// Mount registers the API routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", h.Health)
	r.Get("/products", h.ListProducts)

	r.Post("/cart", h.UpsertCart)
	r.Get("/cart/{cartId}", h.GetCart)

	r.Post("/checkout/preview", h.PreviewCheckout)
	r.Post("/checkout", h.Checkout)

	r.Post("/admin/discounts/generate", h.GenerateDiscount)
	r.Get("/admin/discounts", h.ListDiscounts)
	r.Get("/admin/stats", h.Stats)
}

// Health reports that the process is serving.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, encodeStatus("ok"))
}
