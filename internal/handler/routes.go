package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
)

// ListProducts returns the catalog in seed order.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, r, errors.Wrap(err, "list products"))
		return
	}
	writeJSON(w, http.StatusOK, encodeProducts(products))
}

// UpsertCart creates a cart or merges items into an existing one.
func (h *Handler) UpsertCart(w http.ResponseWriter, r *http.Request) {
	req, err := decodeUpsertCart(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.carts.Upsert(r.Context(), req.CartID, req.Items)
	if err != nil {
		writeError(w, r, errors.Wrap(err, "upsert cart"))
		return
	}
	writeJSON(w, http.StatusOK, encodeCart(c))
}

// GetCart returns the cart named in the path.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), chi.URLParam(r, "cartId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeCart(c))
}

// PreviewCheckout prices a cart without placing an order.
func (h *Handler) PreviewCheckout(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCheckout(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.orders.Preview(r.Context(), req.CartID, req.DiscountCode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeComputation(c))
}

// Checkout places the order and responds 201.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCheckout(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Checkout(r.Context(), req.CartID, req.DiscountCode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, encodePlacedOrder(o))
}

// GenerateDiscount issues a code when a slot is open.
func (h *Handler) GenerateDiscount(w http.ResponseWriter, r *http.Request) {
	percent, err := decodeGenerate(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.discounts.Generate(r.Context(), percent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, encodeIssuedCode(c))
}

// ListDiscounts returns every issued code.
func (h *Handler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	codes, err := h.discounts.List(r.Context())
	if err != nil {
		writeError(w, r, errors.Wrap(err, "list discount codes"))
		return
	}
	writeJSON(w, http.StatusOK, encodeCodes(codes))
}

// Stats returns the admin summary.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeStats(s))
}
