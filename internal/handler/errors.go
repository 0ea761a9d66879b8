package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/oolio-storefront/internal/domain/cart"
	"github.com/xenking/oolio-storefront/internal/domain/discount"
	"github.com/xenking/oolio-storefront/internal/domain/order"
)

var (
	errInvalidJSON  = errors.New("invalid JSON body")
	errBodyTooLarge = errors.New("request body too large")
	errCartIDNeeded = errors.New("cartId is required")
	errItemsNeeded  = errors.New("items must be a non-empty array")
	errInvalidItem  = errors.New("each item needs a string productId and an integer quantity")
)

// clientErrors are returned to the caller verbatim with 400.
var clientErrors = []error{
	errInvalidJSON,
	errCartIDNeeded,
	errItemsNeeded,
	errInvalidItem,
	order.ErrEmptyCart,
	order.ErrAmountTooLarge,
	cart.ErrQuantityTooLarge,
	discount.ErrCodeNotFound,
	discount.ErrCodeUsed,
	discount.ErrNotEligible,
	discount.ErrInvalidPercent,
}

// statusOf maps a domain or request error to its status and public message.
func statusOf(err error) (int, string) {
	var unknown *order.UnknownProductError
	switch {
	case errors.Is(err, order.ErrCartNotFound), errors.Is(err, cart.ErrNotFound):
		return http.StatusNotFound, order.ErrCartNotFound.Error()
	case errors.As(err, &unknown):
		return http.StatusBadRequest, unknown.Error()
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, errBodyTooLarge.Error()
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, target.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// writeError maps err and writes it. Unmapped errors are logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusOf(err)
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeErrorMessage(w, status, msg)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, encodeError(msg))
}
