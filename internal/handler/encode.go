package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-storefront/internal/domain/cart"
	"github.com/xenking/oolio-storefront/internal/domain/discount"
	"github.com/xenking/oolio-storefront/internal/domain/order"
	"github.com/xenking/oolio-storefront/internal/domain/product"
	"github.com/xenking/oolio-storefront/internal/domain/stats"
)

// timeLayout matches JavaScript's Date.toISOString, which the web client parses.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type encodeFunc func(e *jx.Encoder)

func writeJSON(w http.ResponseWriter, status int, enc encodeFunc) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	enc(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeError(msg string) encodeFunc {
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("error")
		e.Str(msg)
		e.ObjEnd()
	}
}

func encodeStatus(status string) encodeFunc {
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("status")
		e.Str(status)
		e.ObjEnd()
	}
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(timeLayout))
}

// formatCents renders cents as a major-unit amount, e.g. 1999 -> "19.99".
func formatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func encodeProducts(products []product.Product) encodeFunc {
	return func(e *jx.Encoder) {
		e.ArrStart()
		for _, p := range products {
			e.ObjStart()
			e.FieldStart("id")
			e.Str(p.ID)
			e.FieldStart("name")
			e.Str(p.Name)
			e.FieldStart("priceCents")
			e.Int64(p.PriceCents)
			e.FieldStart("price")
			e.Str(formatCents(p.PriceCents))
			e.ObjEnd()
		}
		e.ArrEnd()
	}
}

func encodeCart(c *cart.Cart) encodeFunc {
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(c.ID)
		e.FieldStart("items")
		e.ArrStart()
		for _, it := range c.Items {
			e.ObjStart()
			e.FieldStart("productId")
			e.Str(it.ProductID)
			e.FieldStart("quantity")
			e.Int(it.Quantity)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	}
}

func encodeLineItems(e *jx.Encoder, items []order.LineItem) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(it.ProductID)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("unitPriceCents")
		e.Int64(it.UnitPriceCents)
		e.ObjEnd()
	}
	e.ArrEnd()
}

// encodePricing writes the breakdown fields shared by previews and orders.
// discountCode and discountPercent are present only when a code was applied.
func encodePricing(e *jx.Encoder, items []order.LineItem, subtotal int64, d *order.AppliedDiscount, amount, total int64) {
	e.FieldStart("items")
	encodeLineItems(e, items)
	e.FieldStart("subtotalCents")
	e.Int64(subtotal)
	if d != nil {
		e.FieldStart("discountCode")
		e.Str(d.Code)
		e.FieldStart("discountPercent")
		e.Int(d.Percent)
	}
	e.FieldStart("discountAmountCents")
	e.Int64(amount)
	e.FieldStart("totalCents")
	e.Int64(total)
}

func encodeComputation(c *order.Computation) encodeFunc {
	return func(e *jx.Encoder) {
		e.ObjStart()
		encodePricing(e, c.Items, c.SubtotalCents, c.Discount, c.DiscountAmountCents, c.TotalCents)
		e.ObjEnd()
	}
}

// encodeOrder writes o with its id under idField: checkout responses use
// "orderId", the stats listing uses "id".
func encodeOrder(e *jx.Encoder, o *order.Order, idField string) {
	e.ObjStart()
	e.FieldStart(idField)
	e.Str(o.ID)
	encodePricing(e, o.Items, o.SubtotalCents, o.Discount, o.DiscountAmountCents, o.TotalCents)
	e.FieldStart("createdAt")
	encodeTime(e, o.CreatedAt)
	e.ObjEnd()
}

func encodePlacedOrder(o *order.Order) encodeFunc {
	return func(e *jx.Encoder) {
		encodeOrder(e, o, "orderId")
	}
}

func encodeIssuedCode(c *discount.Code) encodeFunc {
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Str(c.Code)
		e.FieldStart("percent")
		e.Int(c.Percent)
		e.FieldStart("createdAt")
		encodeTime(e, c.CreatedAt)
		e.ObjEnd()
	}
}

func encodeCodes(codes []discount.Code) encodeFunc {
	return func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range codes {
			e.ObjStart()
			e.FieldStart("code")
			e.Str(c.Code)
			e.FieldStart("percent")
			e.Int(c.Percent)
			e.FieldStart("used")
			e.Bool(c.Used)
			e.FieldStart("usedByOrderId")
			if c.UsedByOrderID == "" {
				e.Null()
			} else {
				e.Str(c.UsedByOrderID)
			}
			e.FieldStart("createdAt")
			encodeTime(e, c.CreatedAt)
			e.ObjEnd()
		}
		e.ArrEnd()
	}
}

func encodeStats(s *stats.Stats) encodeFunc {
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orderCount")
		e.Int(s.OrderCount)
		e.FieldStart("itemsPurchased")
		e.Int(s.ItemsPurchased)
		e.FieldStart("revenueCents")
		e.Int64(s.RevenueCents)
		e.FieldStart("discountCodesIssued")
		e.Int(s.DiscountCodesIssued)
		e.FieldStart("discountCodesUsed")
		e.Int(s.DiscountCodesUsed)
		e.FieldStart("totalDiscountsGivenCents")
		e.Int64(s.TotalDiscountsGivenCents)
		e.FieldStart("orders")
		e.ArrStart()
		for i := range s.Orders {
			encodeOrder(e, &s.Orders[i], "id")
		}
		e.ArrEnd()
		e.ObjEnd()
	}
}
