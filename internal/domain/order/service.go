package order

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/oolio-storefront/internal/domain/cart"
	"github.com/xenking/oolio-storefront/internal/domain/discount"
	"github.com/xenking/oolio-storefront/internal/domain/product"
)

// Sentinel errors for checkout.
var (
	ErrCartNotFound = errors.New("Cart not found")
	ErrEmptyCart    = errors.New("Cart is empty")
	// ErrAmountTooLarge is returned when a cart total does not fit in int64 cents.
	ErrAmountTooLarge = errors.New("Cart total is too large")
)

// UnknownProductError indicates a cart line references a product missing
// from the catalog.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("Unknown productId: %s", e.ProductID)
}

// DiscountService validates and consumes discount codes.
type DiscountService interface {
	Validate(ctx context.Context, code string) (*discount.Code, error)
	MarkUsed(ctx context.Context, code, orderID string) error
}

// Option configures a Service.
type Option func(*Service)

// WithMeterProvider sets the provider for order counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// WithTracerProvider sets the provider for checkout spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// Service prices carts and records orders.
type Service struct {
	carts     cart.Repository
	catalog   product.Catalog
	discounts DiscountService
	orders    Repository

	// mu serializes checkouts so that pricing, recording the order,
	// consuming the code and clearing the cart happen as one step.
	mu sync.Mutex

	now   func() time.Time
	newID func() string

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	placed         metric.Int64Counter
	revenue        metric.Int64Counter
	discounted     metric.Int64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	carts cart.Repository,
	catalog product.Catalog,
	discounts DiscountService,
	orders Repository,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		carts:          carts,
		catalog:        catalog,
		discounts:      discounts,
		orders:         orders,
		now:            time.Now,
		newID:          func() string { return uuid.New().String() },
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, o := range opts {
		o(s)
	}

	s.tracer = s.tracerProvider.Tracer("storefront/order")
	meter := s.meterProvider.Meter("storefront/order")

	var err error
	if s.placed, err = meter.Int64Counter("storefront.orders",
		metric.WithDescription("Number of completed checkouts"),
	); err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}
	if s.revenue, err = meter.Int64Counter("storefront.revenue_cents",
		metric.WithDescription("Sum of order totals in cents"),
	); err != nil {
		return nil, errors.Wrap(err, "create revenue counter")
	}
	if s.discounted, err = meter.Int64Counter("storefront.discount_cents",
		metric.WithDescription("Sum of discounts granted in cents"),
	); err != nil {
		return nil, errors.Wrap(err, "create discount counter")
	}

	return s, nil
}

// Preview prices the cart with an optional discount code without side effects.
func (s *Service) Preview(ctx context.Context, cartID, code string) (*Computation, error) {
	ctx, span := s.tracer.Start(ctx, "order.Preview")
	defer span.End()

	c, err := s.compute(ctx, cartID, code)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return c, nil
}

// Checkout prices the cart, records the order, consumes the discount code when
// it produced a non-zero discount and removes the cart.
func (s *Service) Checkout(ctx context.Context, cartID, code string) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Checkout")
	defer span.End()

	o, err := s.checkout(ctx, cartID, code)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", o.ID))
	return o, nil
}

func (s *Service) checkout(ctx context.Context, cartID, code string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		o      *Order
		placed error
	)
	err := s.carts.Take(ctx, cartID, func(ct *cart.Cart) error {
		o, placed = s.place(ctx, ct, code)
		return placed
	})
	switch {
	case placed != nil:
		return nil, placed
	case errors.Is(err, cart.ErrNotFound):
		return nil, ErrCartNotFound
	case err != nil:
		return nil, errors.Wrap(err, "take cart")
	}

	s.placed.Add(ctx, 1)
	s.revenue.Add(ctx, o.TotalCents)
	s.discounted.Add(ctx, o.DiscountAmountCents)

	fields := []zap.Field{
		zap.String("order_id", o.ID),
		zap.String("cart_id", cartID),
		zap.Int64("total_cents", o.TotalCents),
	}
	if o.Discount != nil {
		fields = append(fields, zap.String("discount_code", o.Discount.Code))
	}
	zctx.From(ctx).Info("Order placed", fields...)

	return o, nil
}

// place prices ct, records the order and consumes the code. It runs while
// the cart store holds the cart, so the cart is removed only if place succeeds.
func (s *Service) place(ctx context.Context, ct *cart.Cart, code string) (*Order, error) {
	c, err := s.price(ctx, ct, code)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:                  s.newID(),
		Items:               c.Items,
		SubtotalCents:       c.SubtotalCents,
		Discount:            c.Discount,
		DiscountAmountCents: c.DiscountAmountCents,
		TotalCents:          c.TotalCents,
		CreatedAt:           s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	if o.Discount != nil && o.DiscountAmountCents > 0 {
		if err := s.discounts.MarkUsed(ctx, o.Discount.Code, o.ID); err != nil {
			return nil, errors.Wrap(err, "mark discount code used")
		}
	}
	return o, nil
}

func (s *Service) compute(ctx context.Context, cartID, code string) (*Computation, error) {
	ct, err := s.carts.Get(ctx, cartID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, errors.Wrap(err, "get cart")
	}
	return s.price(ctx, ct, code)
}

func (s *Service) price(ctx context.Context, ct *cart.Cart, code string) (*Computation, error) {
	if len(ct.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]LineItem, 0, len(ct.Items))
	var subtotal int64
	for _, it := range ct.Items {
		p, err := s.catalog.GetByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, &UnknownProductError{ProductID: it.ProductID}
			}
			return nil, errors.Wrapf(err, "get product %s", it.ProductID)
		}
		line, ok := lineTotal(p.PriceCents, it.Quantity)
		if !ok || subtotal > math.MaxInt64-line {
			return nil, ErrAmountTooLarge
		}
		subtotal += line
		items = append(items, LineItem{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPriceCents: p.PriceCents,
		})
	}

	c := &Computation{
		Items:         items,
		SubtotalCents: subtotal,
		TotalCents:    subtotal,
	}
	if code == "" {
		return c, nil
	}

	dc, err := s.discounts.Validate(ctx, code)
	if err != nil {
		return nil, err
	}
	amount, total := discount.ComputeDiscount(subtotal, int64(dc.Percent))
	c.Discount = &AppliedDiscount{
		Code:        dc.Code,
		Percent:     dc.Percent,
		AmountCents: amount,
	}
	c.DiscountAmountCents = amount
	c.TotalCents = total

	return c, nil
}

// lineTotal multiplies price by quantity, reporting false on overflow.
// Both operands are non-negative for carts built through Merge.
func lineTotal(price int64, quantity int) (int64, bool) {
	if price < 0 || quantity < 0 {
		return 0, false
	}
	q := int64(quantity)
	if q != 0 && price > math.MaxInt64/q {
		return 0, false
	}
	return price * q, true
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
