package discount

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// Option configures a Service.
type Option func(*Service)

// WithMeterProvider sets the provider used for the issuance counter.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// WithGenerator replaces the default crypto/rand backed generator.
func WithGenerator(g *Generator) Option {
	return func(s *Service) { s.gen = g }
}

// Service binds the issuance rules to the code and order stores.
type Service struct {
	codes  Repository
	orders OrderCounter
	cfg    Config
	gen    *Generator

	meterProvider metric.MeterProvider
	issued        metric.Int64Counter
}

// NewService creates a discount Service.
func NewService(codes Repository, orders OrderCounter, cfg Config, opts ...Option) (*Service, error) {
	s := &Service{
		codes:         codes,
		orders:        orders,
		cfg:           cfg,
		gen:           NewGenerator(),
		meterProvider: noop.NewMeterProvider(),
	}
	for _, o := range opts {
		o(s)
	}

	issued, err := s.meterProvider.Meter("storefront/discount").Int64Counter(
		"storefront.discount_codes.issued",
		metric.WithDescription("Number of discount codes issued"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create issued counter")
	}
	s.issued = issued

	return s, nil
}

// Config returns the issuance configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Generate issues a new code if a slot is available. A non-nil override must
// pass ValidateOverride. Eligibility is evaluated inside the store's critical
// section, so concurrent calls never issue more codes than slots.
func (s *Service) Generate(ctx context.Context, override *int) (*Code, error) {
	if override != nil {
		if err := ValidateOverride(*override); err != nil {
			return nil, err
		}
	}

	// The order count only grows; reading it before taking the code lock can
	// only under-count slots, never over-issue.
	total, err := s.orders.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count orders")
	}

	code, err := s.codes.Issue(ctx, func(existing []Code) (*Code, error) {
		return s.gen.GenerateIfEligible(total, existing, s.cfg, override)
	})
	if err != nil {
		return nil, err
	}

	s.issued.Add(ctx, 1, metric.WithAttributes(attribute.Int("percent", code.Percent)))
	zctx.From(ctx).Info("Discount code issued",
		zap.String("code", code.Code),
		zap.Int("percent", code.Percent),
		zap.Int("orders", total),
	)

	return code, nil
}

// Validate looks the code up and checks that it is still usable.
func (s *Service) Validate(ctx context.Context, codeValue string) (*Code, error) {
	c, err := s.codes.Find(ctx, codeValue)
	if err != nil {
		return nil, err
	}
	if err := checkUsable(c); err != nil {
		return nil, err
	}
	return c, nil
}

// MarkUsed records that orderID consumed the code.
func (s *Service) MarkUsed(ctx context.Context, codeValue, orderID string) error {
	return s.codes.MarkUsed(ctx, codeValue, orderID)
}

// List returns all issued codes in issuance order.
func (s *Service) List(ctx context.Context) ([]Code, error) {
	return s.codes.List(ctx)
}
