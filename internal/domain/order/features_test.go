package order_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/go-faster/errors"

	"github.com/xenking/oolio-storefront/internal/domain/cart"
	"github.com/xenking/oolio-storefront/internal/domain/discount"
	"github.com/xenking/oolio-storefront/internal/domain/order"
	"github.com/xenking/oolio-storefront/internal/domain/stats"
	"github.com/xenking/oolio-storefront/internal/storage/memory"
)

type checkoutTestContext struct {
	carts     *memory.CartStore
	codes     *memory.DiscountStore
	orders    *memory.OrderStore
	discounts *discount.Service
	checkout  *order.Service
	stats     *stats.Service

	seeded    int
	lastOrder *order.Order
	generated *discount.Code
	err       error
}

func (c *checkoutTestContext) aStoreThatGrantsACodeEveryOrdersAtPercent(n, percent int) error {
	catalog, err := memory.DefaultCatalog()
	if err != nil {
		return err
	}

	c.carts = memory.NewCartStore()
	c.codes = memory.NewDiscountStore()
	c.orders = memory.NewOrderStore()

	c.discounts, err = discount.NewService(c.codes, c.orders, discount.Config{N: n, XPercent: percent})
	if err != nil {
		return err
	}
	c.checkout, err = order.NewService(c.carts, catalog, c.discounts, c.orders)
	if err != nil {
		return err
	}
	c.stats = stats.NewService(c.orders, c.codes)

	c.seeded = 0
	c.lastOrder = nil
	c.generated = nil
	c.err = nil
	return nil
}

func (c *checkoutTestContext) cartHolds(cartID string, quantity int, productID string) error {
	_, err := c.carts.Upsert(context.Background(), cartID, []cart.Item{{ProductID: productID, Quantity: quantity}})
	return err
}

func (c *checkoutTestContext) ordersHaveBeenPlaced(n int) error {
	ctx := context.Background()
	for range n {
		c.seeded++
		cartID := fmt.Sprintf("seed-%d", c.seeded)
		if err := c.cartHolds(cartID, 1, "p4"); err != nil {
			return err
		}
		if _, err := c.checkout.Checkout(ctx, cartID, ""); err != nil {
			return errors.Wrapf(err, "seed order %d", c.seeded)
		}
	}
	return nil
}

func (c *checkoutTestContext) iCheckOutCartWithCode(cartID, code string) error {
	o, err := c.checkout.Checkout(context.Background(), cartID, code)
	c.err = err
	if err == nil {
		c.lastOrder = o
	}
	return nil
}

func (c *checkoutTestContext) iCheckOutCart(cartID string) error {
	return c.iCheckOutCartWithCode(cartID, "")
}

func (c *checkoutTestContext) iCheckOutCartWithTheGeneratedCode(cartID string) error {
	if c.generated == nil {
		return errors.New("no code was generated")
	}
	return c.iCheckOutCartWithCode(cartID, c.generated.Code)
}

func (c *checkoutTestContext) generate(override *int) error {
	code, err := c.discounts.Generate(context.Background(), override)
	c.err = err
	if err == nil {
		c.generated = code
	}
	return nil
}

func (c *checkoutTestContext) iGenerateADiscountCode() error {
	return c.generate(nil)
}

func (c *checkoutTestContext) iGenerateADiscountCodeWithPercent(percent int) error {
	return c.generate(&percent)
}

func (c *checkoutTestContext) generationSucceedsWithPercent(percent int) error {
	if c.err != nil {
		return errors.Wrap(c.err, "expected generation to succeed")
	}
	if c.generated.Percent != percent {
		return errors.Errorf("expected %d percent, got %d", percent, c.generated.Percent)
	}
	return nil
}

func (c *checkoutTestContext) failsWith(message string) error {
	if c.err == nil {
		return errors.Errorf("expected error %q, got none", message)
	}
	if c.err.Error() != message {
		return errors.Errorf("expected error %q, got %q", message, c.err.Error())
	}
	return nil
}

func (c *checkoutTestContext) orderAmountIs(field string) func(int64) error {
	return func(want int64) error {
		if c.err != nil {
			return errors.Wrap(c.err, "checkout failed")
		}
		var got int64
		switch field {
		case "subtotal":
			got = c.lastOrder.SubtotalCents
		case "discount":
			got = c.lastOrder.DiscountAmountCents
		case "total":
			got = c.lastOrder.TotalCents
		}
		if got != want {
			return errors.Errorf("expected %s %d, got %d", field, want, got)
		}
		return nil
	}
}

func (c *checkoutTestContext) cartExists(cartID string, want bool) error {
	_, err := c.carts.Get(context.Background(), cartID)
	switch {
	case err == nil && !want:
		return errors.Errorf("cart %q still exists", cartID)
	case errors.Is(err, cart.ErrNotFound) && want:
		return errors.Errorf("cart %q is gone", cartID)
	case err != nil && !errors.Is(err, cart.ErrNotFound):
		return err
	}
	return nil
}

func (c *checkoutTestContext) theGeneratedCodeIsUsedByTheLastOrder() error {
	codes, err := c.codes.List(context.Background())
	if err != nil {
		return err
	}
	for _, code := range codes {
		if code.Code != c.generated.Code {
			continue
		}
		if !code.Used || code.UsedByOrderID != c.lastOrder.ID {
			return errors.Errorf("code %s: used=%v by %q, want order %q",
				code.Code, code.Used, code.UsedByOrderID, c.lastOrder.ID)
		}
		return nil
	}
	return errors.Errorf("code %s not found", c.generated.Code)
}

func (c *checkoutTestContext) statsShowOrdersWithItems(orders, items int) error {
	st, err := c.stats.Get(context.Background())
	if err != nil {
		return err
	}
	if st.OrderCount != orders || st.ItemsPurchased != items {
		return errors.Errorf("got %d orders with %d items", st.OrderCount, st.ItemsPurchased)
	}
	return nil
}

func (c *checkoutTestContext) statsShowCodes(issued, used int) error {
	st, err := c.stats.Get(context.Background())
	if err != nil {
		return err
	}
	if st.DiscountCodesIssued != issued || st.DiscountCodesUsed != used {
		return errors.Errorf("got %d codes issued and %d used", st.DiscountCodesIssued, st.DiscountCodesUsed)
	}
	return nil
}

func (c *checkoutTestContext) statsShowRevenue(revenue, discounts int64) error {
	st, err := c.stats.Get(context.Background())
	if err != nil {
		return err
	}
	if st.RevenueCents != revenue || st.TotalDiscountsGivenCents != discounts {
		return errors.Errorf("got revenue %d and discounts %d", st.RevenueCents, st.TotalDiscountsGivenCents)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	// Given steps
	ctx.Step(`^a store that grants a code every (\d+) orders at (\d+) percent$`, tc.aStoreThatGrantsACodeEveryOrdersAtPercent)
	ctx.Step(`^cart "([^"]*)" holds (\d+) of "([^"]*)"$`, tc.cartHolds)
	ctx.Step(`^(\d+) orders have been placed$`, tc.ordersHaveBeenPlaced)

	// When steps
	ctx.Step(`^I check out cart "([^"]*)"$`, tc.iCheckOutCart)
	ctx.Step(`^I check out cart "([^"]*)" with code "([^"]*)"$`, tc.iCheckOutCartWithCode)
	ctx.Step(`^I check out cart "([^"]*)" with the generated code$`, tc.iCheckOutCartWithTheGeneratedCode)
	ctx.Step(`^I generate a discount code$`, tc.iGenerateADiscountCode)
	ctx.Step(`^I generate a discount code with percent (\d+)$`, tc.iGenerateADiscountCodeWithPercent)

	// Then steps
	ctx.Step(`^generation succeeds with (\d+) percent$`, tc.generationSucceedsWithPercent)
	ctx.Step(`^generation fails with "([^"]*)"$`, tc.failsWith)
	ctx.Step(`^checkout fails with "([^"]*)"$`, tc.failsWith)
	ctx.Step(`^the order subtotal is (\d+) cents$`, tc.orderAmountIs("subtotal"))
	ctx.Step(`^the order discount is (\d+) cents$`, tc.orderAmountIs("discount"))
	ctx.Step(`^the order total is (\d+) cents$`, tc.orderAmountIs("total"))
	ctx.Step(`^cart "([^"]*)" no longer exists$`, func(id string) error { return tc.cartExists(id, false) })
	ctx.Step(`^cart "([^"]*)" still exists$`, func(id string) error { return tc.cartExists(id, true) })
	ctx.Step(`^the generated code is used by the last order$`, tc.theGeneratedCodeIsUsedByTheLastOrder)
	ctx.Step(`^stats show (\d+) orders with (\d+) items purchased$`, tc.statsShowOrdersWithItems)
	ctx.Step(`^stats show (\d+) codes issued and (\d+) used$`, tc.statsShowCodes)
	ctx.Step(`^stats show revenue of (\d+) cents and discounts of (\d+) cents$`, tc.statsShowRevenue)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
