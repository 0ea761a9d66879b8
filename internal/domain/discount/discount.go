package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotEligible is returned when every slot accrued so far already has a code.
	ErrNotEligible = errors.New("Not eligible to generate discount code yet")
	// ErrCodeNotFound is returned when no issued code matches the value exactly.
	ErrCodeNotFound = errors.New("Discount code not found")
	// ErrCodeUsed is returned when the matched code was already consumed by an order.
	ErrCodeUsed = errors.New("Discount code has already been used")
	// ErrInvalidPercent is returned when a percent override is outside 5..75 or
	// not a multiple of 5.
	ErrInvalidPercent = errors.New("percent must be between 5 and 75 in steps of 5")
	// ErrDuplicateCode is returned by stores asked to issue a code value that
	// already exists.
	ErrDuplicateCode = errors.New("discount code already exists")
)

// Percent override bounds accepted by the admin generator.
const (
	MinOverridePercent  = 5
	MaxOverridePercent  = 75
	OverridePercentStep = 5
)

// Code is an issued single-use discount code.
type Code struct {
	Code    string
	Percent int
	Used    bool
	// UsedByOrderID is empty until the code is consumed.
	UsedByOrderID string
	CreatedAt     time.Time
}

// Config drives code issuance: one slot accrues every N completed orders and
// codes default to XPercent off.
type Config struct {
	N        int
	XPercent int
}

// Repository stores issued codes. Codes are append-only except for the
// used flag.
type Repository interface {
	List(ctx context.Context) ([]Code, error)
	// Find returns ErrCodeNotFound when no code matches.
	Find(ctx context.Context, code string) (*Code, error)
	// Issue calls fn with a snapshot of all issued codes while holding the
	// store's write lock and appends the returned code. Errors from fn are
	// returned unchanged and nothing is stored.
	Issue(ctx context.Context, fn func(existing []Code) (*Code, error)) (*Code, error)
	// MarkUsed flags the code as consumed by orderID. Unknown codes are ignored.
	MarkUsed(ctx context.Context, code, orderID string) error
}

// OrderCounter reports how many orders have been completed.
type OrderCounter interface {
	Count(ctx context.Context) (int, error)
}
