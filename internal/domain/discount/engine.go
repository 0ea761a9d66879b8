package discount

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/go-faster/errors"
)

const (
	// Alphabet omits the confusable I, O, 0 and 1.
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// CodeLength is the number of characters in a generated code.
	CodeLength = 8
)

// CanGenerate reports whether a new code may be issued: one slot accrues per n
// completed orders and each issued code consumes one slot.
func CanGenerate(totalOrders, codesIssued, n int) bool {
	if n <= 0 {
		return false
	}
	return codesIssued < totalOrders/n
}

// ValidateOverride checks an admin supplied percent override.
func ValidateOverride(percent int) error {
	if percent < MinOverridePercent || percent > MaxOverridePercent || percent%OverridePercentStep != 0 {
		return ErrInvalidPercent
	}
	return nil
}

// Validate finds codeValue in codes by exact match and checks that it has
// not been used. The returned code is a copy; codes is never modified.
func Validate(codeValue string, codes []Code) (*Code, error) {
	for i := range codes {
		if codes[i].Code != codeValue {
			continue
		}
		found := codes[i]
		if err := checkUsable(&found); err != nil {
			return nil, err
		}
		return &found, nil
	}
	return nil, ErrCodeNotFound
}

func checkUsable(c *Code) error {
	if c.Used {
		return ErrCodeUsed
	}
	return nil
}

// ComputeDiscount applies percent to subtotalCents, flooring the discount.
// A non-positive subtotal or percent yields no discount and leaves the
// subtotal untouched, negative values included. Percent above 100 is
// treated as 100.
func ComputeDiscount(subtotalCents, percent int64) (discountAmountCents, totalCents int64) {
	if subtotalCents <= 0 || percent <= 0 {
		return 0, subtotalCents
	}
	if percent > 100 {
		percent = 100
	}
	// floor(s*p/100) split as (s/100)*p + floor((s%100)*p/100) so that no
	// intermediate exceeds subtotalCents.
	discountAmountCents = subtotalCents/100*percent + subtotalCents%100*percent/100
	return discountAmountCents, subtotalCents - discountAmountCents
}

// Generator issues new codes.
type Generator struct {
	random io.Reader
	now    func() time.Time
}

// NewGenerator returns a Generator backed by crypto/rand and the wall clock.
func NewGenerator() *Generator {
	return &Generator{random: rand.Reader, now: time.Now}
}

// GenerateIfEligible returns a fresh unused code when the issuance rule allows
// one, or ErrNotEligible. The percent is override when non-nil, otherwise
// cfg.XPercent. The code value never collides with existing.
func (g *Generator) GenerateIfEligible(totalOrders int, existing []Code, cfg Config, override *int) (*Code, error) {
	if !CanGenerate(totalOrders, len(existing), cfg.N) {
		return nil, ErrNotEligible
	}

	percent := cfg.XPercent
	if override != nil {
		percent = *override
	}

	taken := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		taken[c.Code] = struct{}{}
	}

	value, err := g.uniqueCode(taken)
	if err != nil {
		return nil, err
	}

	return &Code{
		Code:      value,
		Percent:   percent,
		CreatedAt: g.now().UTC(),
	}, nil
}

// uniqueCode resamples until the value is not in taken.
func (g *Generator) uniqueCode(taken map[string]struct{}) (string, error) {
	for {
		value, err := g.randomCode()
		if err != nil {
			return "", err
		}
		if _, ok := taken[value]; !ok {
			return value, nil
		}
	}
}

// randomCode maps one random byte per character. len(Alphabet) divides 256,
// so the mapping is uniform.
func (g *Generator) randomCode() (string, error) {
	var buf [CodeLength]byte
	if _, err := io.ReadFull(g.random, buf[:]); err != nil {
		return "", errors.Wrap(err, "read random")
	}
	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf[:]), nil
}
