package memory

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/xenking/oolio-storefront/internal/domain/discount"
)

const (
	codeFilterCapacity = 100_000
	codeFilterFPR      = 0.001
)

var _ discount.Repository = (*DiscountStore)(nil)

// DiscountStore implements discount.Repository in memory. A bloom filter of
// issued values answers most lookups for unknown codes without touching the
// index.
type DiscountStore struct {
	mu     sync.RWMutex
	codes  []discount.Code
	index  map[string]int
	filter *bloom.BloomFilter
}

// NewDiscountStore returns an empty DiscountStore.
func NewDiscountStore() *DiscountStore {
	return &DiscountStore{
		index:  make(map[string]int),
		filter: bloom.NewWithEstimates(codeFilterCapacity, codeFilterFPR),
	}
}

// List returns copies of all codes in issuance order.
func (s *DiscountStore) List(_ context.Context) ([]discount.Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(), nil
}

// Find returns discount.ErrCodeNotFound for unknown values.
func (s *DiscountStore) Find(_ context.Context, code string) (*discount.Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.lookup(code)
	if !ok {
		return nil, discount.ErrCodeNotFound
	}
	c := s.codes[i]
	return &c, nil
}

// Issue runs fn under the write lock and appends its result.
func (s *DiscountStore) Issue(_ context.Context, fn func(existing []discount.Code) (*discount.Code, error)) (*discount.Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := fn(s.snapshot())
	if err != nil {
		return nil, err
	}
	if _, ok := s.lookup(c.Code); ok {
		return nil, discount.ErrDuplicateCode
	}

	s.index[c.Code] = len(s.codes)
	s.codes = append(s.codes, *c)
	s.filter.AddString(c.Code)

	out := *c
	return &out, nil
}

// MarkUsed flags the code as used by orderID. Unknown codes are ignored.
func (s *DiscountStore) MarkUsed(_ context.Context, code, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(code)
	if !ok {
		return nil
	}
	s.codes[i].Used = true
	s.codes[i].UsedByOrderID = orderID
	return nil
}

// lookup must be called with s.mu held.
func (s *DiscountStore) lookup(code string) (int, bool) {
	if !s.filter.TestString(code) {
		return 0, false
	}
	i, ok := s.index[code]
	return i, ok
}

func (s *DiscountStore) snapshot() []discount.Code {
	out := make([]discount.Code, len(s.codes))
	copy(out, s.codes)
	return out
}
