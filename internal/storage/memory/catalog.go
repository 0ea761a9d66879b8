package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-storefront/db"
	"github.com/xenking/oolio-storefront/internal/domain/product"
)

var _ product.Catalog = (*Catalog)(nil)

// Catalog is an immutable product catalog. It needs no locking because it is
// never written after construction.
type Catalog struct {
	products []product.Product
	byID     map[string]int
}

// NewCatalog builds a catalog from products. Duplicate ids are rejected.
func NewCatalog(products []product.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]product.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for _, p := range products {
		if p.ID == "" {
			return nil, errors.New("product id is required")
		}
		if p.PriceCents < 0 {
			return nil, errors.Errorf("product %s: negative price", p.ID)
		}
		if _, ok := c.byID[p.ID]; ok {
			return nil, errors.Errorf("duplicate product id %q", p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// List returns all products in seed order.
func (c *Catalog) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

// GetByID returns product.ErrNotFound for unknown ids.
func (c *Catalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := c.products[i]
	return &p, nil
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

type productJSON struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// DefaultCatalog returns the embedded seed catalog.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(db.Products))
}

// LoadCatalogFile reads a JSON seed file. Files ending in .gz are
// decompressed first.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	return LoadCatalog(r)
}

// LoadCatalog parses a JSON array of {id, name, price} where price is a
// decimal amount in major units, e.g. "19.99". Prices must be exact to the cent.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var raw []productJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}

	products := make([]product.Product, 0, len(raw))
	for _, p := range raw {
		cents, err := ToCents(p.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "product %s", p.ID)
		}
		products = append(products, product.Product{
			ID:         p.ID,
			Name:       p.Name,
			PriceCents: cents,
		})
	}

	return NewCatalog(products)
}

// ToCents converts a major-unit decimal amount to integer cents.
func ToCents(d decimal.Decimal) (int64, error) {
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, errors.Errorf("price %s has fractional cents", d)
	}
	if cents.IsNegative() {
		return 0, errors.Errorf("price %s is negative", d)
	}
	return cents.IntPart(), nil
}

// WriteCatalog writes products in the format LoadCatalog reads.
func WriteCatalog(w io.Writer, products []product.Product) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, p := range products {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(p.ID)
		e.FieldStart("name")
		e.Str(p.Name)
		e.FieldStart("price")
		e.Str(decimal.New(p.PriceCents, -2).StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()

	if _, err := w.Write(e.Bytes()); err != nil {
		return errors.Wrap(err, "write catalog")
	}
	return nil
}
