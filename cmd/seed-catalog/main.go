// Command seed-catalog validates a product seed file and optionally writes it
// back out, gzip-compressed when the output name ends in .gz. The result can
// be served by pointing KART_CATALOG_FILE at it.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/xenking/oolio-storefront/internal/storage/memory"
)

func main() {
	var (
		in  string
		out string
	)

	flag.StringVar(&in, "in", "", "product seed file (.json or .json.gz); embedded seed when empty")
	flag.StringVar(&out, "out", "", "write the validated catalog here (.gz compresses)")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(context.Background(), lg, in, out); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, lg *zap.Logger, in, out string) error {
	catalog, err := readCatalog(in)
	if err != nil {
		return err
	}

	products, err := catalog.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	for _, p := range products {
		lg.Info("Product",
			zap.String("id", p.ID),
			zap.String("name", p.Name),
			zap.Int64("price_cents", p.PriceCents),
		)
	}
	lg.Info("Catalog valid", zap.Int("products", len(products)))

	if out == "" {
		return nil
	}
	if err := writeCatalog(out, catalog); err != nil {
		return err
	}
	lg.Info("Catalog written", zap.String("path", out))
	return nil
}

func readCatalog(path string) (*memory.Catalog, error) {
	if path == "" {
		return memory.DefaultCatalog()
	}
	return memory.LoadCatalogFile(path)
}

func writeCatalog(path string, catalog *memory.Catalog) (rerr error) {
	products, err := catalog.List(context.Background())
	if err != nil {
		return errors.Wrap(err, "list products")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = errors.Wrap(err, "close output")
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		gz := pgzip.NewWriter(f)
		defer func() {
			if err := gz.Close(); err != nil && rerr == nil {
				rerr = errors.Wrap(err, "flush gzip")
			}
		}()
		w = gz
	}

	return memory.WriteCatalog(w, products)
}
