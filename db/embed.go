// Package db provides embedded seed data.
package db

import _ "embed"

// Products is the default product catalog, with prices as decimal strings.
//
//go:embed seed/products.json
var Products []byte
