package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/oolio-storefront/internal/domain/cart"
	"github.com/xenking/oolio-storefront/internal/domain/discount"
)

const maxBodyBytes = 1 << 20

// readObject decodes the request body as a JSON object, calling field for
// each key. An empty body decodes as {}. Client errors returned by field are
// kept; anything else becomes errInvalidJSON.
func readObject(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return errors.Wrap(err, "read body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return errInvalidJSON
	}

	if err := d.Obj(field); err != nil {
		if status, _ := statusOf(err); status < http.StatusInternalServerError {
			return err
		}
		return errInvalidJSON
	}
	return nil
}

// optString reads a string or null. Other types yield wrong.
func optString(d *jx.Decoder, wrong error) (string, error) {
	switch d.Next() {
	case jx.Null:
		return "", d.Null()
	case jx.String:
		return d.Str()
	default:
		if err := d.Skip(); err != nil {
			return "", err
		}
		return "", wrong
	}
}

type upsertCartRequest struct {
	CartID string
	Items  []cart.Item
}

func decodeUpsertCart(w http.ResponseWriter, r *http.Request) (*upsertCartRequest, error) {
	var (
		req     upsertCartRequest
		isArray bool
	)
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "cartId":
			v, err := optString(d, errCartIDNeeded)
			req.CartID = v
			return err
		case "items":
			if d.Next() != jx.Array {
				return d.Skip()
			}
			isArray = true
			return d.Arr(func(d *jx.Decoder) error {
				it, err := decodeCartItem(d)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, it)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, err
	}
	if !isArray || len(req.Items) == 0 {
		return nil, errItemsNeeded
	}
	return &req, nil
}

func decodeCartItem(d *jx.Decoder) (cart.Item, error) {
	var (
		it      cart.Item
		hasQty  bool
		invalid bool
	)
	if d.Next() != jx.Object {
		return it, errInvalidItem
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			if d.Next() != jx.String {
				invalid = true
				return d.Skip()
			}
			v, err := d.Str()
			it.ProductID = v
			return err
		case "quantity":
			if d.Next() != jx.Number {
				invalid = true
				return d.Skip()
			}
			n, err := d.Num()
			if err != nil {
				return err
			}
			q, err := n.Int64()
			if err != nil {
				invalid = true
				return nil
			}
			switch {
			case q > cart.MaxQuantity:
				return cart.ErrQuantityTooLarge
			case q < 0:
				// Non-positive lines are dropped by the merge.
				q = 0
			}
			it.Quantity = int(q)
			hasQty = true
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return it, err
	}
	if invalid || it.ProductID == "" || !hasQty {
		return it, errInvalidItem
	}
	return it, nil
}

type checkoutRequest struct {
	CartID       string
	DiscountCode string
}

func decodeCheckout(w http.ResponseWriter, r *http.Request) (*checkoutRequest, error) {
	var req checkoutRequest
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "cartId":
			v, err := optString(d, errCartIDNeeded)
			req.CartID = v
			return err
		case "discountCode":
			v, err := optString(d, errInvalidJSON)
			req.DiscountCode = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, err
	}
	if req.CartID == "" {
		return nil, errCartIDNeeded
	}
	return &req, nil
}

// decodeGenerate returns the optional percent override.
func decodeGenerate(w http.ResponseWriter, r *http.Request) (*int, error) {
	var percent *int
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "percent" {
			return d.Skip()
		}
		switch d.Next() {
		case jx.Null:
			return d.Null()
		case jx.Number:
			n, err := d.Num()
			if err != nil {
				return err
			}
			v, err := n.Int64()
			if err != nil {
				return discount.ErrInvalidPercent
			}
			p := int(v)
			percent = &p
			return nil
		default:
			if err := d.Skip(); err != nil {
				return err
			}
			return discount.ErrInvalidPercent
		}
	})
	if err != nil {
		return nil, err
	}
	return percent, nil
}
