// Package products exposes the read-only product catalog used when editing
// purchase-order line items.
package products

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/songviet/po-admin/internal/admin/backend"
)

// Status values reported by the backend catalog.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Product is a catalog entry. Price is the unit price line items inherit
// when a product is picked.
type Product struct {
	ID         backend.ID      `json:"id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Barcode    string          `json:"barcode"`
	Color      string          `json:"color"`
	Status     string          `json:"status"`
	CategoryID backend.ID      `json:"categoryId"`
}

// ListQuery narrows a catalog listing.
type ListQuery struct {
	CategoryID backend.ID
	Status     string
	PerPage    int
}

// Service lists catalog products for the order editor.
type Service interface {
	List(ctx context.Context, token string, query ListQuery) ([]Product, error)
}

// MergeReferenced prepends to active any referenced product missing from it,
// marked inactive. Existing line items on an order must stay renderable even
// after their product is retired from the active catalog.
func MergeReferenced(active []Product, referenced []Product) []Product {
	loaded := make(map[backend.ID]struct{}, len(active))
	for _, p := range active {
		loaded[p.ID] = struct{}{}
	}

	var missing []Product
	for _, p := range referenced {
		if p.ID.IsZero() {
			continue
		}
		if _, ok := loaded[p.ID]; ok {
			continue
		}
		p.Status = StatusInactive
		p.Barcode = ""
		missing = append(missing, p)
		loaded[p.ID] = struct{}{}
	}
	if len(missing) == 0 {
		return active
	}
	return append(missing, active...)
}
