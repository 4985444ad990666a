package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/songviet/po-admin/internal/admin/backend"
	"github.com/songviet/po-admin/internal/admin/products"
)

// ListProducts serves GET /products. When an `order` query parameter names an
// order, products its line items reference are appended to the active list so
// the editor can still render retired products.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	values := r.URL.Query()
	perPage, _ := strconv.Atoi(values.Get("per_page"))
	query := products.ListQuery{
		CategoryID: backend.ID(strings.TrimSpace(values.Get("category_id"))),
		Status:     strings.TrimSpace(values.Get("status")),
		PerPage:    perPage,
	}

	list, err := h.products.List(r.Context(), user.Token, query)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if orderRef := strings.TrimSpace(values.Get("order")); orderRef != "" {
		order, err := h.orders.Get(r.Context(), user.Token, orderRef)
		if err != nil {
			h.respondError(w, err)
			return
		}
		referenced := make([]products.Product, 0, len(order.Items))
		for _, item := range order.Items {
			referenced = append(referenced, products.Product{
				ID:    item.ProductID,
				Code:  item.ProductCode,
				Name:  item.ProductName,
				Price: item.Price,
				Color: item.Color,
			})
		}
		list = products.MergeReferenced(list, referenced)
	}

	out := make([]productJSON, 0, len(list))
	for _, product := range list {
		out = append(out, productToJSON(product))
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"products": out})
}

type productJSON struct {
	ID         backend.ID      `json:"id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Barcode    string          `json:"barcode,omitempty"`
	Color      string          `json:"color,omitempty"`
	Status     string          `json:"status"`
	CategoryID backend.ID      `json:"categoryId"`
}

func productToJSON(product products.Product) productJSON {
	return productJSON{
		ID:         product.ID,
		Code:       product.Code,
		Name:       product.Name,
		Price:      product.Price,
		Barcode:    product.Barcode,
		Color:      product.Color,
		Status:     product.Status,
		CategoryID: product.CategoryID,
	}
}
