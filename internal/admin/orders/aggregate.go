package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/songviet/po-admin/internal/admin/backend"
	"github.com/songviet/po-admin/internal/admin/categories"
	"github.com/songviet/po-admin/internal/admin/products"
)

// manualEntryColor is the variant assigned to hand-keyed line items.
const manualEntryColor = "000"

// Aggregate is the in-memory projection of an order under edit. It is owned
// by a single editing session, mutated locally, and flattened back to a wire
// payload on save. Totals recompute on every item mutation.
type Aggregate struct {
	ID                backend.ID
	Number            string
	Kind              OrderKind
	SupplierName      string
	IntendedUse       string
	CategoryID        backend.ID
	OrderDate         string
	EstimatedDelivery string
	Status            StatusType
	StatusName        string
	Notes             string
	Shipping          decimal.Decimal
	Items             []LineItem

	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// NewAggregate starts an empty draft for a brand-new order.
func NewAggregate() *Aggregate {
	agg := &Aggregate{
		Status: StatusNew,
	}
	agg.Recompute()
	return agg
}

// AggregateFromOrder rebuilds the editing projection from a fetched order.
// When the order itself has no category, the first item's product supplies it.
func AggregateFromOrder(order *Order) *Aggregate {
	agg := &Aggregate{
		ID:                order.ID,
		Number:            order.Number,
		Kind:              KindOfNumber(order.Number),
		SupplierName:      order.SupplierName,
		IntendedUse:       order.IntendedUse,
		CategoryID:        order.CategoryID,
		OrderDate:         order.OrderDate,
		EstimatedDelivery: order.EstimatedDelivery,
		Status:            order.Status,
		StatusName:        order.StatusName,
		Notes:             order.Notes,
		Shipping:          order.Shipping,
		Items:             append([]LineItem(nil), order.Items...),
	}
	agg.Recompute()
	return agg
}

// AddItem appends a blank line item. Under the manual-entry category the item
// gets a synthetic sequential code and the sentinel color; otherwise product
// details are filled in later by SetItemProduct.
func (a *Aggregate) AddItem() {
	item := LineItem{
		ID:          backend.ID(transientIDPrefix + "-" + uuid.NewString()),
		Quantity:    1,
		QuantityOld: 1,
		Price:       decimal.Zero,
	}
	if a.CategoryID == categories.ManualEntryID {
		item.ProductID = backend.ID("MANUAL-" + uuid.NewString())
		item.ProductCode = fmt.Sprintf("%s0000%04d", a.CategoryID, len(a.Items)+1)
		item.Color = manualEntryColor
	}
	a.Items = append(a.Items, item)
	a.Recompute()
}

// SetItemProduct points the item at a catalog product and back-fills its
// code, name, price, and color. An unknown product id clears them.
func (a *Aggregate) SetItemProduct(index int, productID backend.ID, catalog []products.Product) error {
	if index < 0 || index >= len(a.Items) {
		return fmt.Errorf("orders: item index %d out of range", index)
	}
	item := &a.Items[index]
	item.ProductID = productID
	item.ProductCode = ""
	item.ProductName = ""
	item.Price = decimal.Zero
	item.Color = ""
	for _, p := range catalog {
		if p.ID == productID {
			item.ProductCode = p.Code
			item.ProductName = p.Name
			item.Price = p.Price
			item.Color = p.Color
			break
		}
	}
	a.Recompute()
	return nil
}

// SetItemQuantity parses and sets the quantity, falling back to 1.
func (a *Aggregate) SetItemQuantity(index int, raw string) error {
	return a.setItemInt(index, raw, func(item *LineItem, v int) { item.Quantity = v })
}

// SetItemQuantityOld parses and sets the secondary quantity, falling back to 1.
func (a *Aggregate) SetItemQuantityOld(index int, raw string) error {
	return a.setItemInt(index, raw, func(item *LineItem, v int) { item.QuantityOld = v })
}

func (a *Aggregate) setItemInt(index int, raw string, assign func(*LineItem, int)) error {
	if index < 0 || index >= len(a.Items) {
		return fmt.Errorf("orders: item index %d out of range", index)
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		value = 1
	}
	assign(&a.Items[index], value)
	a.Recompute()
	return nil
}

// SetItemPrice parses and sets the unit price, falling back to 0.
func (a *Aggregate) SetItemPrice(index int, raw string) error {
	if index < 0 || index >= len(a.Items) {
		return fmt.Errorf("orders: item index %d out of range", index)
	}
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		value = decimal.Zero
	}
	a.Items[index].Price = value
	a.Recompute()
	return nil
}

// SetItemColor sets the item's color/variant directly.
func (a *Aggregate) SetItemColor(index int, color string) error {
	if index < 0 || index >= len(a.Items) {
		return fmt.Errorf("orders: item index %d out of range", index)
	}
	a.Items[index].Color = color
	a.Recompute()
	return nil
}

// RemoveItem drops the item at index. On a merged order still in its draft
// status, removing a persisted item instead asks the backend to split that
// line out into a new standalone order; the item leaves the local list only
// after the split succeeds. Any other removal is purely local.
func (a *Aggregate) RemoveItem(ctx context.Context, token string, index int, splitter Splitter) error {
	if index < 0 || index >= len(a.Items) {
		return fmt.Errorf("orders: item index %d out of range", index)
	}
	item := a.Items[index]

	if a.Kind == KindMerged && a.Status == StatusMergedDraft && item.Persisted() {
		if splitter == nil {
			return fmt.Errorf("orders: split requires a backend service")
		}
		if err := splitter.Split(ctx, token, a.Number, []backend.ID{item.ID}); err != nil {
			return err
		}
	}

	a.Items = append(a.Items[:index], a.Items[index+1:]...)
	a.Recompute()
	return nil
}

// Recompute refreshes subtotal and total from the item list. Tax and shipping
// do not participate in the total.
func (a *Aggregate) Recompute() {
	subtotal := decimal.Zero
	for _, item := range a.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	a.Subtotal = subtotal
	a.Tax = decimal.Zero
	a.Total = subtotal
}

// Validate rejects drafts the user must fix before any backend call.
func (a *Aggregate) Validate() error {
	if a.CategoryID.IsZero() {
		return &ValidationError{Field: "industry_id", Message: "a category must be selected"}
	}
	orderDate, err := ParseDate(a.OrderDate)
	if err != nil {
		return &ValidationError{Field: "orderDate", Message: "order date is invalid"}
	}
	delivery, err := ParseDate(a.EstimatedDelivery)
	if err != nil {
		return &ValidationError{Field: "estimated_delivery", Message: "estimated delivery date is invalid"}
	}
	if !delivery.After(orderDate) {
		return &ValidationError{Field: "estimated_delivery", Message: "estimated delivery must be after the order date"}
	}
	return nil
}

// UpdatePayload is the wire shape for rewriting an existing order.
type UpdatePayload struct {
	OrderDate         string              `json:"orderDate"`
	IntendedUse       string              `json:"intended_use"`
	IndustryID        backend.ID          `json:"industry_id"`
	SupplierName      string              `json:"supplier_name"`
	Items             []UpdatePayloadItem `json:"items"`
	Status            StatusType          `json:"status"`
	StatusName        string              `json:"status_name"`
	EstimatedDelivery string              `json:"estimated_delivery"`
	Shipping          float64             `json:"shipping"`
	Notes             string              `json:"notes"`
}

// UpdatePayloadItem carries the color under the variant key.
type UpdatePayloadItem struct {
	ProductCode string  `json:"productCode"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	QuantityOld int     `json:"quantityOld"`
	Variant     string  `json:"variant"`
	Price       float64 `json:"price"`
}

// CreatePayload is the wire shape for registering a new order.
type CreatePayload struct {
	OrderDate         string              `json:"orderDate"`
	SupplierName      string              `json:"supplier_name"`
	IndustryID        backend.ID          `json:"industry_id"`
	IntendedUse       string              `json:"intended_use"`
	Status            StatusType          `json:"status"`
	EstimatedDelivery string              `json:"estimated_delivery"`
	Shipping          float64             `json:"shipping"`
	Notes             string              `json:"notes"`
	Items             []CreatePayloadItem `json:"items"`
}

// CreatePayloadItem keeps the legacy misspelled secondary-quantity key the
// backend's create endpoint was built around. Fixing the spelling here would
// silently drop the field server-side.
type CreatePayloadItem struct {
	ProductCode string  `json:"productCode"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	QuantityOld int     `json:"quatityOld"`
	Color       string  `json:"color"`
	Price       float64 `json:"price"`
}

// BuildUpdatePayload validates the draft and flattens it for the update
// endpoint. The product code falls back to the product id when no code was
// ever assigned.
func (a *Aggregate) BuildUpdatePayload() (*UpdatePayload, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	payload := &UpdatePayload{
		OrderDate:         a.OrderDate,
		IntendedUse:       a.IntendedUse,
		IndustryID:        a.CategoryID,
		SupplierName:      a.SupplierName,
		Status:            a.Status,
		StatusName:        a.StatusName,
		EstimatedDelivery: a.EstimatedDelivery,
		Shipping:          a.Shipping.InexactFloat64(),
		Notes:             a.Notes,
		Items:             make([]UpdatePayloadItem, 0, len(a.Items)),
	}
	for _, item := range a.Items {
		payload.Items = append(payload.Items, UpdatePayloadItem{
			ProductCode: itemCode(item),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			QuantityOld: item.QuantityOld,
			Variant:     item.Color,
			Price:       item.Price.InexactFloat64(),
		})
	}
	return payload, nil
}

// BuildCreatePayload validates the draft and flattens it for the create
// endpoint.
func (a *Aggregate) BuildCreatePayload() (*CreatePayload, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	payload := &CreatePayload{
		OrderDate:         a.OrderDate,
		SupplierName:      a.SupplierName,
		IndustryID:        a.CategoryID,
		IntendedUse:       a.IntendedUse,
		Status:            a.Status,
		EstimatedDelivery: a.EstimatedDelivery,
		Shipping:          a.Shipping.InexactFloat64(),
		Notes:             a.Notes,
		Items:             make([]CreatePayloadItem, 0, len(a.Items)),
	}
	for _, item := range a.Items {
		payload.Items = append(payload.Items, CreatePayloadItem{
			ProductCode: itemCode(item),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			QuantityOld: item.QuantityOld,
			Color:       item.Color,
			Price:       item.Price.InexactFloat64(),
		})
	}
	return payload, nil
}

func itemCode(item LineItem) string {
	if item.ProductCode != "" {
		return item.ProductCode
	}
	return item.ProductID.String()
}
