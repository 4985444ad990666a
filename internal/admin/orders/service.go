// Package orders implements the purchase-order domain: the status transition
// policy, the editable order aggregate with its line-item lifecycle, bulk
// merge/split coordination, and the clients that talk to the order backend.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/songviet/po-admin/internal/admin/backend"
)

// StatusType is the canonical workflow state of an order. The backend owns
// the enumeration; constants exist only for the values this code branches on.
type StatusType int

const (
	StatusNew             StatusType = 1
	StatusPendingApproval StatusType = 2
	StatusApproved        StatusType = 3
	StatusOrdering        StatusType = 4
	StatusRejected        StatusType = 5
	StatusSettled         StatusType = 7
	StatusMergedDraft     StatusType = 8
	StatusReceived        StatusType = 9
	StatusReturned        StatusType = 10
	StatusCompleted       StatusType = 11
	StatusCancelled       StatusType = 17
)

// UnmarshalJSON accepts both numbers and numeric strings; the backend is not
// consistent about which it sends.
func (t *StatusType) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if trimmed == "" || trimmed == "null" {
		*t = 0
		return nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fmt.Errorf("orders: decode status type %q: %w", trimmed, err)
	}
	*t = StatusType(n)
	return nil
}

// StatusDescriptor is one row of the status catalog. The backend serves the
// catalog with capitalised keys.
type StatusDescriptor struct {
	ID   int        `json:"ID"`
	Name string     `json:"Name"`
	Type StatusType `json:"Type"`
}

// OrderKind distinguishes normal purchase orders from merged ones.
type OrderKind int

const (
	KindNormal OrderKind = iota
	KindMerged
)

// mergedNumberPrefix marks order numbers produced by a bulk merge.
const mergedNumberPrefix = "MP"

// KindOfNumber resolves the order kind from its number. This is the single
// place the prefix convention is interpreted.
func KindOfNumber(orderNumber string) OrderKind {
	if strings.HasPrefix(orderNumber, mergedNumberPrefix) {
		return KindMerged
	}
	return KindNormal
}

// transientIDPrefix marks line items that exist only in the editing session.
const transientIDPrefix = "temp"

// LineItem is one order line. Unsaved items carry a transient identifier so
// removal logic can tell them apart from persisted rows.
type LineItem struct {
	ID          backend.ID
	ProductID   backend.ID
	ProductCode string
	ProductName string
	Quantity    int
	QuantityOld int
	Price       decimal.Decimal
	Color       string
}

// Persisted reports whether the item exists on the backend.
func (it LineItem) Persisted() bool {
	return !it.ID.IsZero() && !strings.HasPrefix(it.ID.String(), transientIDPrefix)
}

// LineTotal returns quantity times unit price.
func (it LineItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Order is the full detail projection of a purchase order.
type Order struct {
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
	Items             []LineItem
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	Shipping          decimal.Decimal
	Total             decimal.Decimal
}

// ListRow is the compact projection returned by the list endpoints.
type ListRow struct {
	ID           backend.ID
	Number       string
	Kind         OrderKind
	SupplierName string
	CustomerName string
	IntendedUse  string
	Total        decimal.Decimal
	Status       StatusType
	StatusName   string
	OrderDate    string
	ItemsCount   int
	Items        []ListRowItem
}

// ListRowItem is a line-item summary on a list row.
type ListRowItem struct {
	ID          backend.ID
	ProductCode string
	ProductName string
	Quantity    int
	QuantityOld int
	Price       decimal.Decimal
	Total       decimal.Decimal
}

// ListQuery narrows an order listing. Merged switches between the normal and
// merged-order collections.
type ListQuery struct {
	Page   int
	Search string
	Status string
	Limit  int
	Group  string
	Merged bool
}

// ListPage is one page of order rows.
type ListPage struct {
	Rows     []ListRow
	Page     int
	LastPage int
}

// Stats is the dashboard summary for the order list.
type Stats struct {
	Total      int             `json:"total_orders"`
	Pending    int             `json:"pending_orders"`
	Processing int             `json:"processing_orders"`
	Revenue    decimal.Decimal `json:"total_revenue"`
}

// ExportFile is a spreadsheet blob proxied from the backend.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ErrNotFound indicates the requested order does not exist.
var ErrNotFound = errors.New("orders: not found")

// ErrNothingSelected indicates a bulk operation was requested with an empty
// selection.
var ErrNothingSelected = errors.New("orders: no orders selected")

// ValidationError reports a rejected order draft before any backend call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("orders: %s: %s", e.Field, e.Message)
}

// Service is the order backend surface. Every call carries the acting staff
// member's bearer token.
type Service interface {
	List(ctx context.Context, token string, query ListQuery) (*ListPage, error)
	Get(ctx context.Context, token string, idOrNumber string) (*Order, error)
	Create(ctx context.Context, token string, payload CreatePayload) error
	Update(ctx context.Context, token string, orderNumber string, payload UpdatePayload) error
	Delete(ctx context.Context, token string, orderNumber string) error
	Stats(ctx context.Context, token string, group string, merged bool) (*Stats, error)

	EligibleIDs(ctx context.Context, token string, status StatusType) ([]backend.ID, error)
	Merge(ctx context.Context, token string, orderIDs []backend.ID) error
	Split(ctx context.Context, token string, mergeNumber string, lineIDs []backend.ID) error

	Import(ctx context.Context, token string, industryID backend.ID, filename string, file io.Reader) (string, error)
	Export(ctx context.Context, token string, orderIDs []backend.ID) (*ExportFile, error)
	ExportMonths(ctx context.Context, token string, months []string) (*ExportFile, error)
	ExportYears(ctx context.Context, token string, years []string) (*ExportFile, error)

	MergedByMonth(ctx context.Context, token string) (json.RawMessage, error)
	MergedByYear(ctx context.Context, token string) (json.RawMessage, error)
	Statuses(ctx context.Context, token string) ([]StatusDescriptor, error)
}

// Splitter is the narrow slice of Service the line-item lifecycle needs when
// removing a persisted item from a merged draft.
type Splitter interface {
	Split(ctx context.Context, token string, mergeNumber string, lineIDs []backend.ID) error
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate parses the date formats the backend emits.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("orders: unrecognized date %q", value)
}
