package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/songviet/po-admin/internal/admin/backend"
)

// StaticService keeps orders in memory for development and tests. It mirrors
// the backend's observable behavior closely enough to drive the gateway
// without network access.
type StaticService struct {
	mu      sync.Mutex
	orders  []*Order
	catalog []StatusDescriptor
	nextID  int

	// RenderExport, when set, renders export downloads. The default emits a
	// placeholder blob.
	RenderExport func(orders []*Order) ([]byte, error)
}

// DefaultStatusCatalog is the status catalog the static service serves.
func DefaultStatusCatalog() []StatusDescriptor {
	return []StatusDescriptor{
		{ID: 1, Name: "Mới", Type: StatusNew},
		{ID: 2, Name: "Chờ duyệt", Type: StatusPendingApproval},
		{ID: 3, Name: "Đã duyệt", Type: StatusApproved},
		{ID: 4, Name: "Đang đặt hàng", Type: StatusOrdering},
		{ID: 5, Name: "Từ chối", Type: StatusRejected},
		{ID: 7, Name: "Chốt", Type: StatusSettled},
		{ID: 8, Name: "Nháp gộp", Type: StatusMergedDraft},
		{ID: 9, Name: "Đã nhận hàng", Type: StatusReceived},
		{ID: 10, Name: "Trả về", Type: StatusReturned},
		{ID: 11, Name: "Hoàn thành", Type: StatusCompleted},
		{ID: 17, Name: "Hủy", Type: StatusCancelled},
	}
}

// NewStaticService constructs a StaticService. A nil seed gets a small set
// of sample orders.
func NewStaticService(seed []*Order) *StaticService {
	svc := &StaticService{
		catalog: DefaultStatusCatalog(),
		nextID:  1000,
	}
	if seed == nil {
		seed = []*Order{
			{
				ID: "501", Number: "PO-2026-0501", SupplierName: "Công ty Bao Bì Việt",
				CategoryID: "3", OrderDate: "2026-02-10", EstimatedDelivery: "2026-02-20",
				Status: StatusNew, StatusName: "Mới",
				Items: []LineItem{
					{ID: "9001", ProductID: "p-100", ProductCode: "VT-100", ProductName: "Thùng carton 60x40", Quantity: 50, QuantityOld: 50, Price: decimal.NewFromInt(12500)},
				},
			},
			{
				ID: "502", Number: "PO-2026-0502", SupplierName: "Nhựa Miền Nam",
				CategoryID: "5", OrderDate: "2026-02-11", EstimatedDelivery: "2026-02-25",
				Status: StatusSettled, StatusName: "Chốt",
				Items: []LineItem{
					{ID: "9002", ProductID: "p-200", ProductCode: "NL-200", ProductName: "Hạt nhựa PP", Quantity: 10, QuantityOld: 10, Price: decimal.NewFromInt(31000)},
				},
			},
			{
				ID: "503", Number: "PO-2026-0503", SupplierName: "Nhựa Miền Nam",
				CategoryID: "5", OrderDate: "2026-02-12", EstimatedDelivery: "2026-02-26",
				Status: StatusSettled, StatusName: "Chốt",
				Items: []LineItem{
					{ID: "9003", ProductID: "p-200", ProductCode: "NL-200", ProductName: "Hạt nhựa PP", Quantity: 4, QuantityOld: 4, Price: decimal.NewFromInt(31000)},
				},
			},
		}
	}
	for _, order := range seed {
		order.Kind = KindOfNumber(order.Number)
		recomputeTotals(order)
		svc.orders = append(svc.orders, order)
	}
	return svc
}

func recomputeTotals(order *Order) {
	subtotal := decimal.Zero
	for _, item := range order.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	order.Subtotal = subtotal
	order.Tax = decimal.Zero
	order.Total = subtotal.Add(order.Shipping)
}

// List filters and pages the in-memory orders.
func (s *StaticService) List(ctx context.Context, token string, query ListQuery) (*ListPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wantKind := KindNormal
	if query.Merged {
		wantKind = KindMerged
	}

	var matched []*Order
	search := strings.ToLower(strings.TrimSpace(query.Search))
	for _, order := range s.orders {
		if order.Kind != wantKind {
			continue
		}
		if query.Status != "" && query.Status != "all" && query.Status != fmt.Sprintf("%d", order.Status) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(order.Number), search) &&
			!strings.Contains(strings.ToLower(order.SupplierName), search) {
			continue
		}
		matched = append(matched, order)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 6
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	lastPage := (len(matched) + limit - 1) / limit
	if lastPage < 1 {
		lastPage = 1
	}

	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	result := &ListPage{Page: page, LastPage: lastPage}
	for _, order := range matched[start:end] {
		result.Rows = append(result.Rows, rowFromOrder(order))
	}
	return result, nil
}

func rowFromOrder(order *Order) ListRow {
	row := ListRow{
		ID:           order.ID,
		Number:       order.Number,
		Kind:         order.Kind,
		SupplierName: order.SupplierName,
		IntendedUse:  order.IntendedUse,
		Total:        order.Total,
		Status:       order.Status,
		StatusName:   order.StatusName,
		OrderDate:    order.OrderDate,
		ItemsCount:   len(order.Items),
	}
	for _, item := range order.Items {
		row.Items = append(row.Items, ListRowItem{
			ID:          item.ID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			QuantityOld: item.QuantityOld,
			Price:       item.Price,
			Total:       item.LineTotal(),
		})
	}
	return row
}

// Get looks an order up by id or number.
func (s *StaticService) Get(ctx context.Context, token string, idOrNumber string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.find(idOrNumber)
	if order == nil {
		return nil, ErrNotFound
	}
	copied := *order
	copied.Items = append([]LineItem(nil), order.Items...)
	return &copied, nil
}

func (s *StaticService) find(idOrNumber string) *Order {
	for _, order := range s.orders {
		if order.ID.String() == idOrNumber || order.Number == idOrNumber {
			return order
		}
	}
	return nil
}

// Create registers a new order from the create payload.
func (s *StaticService) Create(ctx context.Context, token string, payload CreatePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	order := &Order{
		ID:                backend.ID(fmt.Sprintf("%d", s.nextID)),
		Number:            fmt.Sprintf("PO-%d", s.nextID),
		Kind:              KindNormal,
		SupplierName:      payload.SupplierName,
		IntendedUse:       payload.IntendedUse,
		CategoryID:        payload.IndustryID,
		OrderDate:         payload.OrderDate,
		EstimatedDelivery: payload.EstimatedDelivery,
		Status:            payload.Status,
		StatusName:        s.statusName(payload.Status),
		Notes:             payload.Notes,
		Shipping:          decimal.NewFromFloat(payload.Shipping),
	}
	for _, it := range payload.Items {
		s.nextID++
		order.Items = append(order.Items, LineItem{
			ID:          backend.ID(fmt.Sprintf("%d", s.nextID)),
			ProductID:   backend.ID(it.ProductCode),
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			QuantityOld: it.QuantityOld,
			Price:       decimal.NewFromFloat(it.Price),
			Color:       it.Color,
		})
	}
	recomputeTotals(order)
	s.orders = append(s.orders, order)
	return nil
}

// Update rewrites an existing order from the update payload.
func (s *StaticService) Update(ctx context.Context, token string, orderNumber string, payload UpdatePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.find(orderNumber)
	if order == nil {
		return ErrNotFound
	}
	order.SupplierName = payload.SupplierName
	order.IntendedUse = payload.IntendedUse
	order.CategoryID = payload.IndustryID
	order.OrderDate = payload.OrderDate
	order.EstimatedDelivery = payload.EstimatedDelivery
	order.Status = payload.Status
	order.StatusName = payload.StatusName
	if order.StatusName == "" {
		order.StatusName = s.statusName(payload.Status)
	}
	order.Notes = payload.Notes
	order.Shipping = decimal.NewFromFloat(payload.Shipping)

	items := make([]LineItem, 0, len(payload.Items))
	for _, it := range payload.Items {
		s.nextID++
		items = append(items, LineItem{
			ID:          backend.ID(fmt.Sprintf("%d", s.nextID)),
			ProductID:   backend.ID(it.ProductCode),
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			QuantityOld: it.QuantityOld,
			Price:       decimal.NewFromFloat(it.Price),
			Color:       it.Variant,
		})
	}
	order.Items = items
	recomputeTotals(order)
	return nil
}

// Delete removes an order by number.
func (s *StaticService) Delete(ctx context.Context, token string, orderNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, order := range s.orders {
		if order.Number == orderNumber || order.ID.String() == orderNumber {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Stats summarises the in-memory orders.
func (s *StaticService) Stats(ctx context.Context, token string, group string, merged bool) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wantKind := KindNormal
	if merged {
		wantKind = KindMerged
	}
	stats := &Stats{Revenue: decimal.Zero}
	for _, order := range s.orders {
		if order.Kind != wantKind {
			continue
		}
		stats.Total++
		switch order.Status {
		case StatusNew, StatusReturned:
			stats.Pending++
		case StatusPendingApproval, StatusApproved, StatusOrdering:
			stats.Processing++
		}
		stats.Revenue = stats.Revenue.Add(order.Total)
	}
	return stats, nil
}

// EligibleIDs returns ids of all orders in the given status, across kinds
// and pages.
func (s *StaticService) EligibleIDs(ctx context.Context, token string, status StatusType) ([]backend.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []backend.ID
	for _, order := range s.orders {
		if order.Status == status {
			ids = append(ids, order.ID)
		}
	}
	return ids, nil
}

// Merge combines the selected orders into a new merged draft carrying all
// their line items.
func (s *StaticService) Merge(ctx context.Context, token string, orderIDs []backend.ID) error {
	if len(orderIDs) == 0 {
		return ErrNothingSelected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var items []LineItem
	for _, id := range orderIDs {
		order := s.find(id.String())
		if order == nil {
			return ErrNotFound
		}
		items = append(items, order.Items...)
	}

	s.nextID++
	merged := &Order{
		ID:         backend.ID(fmt.Sprintf("%d", s.nextID)),
		Number:     fmt.Sprintf("%s-%d", mergedNumberPrefix, s.nextID),
		Kind:       KindMerged,
		Status:     StatusMergedDraft,
		StatusName: s.statusName(StatusMergedDraft),
		Items:      append([]LineItem(nil), items...),
	}
	recomputeTotals(merged)
	s.orders = append(s.orders, merged)
	return nil
}

// Split moves the given line items out of a merged order into a new
// standalone draft order.
func (s *StaticService) Split(ctx context.Context, token string, mergeNumber string, lineIDs []backend.ID) error {
	if len(lineIDs) == 0 {
		return ErrNothingSelected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.find(mergeNumber)
	if merged == nil || merged.Kind != KindMerged {
		return ErrNotFound
	}

	wanted := make(map[backend.ID]bool, len(lineIDs))
	for _, id := range lineIDs {
		wanted[id] = true
	}

	var kept, moved []LineItem
	for _, item := range merged.Items {
		if wanted[item.ID] {
			moved = append(moved, item)
		} else {
			kept = append(kept, item)
		}
	}
	if len(moved) != len(lineIDs) {
		return ErrNotFound
	}

	merged.Items = kept
	recomputeTotals(merged)

	s.nextID++
	standalone := &Order{
		ID:         backend.ID(fmt.Sprintf("%d", s.nextID)),
		Number:     fmt.Sprintf("%s-%d", mergedNumberPrefix, s.nextID),
		Kind:       KindMerged,
		Status:     StatusMergedDraft,
		StatusName: s.statusName(StatusMergedDraft),
		Items:      moved,
	}
	recomputeTotals(standalone)
	s.orders = append(s.orders, standalone)
	return nil
}

// Import acknowledges the upload without parsing it.
func (s *StaticService) Import(ctx context.Context, token string, industryID backend.ID, filename string, file io.Reader) (string, error) {
	if industryID.IsZero() {
		return "", &ValidationError{Field: "industry_id", Message: "a category must be selected before importing"}
	}
	n, err := io.Copy(io.Discard, file)
	if err != nil {
		return "", fmt.Errorf("orders: read import file: %w", err)
	}
	return fmt.Sprintf("Đã nhận file %s (%d bytes)", filename, n), nil
}

// Export renders the selected orders as a download.
func (s *StaticService) Export(ctx context.Context, token string, orderIDs []backend.ID) (*ExportFile, error) {
	if len(orderIDs) == 0 {
		return nil, ErrNothingSelected
	}

	s.mu.Lock()
	var selected []*Order
	for _, id := range orderIDs {
		if order := s.find(id.String()); order != nil {
			selected = append(selected, order)
		}
	}
	s.mu.Unlock()

	data, err := s.render(selected)
	if err != nil {
		return nil, err
	}
	return &ExportFile{Filename: "orders.xlsx", ContentType: xlsxContentType, Data: data}, nil
}

// ExportMonths renders all merged orders as a download, ignoring the grouping.
func (s *StaticService) ExportMonths(ctx context.Context, token string, months []string) (*ExportFile, error) {
	if len(months) == 0 {
		return nil, ErrNothingSelected
	}
	return s.exportMergedAs("don-gop-theo-thang.xlsx")
}

// ExportYears renders all merged orders as a download, ignoring the grouping.
func (s *StaticService) ExportYears(ctx context.Context, token string, years []string) (*ExportFile, error) {
	if len(years) == 0 {
		return nil, ErrNothingSelected
	}
	return s.exportMergedAs("don-gop-theo-nam.xlsx")
}

func (s *StaticService) exportMergedAs(filename string) (*ExportFile, error) {
	s.mu.Lock()
	var merged []*Order
	for _, order := range s.orders {
		if order.Kind == KindMerged {
			merged = append(merged, order)
		}
	}
	s.mu.Unlock()

	data, err := s.render(merged)
	if err != nil {
		return nil, err
	}
	return &ExportFile{Filename: filename, ContentType: xlsxContentType, Data: data}, nil
}

func (s *StaticService) render(orders []*Order) ([]byte, error) {
	if s.RenderExport != nil {
		return s.RenderExport(orders)
	}
	return []byte("PK"), nil
}

// MergedByMonth summarises merged orders by the month of their order date.
func (s *StaticService) MergedByMonth(ctx context.Context, token string) (json.RawMessage, error) {
	return s.groupMerged(func(date string) string {
		if len(date) >= 7 {
			return date[:7]
		}
		return date
	})
}

// MergedByYear summarises merged orders by the year of their order date.
func (s *StaticService) MergedByYear(ctx context.Context, token string) (json.RawMessage, error) {
	return s.groupMerged(func(date string) string {
		if len(date) >= 4 {
			return date[:4]
		}
		return date
	})
}

func (s *StaticService) groupMerged(keyOf func(string) string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type group struct {
		Period string  `json:"period"`
		Count  int     `json:"count"`
		Total  float64 `json:"total"`
	}
	index := map[string]int{}
	var groups []group
	for _, order := range s.orders {
		if order.Kind != KindMerged {
			continue
		}
		key := keyOf(order.OrderDate)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{Period: key})
		}
		groups[i].Count++
		groups[i].Total += order.Total.InexactFloat64()
	}
	return json.Marshal(groups)
}

// Statuses returns the static status catalog.
func (s *StaticService) Statuses(ctx context.Context, token string) ([]StatusDescriptor, error) {
	out := make([]StatusDescriptor, len(s.catalog))
	copy(out, s.catalog)
	return out, nil
}

func (s *StaticService) statusName(t StatusType) string {
	for _, desc := range s.catalog {
		if desc.Type == t {
			return desc.Name
		}
	}
	return ""
}
