package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/songviet/po-admin/internal/admin/backend"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HTTPService implements Service against the remote order backend.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService constructs a Service that talks to the order backend.
func NewHTTPService(client *backend.Client) *HTTPService {
	return &HTTPService{client: client}
}

type listRowWire struct {
	ID           backend.ID      `json:"id"`
	OrderNumber  string          `json:"order_number"`
	SupplierName string          `json:"supplier_name"`
	CustomerName string          `json:"customer_name"`
	IntendedUse  string          `json:"intended_use"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Total        decimal.Decimal `json:"total"`
	Status       StatusType      `json:"status"`
	StatusName   string          `json:"status_name"`
	CreatedAt    string          `json:"created_at"`
	OrderDate    string          `json:"order_date"`
	ItemsCount   int             `json:"items_count"`
	Items        []struct {
		ID          backend.ID      `json:"id"`
		ProductCode string          `json:"product_code"`
		ProductName string          `json:"product_name"`
		Quantity    int             `json:"quantity"`
		QuantityOld int             `json:"quantity_old"`
		Price       decimal.Decimal `json:"price"`
		Total       decimal.Decimal `json:"total"`
	} `json:"items"`
}

func (w listRowWire) toRow() ListRow {
	row := ListRow{
		ID:           w.ID,
		Number:       w.OrderNumber,
		Kind:         KindOfNumber(w.OrderNumber),
		SupplierName: w.SupplierName,
		CustomerName: w.CustomerName,
		IntendedUse:  w.IntendedUse,
		Total:        w.TotalAmount,
		Status:       w.Status,
		StatusName:   w.StatusName,
		OrderDate:    w.CreatedAt,
		ItemsCount:   w.ItemsCount,
	}
	if row.Total.IsZero() {
		row.Total = w.Total
	}
	if row.OrderDate == "" {
		row.OrderDate = w.OrderDate
	}
	for _, it := range w.Items {
		total := it.Total
		if total.IsZero() {
			total = it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		}
		row.Items = append(row.Items, ListRowItem{
			ID:          it.ID,
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			QuantityOld: it.QuantityOld,
			Price:       it.Price,
			Total:       total,
		})
	}
	return row
}

type orderWire struct {
	ID                backend.ID      `json:"id"`
	OrderNumber       string          `json:"order_number"`
	SupplierName      string          `json:"supplier_name"`
	IntendedUse       string          `json:"intended_use"`
	IndustryID        backend.ID      `json:"industry_id"`
	OrderDate         string          `json:"order_date"`
	EstimatedDelivery string          `json:"estimated_delivery"`
	Status            StatusType      `json:"status"`
	StatusName        string          `json:"status_name"`
	Notes             string          `json:"notes"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Tax               decimal.Decimal `json:"tax"`
	Shipping          decimal.Decimal `json:"shipping"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Items             []struct {
		ID      backend.ID `json:"id"`
		Product struct {
			ID         backend.ID      `json:"id"`
			Code       string          `json:"code"`
			Name       string          `json:"name"`
			Price      decimal.Decimal `json:"price"`
			CategoryID backend.ID      `json:"categoryId"`
			Color      string          `json:"color"`
		} `json:"product"`
		Quantity    int             `json:"quantity"`
		QuantityOld int             `json:"quantity_old"`
		Price       decimal.Decimal `json:"price"`
		Variant     string          `json:"variant"`
	} `json:"items"`
}

func (w orderWire) toOrder() *Order {
	order := &Order{
		ID:                w.ID,
		Number:            w.OrderNumber,
		Kind:              KindOfNumber(w.OrderNumber),
		SupplierName:      w.SupplierName,
		IntendedUse:       w.IntendedUse,
		CategoryID:        w.IndustryID,
		OrderDate:         w.OrderDate,
		EstimatedDelivery: w.EstimatedDelivery,
		Status:            w.Status,
		StatusName:        w.StatusName,
		Notes:             w.Notes,
		Subtotal:          w.Subtotal,
		Tax:               w.Tax,
		Shipping:          w.Shipping,
		Total:             w.TotalAmount,
	}
	for _, it := range w.Items {
		item := LineItem{
			ID:          it.ID,
			ProductID:   it.Product.ID,
			ProductCode: it.Product.Code,
			ProductName: it.Product.Name,
			Quantity:    it.Quantity,
			QuantityOld: it.QuantityOld,
			Price:       it.Price,
			Color:       it.Product.Color,
		}
		if item.Price.IsZero() {
			item.Price = it.Product.Price
		}
		if item.Color == "" {
			item.Color = it.Variant
		}
		if order.CategoryID.IsZero() {
			order.CategoryID = it.Product.CategoryID
		}
		order.Items = append(order.Items, item)
	}
	return order
}

// List retrieves one page of orders or merged orders.
func (s *HTTPService) List(ctx context.Context, token string, query ListQuery) (*ListPage, error) {
	endpoint := "/orders"
	if query.Merged {
		endpoint = "/merge-orders"
	}

	values := url.Values{}
	page := query.Page
	if page < 1 {
		page = 1
	}
	values.Set("page", strconv.Itoa(page))
	if query.Search != "" {
		values.Set("q", query.Search)
	}
	if query.Status != "" && query.Status != "all" {
		values.Set("status", query.Status)
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 6
	}
	values.Set("limit", strconv.Itoa(limit))
	if query.Group != "" {
		values.Set("group", query.Group)
	}

	req, err := s.client.NewRequest(ctx, http.MethodGet, endpoint+"?"+values.Encode(), nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.client.ErrorFromResponse(resp)
	}

	var payload struct {
		Data     []listRowWire `json:"data"`
		LastPage int           `json:"last_page"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("orders: decode list: %w", err)
	}

	result := &ListPage{Page: page, LastPage: payload.LastPage}
	for _, row := range payload.Data {
		result.Rows = append(result.Rows, row.toRow())
	}
	return result, nil
}

// Get retrieves the full order detail. Merged order numbers route to the
// merge-order collection.
func (s *HTTPService) Get(ctx context.Context, token string, idOrNumber string) (*Order, error) {
	req, err := s.client.NewRequest(ctx, http.MethodGet, s.detailEndpoint(idOrNumber), nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, s.client.ErrorFromResponse(resp)
	}

	var payload struct {
		Order *orderWire `json:"order"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("orders: decode detail: %w", err)
	}
	if payload.Order == nil {
		return nil, ErrNotFound
	}
	return payload.Order.toOrder(), nil
}

// Create registers a new order.
func (s *HTTPService) Create(ctx context.Context, token string, payload CreatePayload) error {
	req, err := s.client.NewJSONRequest(ctx, http.MethodPost, "/orders", payload, token)
	if err != nil {
		return err
	}
	return s.doExpectOK(req)
}

// Update rewrites an existing order, routed by its number's kind.
func (s *HTTPService) Update(ctx context.Context, token string, orderNumber string, payload UpdatePayload) error {
	req, err := s.client.NewJSONRequest(ctx, http.MethodPut, s.detailEndpoint(orderNumber), payload, token)
	if err != nil {
		return err
	}
	return s.doExpectOK(req)
}

// Delete removes an order by number.
func (s *HTTPService) Delete(ctx context.Context, token string, orderNumber string) error {
	req, err := s.client.NewRequest(ctx, http.MethodDelete, path.Join("/orders", url.PathEscape(orderNumber)), nil, token)
	if err != nil {
		return err
	}
	return s.doExpectOK(req)
}

// Stats retrieves the dashboard counters for the order list.
func (s *HTTPService) Stats(ctx context.Context, token string, group string, merged bool) (*Stats, error) {
	endpoint := "/orders/stats"
	if merged {
		endpoint = "/merge-orders/stats"
	}
	if group != "" {
		endpoint += "?group=" + url.QueryEscape(group)
	}

	req, err := s.client.NewRequest(ctx, http.MethodGet, endpoint, nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.client.ErrorFromResponse(resp)
	}

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("orders: decode stats: %w", err)
	}
	return &stats, nil
}

// EligibleIDs returns every order id system-wide in the given status. The
// bulk select-all deliberately escapes pagination through this endpoint.
func (s *HTTPService) EligibleIDs(ctx context.Context, token string, status StatusType) ([]backend.ID, error) {
	endpoint := fmt.Sprintf("/orders/ids?status=%d", status)
	req, err := s.client.NewRequest(ctx, http.MethodGet, endpoint, nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.client.ErrorFromResponse(resp)
	}

	var ids []backend.ID
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, fmt.Errorf("orders: decode eligible ids: %w", err)
	}
	return ids, nil
}

// Merge combines the selected orders into a new merged order.
func (s *HTTPService) Merge(ctx context.Context, token string, orderIDs []backend.ID) error {
	if len(orderIDs) == 0 {
		return ErrNothingSelected
	}
	body := map[string]any{"order_ids": orderIDs}
	req, err := s.client.NewJSONRequest(ctx, http.MethodPost, "/orders/merge", body, token)
	if err != nil {
		return err
	}
	return s.doExpectOK(req)
}

// Split moves the given line items out of a merged order into a new
// standalone draft.
func (s *HTTPService) Split(ctx context.Context, token string, mergeNumber string, lineIDs []backend.ID) error {
	if len(lineIDs) == 0 {
		return ErrNothingSelected
	}
	body := map[string]any{
		"merge_id": mergeNumber,
		"line_ids": lineIDs,
	}
	req, err := s.client.NewJSONRequest(ctx, http.MethodPost, "/orders/split", body, token)
	if err != nil {
		return err
	}
	return s.doExpectOK(req)
}

// Import uploads a spreadsheet of orders for the given category and returns
// the backend's result message.
func (s *HTTPService) Import(ctx context.Context, token string, industryID backend.ID, filename string, file io.Reader) (string, error) {
	if industryID.IsZero() {
		return "", &ValidationError{Field: "industry_id", Message: "a category must be selected before importing"}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("orders: build import form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("orders: read import file: %w", err)
	}
	if err := writer.WriteField("industry_id", industryID.String()); err != nil {
		return "", fmt.Errorf("orders: build import form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("orders: build import form: %w", err)
	}

	req, err := s.client.NewRequest(ctx, http.MethodPost, "/orders/import", &buf, token)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", s.client.ErrorFromResponse(resp)
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("orders: decode import result: %w", err)
	}
	return payload.Message, nil
}

// Export downloads the spreadsheet for the selected orders.
func (s *HTTPService) Export(ctx context.Context, token string, orderIDs []backend.ID) (*ExportFile, error) {
	if len(orderIDs) == 0 {
		return nil, ErrNothingSelected
	}
	return s.exportBlob(ctx, token, "/export-order", map[string]any{"order_ids": orderIDs}, "orders.xlsx")
}

// ExportMonths downloads the merged-order spreadsheet for the given months.
func (s *HTTPService) ExportMonths(ctx context.Context, token string, months []string) (*ExportFile, error) {
	if len(months) == 0 {
		return nil, ErrNothingSelected
	}
	return s.exportBlob(ctx, token, "/export-merged-orders-multi-months", map[string]any{"months": months}, "don-gop-theo-thang.xlsx")
}

// ExportYears downloads the merged-order spreadsheet for the given years.
func (s *HTTPService) ExportYears(ctx context.Context, token string, years []string) (*ExportFile, error) {
	if len(years) == 0 {
		return nil, ErrNothingSelected
	}
	return s.exportBlob(ctx, token, "/export-merged-orders-multi-years", map[string]any{"years": years}, "don-gop-theo-nam.xlsx")
}

// MergedByMonth proxies the merged-order monthly grouping unchanged.
func (s *HTTPService) MergedByMonth(ctx context.Context, token string) (json.RawMessage, error) {
	return s.rawGet(ctx, token, "/orders/merged-by-month")
}

// MergedByYear proxies the merged-order yearly grouping unchanged.
func (s *HTTPService) MergedByYear(ctx context.Context, token string) (json.RawMessage, error) {
	return s.rawGet(ctx, token, "/orders/merged-by-year")
}

// Statuses retrieves the status catalog.
func (s *HTTPService) Statuses(ctx context.Context, token string) ([]StatusDescriptor, error) {
	req, err := s.client.NewRequest(ctx, http.MethodGet, "/order-statuses", nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.client.ErrorFromResponse(resp)
	}

	var catalog []StatusDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("orders: decode status catalog: %w", err)
	}
	return catalog, nil
}

func (s *HTTPService) detailEndpoint(idOrNumber string) string {
	collection := "/orders"
	if KindOfNumber(idOrNumber) == KindMerged {
		collection = "/merge-orders"
	}
	return path.Join(collection, url.PathEscape(idOrNumber))
}

func (s *HTTPService) doExpectOK(req *http.Request) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return s.client.ErrorFromResponse(resp)
	}
}

func (s *HTTPService) rawGet(ctx context.Context, token, endpoint string) (json.RawMessage, error) {
	req, err := s.client.NewRequest(ctx, http.MethodGet, endpoint, nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.client.ErrorFromResponse(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("orders: read grouping: %w", err)
	}
	return json.RawMessage(raw), nil
}

func (s *HTTPService) exportBlob(ctx context.Context, token, endpoint string, body map[string]any, fallbackName string) (*ExportFile, error) {
	req, err := s.client.NewJSONRequest(ctx, http.MethodPost, endpoint, body, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.client.ErrorFromResponse(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("orders: read export: %w", err)
	}

	file := &ExportFile{
		Filename:    fallbackName,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}
	if file.ContentType == "" {
		file.ContentType = xlsxContentType
	}
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				file.Filename = name
			}
		}
	}
	return file, nil
}
