package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/songviet/po-admin/internal/admin/backend"
	"github.com/songviet/po-admin/internal/admin/export"
	"github.com/songviet/po-admin/internal/admin/orders"
)

const maxImportMemory = 32 << 20

// ListOrders serves GET /orders.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, false)
}

// ListMergedOrders serves GET /merge-orders.
func (h *Handlers) ListMergedOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, true)
}

func (h *Handlers) listOrders(w http.ResponseWriter, r *http.Request, merged bool) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	query := buildListQuery(r)
	query.Merged = merged

	page, err := h.orders.List(r.Context(), user.Token, query)
	if err != nil {
		h.respondError(w, err)
		return
	}

	rows := make([]listRowJSON, 0, len(page.Rows))
	for _, row := range page.Rows {
		rows = append(rows, listRowToJSON(row))
	}
	h.respondJSON(w, http.StatusOK, listPageJSON{
		Data:     rows,
		Page:     page.Page,
		LastPage: page.LastPage,
	})
}

func buildListQuery(r *http.Request) orders.ListQuery {
	values := r.URL.Query()
	page, _ := strconv.Atoi(values.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(values.Get("limit"))
	return orders.ListQuery{
		Page:   page,
		Search: strings.TrimSpace(values.Get("q")),
		Status: strings.TrimSpace(values.Get("status")),
		Limit:  limit,
		Group:  strings.TrimSpace(values.Get("group")),
	}
}

// OrderStats serves GET /orders/stats.
func (h *Handlers) OrderStats(w http.ResponseWriter, r *http.Request) {
	h.orderStats(w, r, false)
}

// MergedOrderStats serves GET /merge-orders/stats.
func (h *Handlers) MergedOrderStats(w http.ResponseWriter, r *http.Request) {
	h.orderStats(w, r, true)
}

func (h *Handlers) orderStats(w http.ResponseWriter, r *http.Request, merged bool) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	group := strings.TrimSpace(r.URL.Query().Get("group"))
	stats, err := h.orders.Stats(r.Context(), user.Token, group, merged)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, statsJSON{
		Stats:    stats,
		Captions: orders.CaptionsFor(user.Actor()),
	})
}

// EligibleOrderIDs serves GET /orders/ids. The status filter defaults to the
// settled type, the only one bulk merge operates on.
func (h *Handlers) EligibleOrderIDs(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	status := orders.StatusSettled
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.respondMessage(w, http.StatusBadRequest, "status must be numeric")
			return
		}
		status = orders.StatusType(parsed)
	}

	ids, err := h.orders.EligibleIDs(r.Context(), user.Token, status)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if ids == nil {
		ids = []backend.ID{}
	}
	h.respondJSON(w, http.StatusOK, ids)
}

// GetOrder serves GET /orders/{number} and GET /merge-orders/{number}. The
// response bundles the detail with the status transitions available to the
// acting user.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	number := chi.URLParam(r, "number")
	order, err := h.orders.Get(r.Context(), user.Token, number)
	if err != nil {
		h.respondError(w, err)
		return
	}

	catalog, err := h.orders.Statuses(r.Context(), user.Token)
	if err != nil {
		h.respondError(w, err)
		return
	}

	transitions := orders.AvailableTransitions(catalog, order, user.Actor())
	out := make([]transitionJSON, 0, len(transitions))
	for _, descriptor := range transitions {
		out = append(out, transitionJSON{
			ID:          descriptor.ID,
			Name:        descriptor.Name,
			Type:        descriptor.Type,
			NeedsReason: orders.TransitionNeedsReason(descriptor.Type),
		})
	}

	h.respondJSON(w, http.StatusOK, orderDetailJSON{
		Order:          orderToJSON(order),
		Transitions:    out,
		CanEditDetails: orders.CanEditDetails(order, false),
	})
}

// CreateOrder serves POST /orders.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var draft orderDraftJSON
	if err := decodeBody(r, &draft); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agg := draft.toAggregate()
	if agg.Status == 0 {
		agg.Status = orders.StatusNew
	}
	payload, err := agg.BuildCreatePayload()
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.orders.Create(r.Context(), user.Token, *payload); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusCreated, "order created")
}

// UpdateOrder serves PUT /orders/{number} and PUT /merge-orders/{number}.
func (h *Handlers) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	number := chi.URLParam(r, "number")
	var draft orderDraftJSON
	if err := decodeBody(r, &draft); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agg := draft.toAggregate()
	agg.Number = number
	agg.Kind = orders.KindOfNumber(number)
	payload, err := agg.BuildUpdatePayload()
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.orders.Update(r.Context(), user.Token, number, *payload); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, "order updated")
}

// DeleteOrder serves DELETE /orders/{number}.
func (h *Handlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	if err := h.orders.Delete(r.Context(), user.Token, chi.URLParam(r, "number")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mergeRequest struct {
	OrderIDs []backend.ID `json:"order_ids"`
}

// MergeOrders serves POST /orders/merge.
func (h *Handlers) MergeOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req mergeRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.orders.Merge(r.Context(), user.Token, req.OrderIDs); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, "orders merged")
}

type splitRequest struct {
	MergeNumber string       `json:"merge_number"`
	LineIDs     []backend.ID `json:"line_ids"`
}

// SplitOrder serves POST /orders/split. Line items named here are carved out
// of the merged order back into a standalone one.
func (h *Handlers) SplitOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req splitRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.MergeNumber) == "" {
		h.respondMessage(w, http.StatusBadRequest, "merge_number is required")
		return
	}

	if err := h.orders.Split(r.Context(), user.Token, req.MergeNumber, req.LineIDs); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, "order split")
}

// ImportOrders serves POST /orders/import with a multipart spreadsheet.
func (h *Handlers) ImportOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImportMemory); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	industryID := backend.ID(strings.TrimSpace(r.FormValue("industry_id")))

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondMessage(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	message, err := h.orders.Import(r.Context(), user.Token, industryID, header.Filename, file)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, message)
}

type exportRequest struct {
	OrderIDs []backend.ID `json:"order_ids"`
}

// ExportOrders serves POST /export-order, proxying the backend spreadsheet.
func (h *Handlers) ExportOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req exportRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	blob, err := h.orders.Export(r.Context(), user.Token, req.OrderIDs)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondBlob(w, blob)
}

// QuickExportOrders serves POST /export-order/quick. Instead of asking the
// backend for a spreadsheet it fetches the selected orders and renders the
// workbook locally.
func (h *Handlers) QuickExportOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req exportRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.OrderIDs) == 0 {
		h.respondError(w, orders.ErrNothingSelected)
		return
	}

	fetched := make([]*orders.Order, 0, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		order, err := h.orders.Get(r.Context(), user.Token, id.String())
		if err != nil {
			h.respondError(w, err)
			return
		}
		fetched = append(fetched, order)
	}

	data, err := export.Workbook(fetched)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondBlob(w, &orders.ExportFile{
		Filename:    export.Filename(time.Now()),
		ContentType: export.ContentType,
		Data:        data,
	})
}

type monthsRequest struct {
	Months []string `json:"months"`
}

// ExportMergedByMonths serves POST /export-merged-orders-multi-months.
func (h *Handlers) ExportMergedByMonths(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req monthsRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	blob, err := h.orders.ExportMonths(r.Context(), user.Token, req.Months)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondBlob(w, blob)
}

type yearsRequest struct {
	Years []string `json:"years"`
}

// ExportMergedByYears serves POST /export-merged-orders-multi-years.
func (h *Handlers) ExportMergedByYears(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req yearsRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	blob, err := h.orders.ExportYears(r.Context(), user.Token, req.Years)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondBlob(w, blob)
}

func (h *Handlers) respondBlob(w http.ResponseWriter, blob *orders.ExportFile) {
	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if blob.Filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+blob.Filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob.Data); err != nil {
		h.logger.Error("write export", zap.Error(err))
	}
}

// MergedOrdersByMonth serves GET /orders/merged-by-month. The backend's
// grouping payload is passed through untouched.
func (h *Handlers) MergedOrdersByMonth(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	raw, err := h.orders.MergedByMonth(r.Context(), user.Token)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondRaw(w, raw)
}

// MergedOrdersByYear serves GET /orders/merged-by-year.
func (h *Handlers) MergedOrdersByYear(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	raw, err := h.orders.MergedByYear(r.Context(), user.Token)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondRaw(w, raw)
}

func (h *Handlers) respondRaw(w http.ResponseWriter, raw []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		h.logger.Error("write raw response", zap.Error(err))
	}
}

// OrderStatuses serves GET /order-statuses.
func (h *Handlers) OrderStatuses(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	catalog, err := h.orders.Statuses(r.Context(), user.Token)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, catalog)
}

// Wire DTOs for the SPA-facing JSON. The domain structs stay tag-free so the
// gateway owns the outward field names.

type listPageJSON struct {
	Data     []listRowJSON `json:"data"`
	Page     int           `json:"page"`
	LastPage int           `json:"last_page"`
}

type listRowJSON struct {
	ID           backend.ID        `json:"id"`
	Number       string            `json:"number"`
	Merged       bool              `json:"merged"`
	SupplierName string            `json:"supplier_name"`
	CustomerName string            `json:"customer_name,omitempty"`
	IntendedUse  string            `json:"intended_use,omitempty"`
	Total        decimal.Decimal   `json:"total"`
	Status       orders.StatusType `json:"status"`
	StatusName   string            `json:"status_name"`
	OrderDate    string            `json:"order_date"`
	ItemsCount   int               `json:"items_count"`
	Items        []listItemJSON    `json:"items,omitempty"`
}

type listItemJSON struct {
	ID          backend.ID      `json:"id"`
	ProductCode string          `json:"productCode"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	QuantityOld int             `json:"quantityOld"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

func listRowToJSON(row orders.ListRow) listRowJSON {
	items := make([]listItemJSON, 0, len(row.Items))
	for _, item := range row.Items {
		items = append(items, listItemJSON{
			ID:          item.ID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			QuantityOld: item.QuantityOld,
			Price:       item.Price,
			Total:       item.Total,
		})
	}
	return listRowJSON{
		ID:           row.ID,
		Number:       row.Number,
		Merged:       row.Kind == orders.KindMerged,
		SupplierName: row.SupplierName,
		CustomerName: row.CustomerName,
		IntendedUse:  row.IntendedUse,
		Total:        row.Total,
		Status:       row.Status,
		StatusName:   row.StatusName,
		OrderDate:    row.OrderDate,
		ItemsCount:   row.ItemsCount,
		Items:        items,
	}
}

type statsJSON struct {
	*orders.Stats
	Captions orders.StatCaptions `json:"captions"`
}

type transitionJSON struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Type        orders.StatusType `json:"type"`
	NeedsReason bool              `json:"needsReason"`
}

type orderDetailJSON struct {
	Order          orderJSON        `json:"order"`
	Transitions    []transitionJSON `json:"transitions"`
	CanEditDetails bool             `json:"canEditDetails"`
}

type orderJSON struct {
	ID                backend.ID        `json:"id"`
	Number            string            `json:"number"`
	Merged            bool              `json:"merged"`
	SupplierName      string            `json:"supplier_name"`
	IntendedUse       string            `json:"intended_use"`
	CategoryID        backend.ID        `json:"industry_id"`
	OrderDate         string            `json:"orderDate"`
	EstimatedDelivery string            `json:"estimated_delivery"`
	Status            orders.StatusType `json:"status"`
	StatusName        string            `json:"status_name"`
	Notes             string            `json:"notes"`
	Items             []orderItemJSON   `json:"items"`
	Subtotal          decimal.Decimal   `json:"subtotal"`
	Tax               decimal.Decimal   `json:"tax"`
	Shipping          decimal.Decimal   `json:"shipping"`
	Total             decimal.Decimal   `json:"total"`
}

type orderItemJSON struct {
	ID          backend.ID      `json:"id"`
	ProductID   backend.ID      `json:"productId"`
	ProductCode string          `json:"productCode"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	QuantityOld int             `json:"quantityOld"`
	Price       decimal.Decimal `json:"price"`
	Color       string          `json:"color"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

func orderToJSON(order *orders.Order) orderJSON {
	items := make([]orderItemJSON, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemJSON{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			QuantityOld: item.QuantityOld,
			Price:       item.Price,
			Color:       item.Color,
			LineTotal:   item.LineTotal(),
		})
	}
	return orderJSON{
		ID:                order.ID,
		Number:            order.Number,
		Merged:            order.Kind == orders.KindMerged,
		SupplierName:      order.SupplierName,
		IntendedUse:       order.IntendedUse,
		CategoryID:        order.CategoryID,
		OrderDate:         order.OrderDate,
		EstimatedDelivery: order.EstimatedDelivery,
		Status:            order.Status,
		StatusName:        order.StatusName,
		Notes:             order.Notes,
		Items:             items,
		Subtotal:          order.Subtotal,
		Tax:               order.Tax,
		Shipping:          order.Shipping,
		Total:             order.Total,
	}
}

type orderDraftJSON struct {
	SupplierName      string               `json:"supplier_name"`
	IntendedUse       string               `json:"intended_use"`
	CategoryID        backend.ID           `json:"industry_id"`
	OrderDate         string               `json:"orderDate"`
	EstimatedDelivery string               `json:"estimated_delivery"`
	Status            orders.StatusType    `json:"status"`
	StatusName        string               `json:"status_name"`
	Notes             string               `json:"notes"`
	Shipping          float64              `json:"shipping"`
	Items             []orderDraftItemJSON `json:"items"`
}

type orderDraftItemJSON struct {
	ID          backend.ID `json:"id"`
	ProductID   backend.ID `json:"productId"`
	ProductCode string     `json:"productCode"`
	ProductName string     `json:"productName"`
	Quantity    int        `json:"quantity"`
	QuantityOld int        `json:"quantityOld"`
	Price       float64    `json:"price"`
	Color       string     `json:"color"`
}

func (d orderDraftJSON) toAggregate() *orders.Aggregate {
	agg := &orders.Aggregate{
		SupplierName:      d.SupplierName,
		IntendedUse:       d.IntendedUse,
		CategoryID:        d.CategoryID,
		OrderDate:         d.OrderDate,
		EstimatedDelivery: d.EstimatedDelivery,
		Status:            d.Status,
		StatusName:        d.StatusName,
		Notes:             d.Notes,
		Shipping:          decimal.NewFromFloat(d.Shipping),
	}
	for _, item := range d.Items {
		agg.Items = append(agg.Items, orders.LineItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			QuantityOld: item.QuantityOld,
			Price:       decimal.NewFromFloat(item.Price),
			Color:       item.Color,
		})
	}
	agg.Recompute()
	return agg
}
