package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/songviet/po-admin/internal/admin/backend"
	"github.com/songviet/po-admin/internal/admin/export"
	custommw "github.com/songviet/po-admin/internal/admin/httpserver/middleware"
	"github.com/songviet/po-admin/internal/admin/orders"
	"github.com/songviet/po-admin/internal/admin/rbac"
)

func newTestHandlers(opts ...func(*Dependencies)) *Handlers {
	deps := Dependencies{}
	for _, opt := range opts {
		opt(&deps)
	}
	return NewHandlers(deps)
}

func authedRequest(method, target string, body []byte) *http.Request {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	user := &custommw.User{
		Email: "staff@example.com",
		Role:  rbac.RoleSupply,
		Token: "tok",
	}
	return req.WithContext(custommw.ContextWithUser(req.Context(), user))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// failingOrders returns the configured error from every method a test
// exercises. Untouched methods panic via the embedded nil interface.
type failingOrders struct {
	orders.Service
	err error
}

func (f *failingOrders) List(ctx context.Context, token string, query orders.ListQuery) (*orders.ListPage, error) {
	return nil, f.err
}

func (f *failingOrders) Get(ctx context.Context, token string, idOrNumber string) (*orders.Order, error) {
	return nil, f.err
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "upstream status forwarded",
			err:        &backend.Error{StatusCode: http.StatusConflict, Message: "duplicate"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unreachable backend",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "not found",
			err:        orders.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "empty selection",
			err:        orders.ErrNothingSelected,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "draft validation",
			err:        &orders.ValidationError{Field: "industry_id", Message: "a category must be selected"},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newTestHandlers(func(deps *Dependencies) {
				deps.OrderService = &failingOrders{err: tc.err}
			})
			rec := httptest.NewRecorder()
			h.ListOrders(rec, authedRequest(http.MethodGet, "/orders", nil))
			require.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestBackendMessageSurfacedVerbatim(t *testing.T) {
	t.Parallel()

	h := newTestHandlers(func(deps *Dependencies) {
		deps.OrderService = &failingOrders{err: &backend.Error{
			StatusCode: http.StatusConflict,
			Code:       "conflict",
			Message:    "order already merged",
		}}
	})
	rec := httptest.NewRecorder()
	h.ListOrders(rec, authedRequest(http.MethodGet, "/orders", nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// The upstream message alone, not the wrapped error string.
	require.Equal(t, "order already merged", resp["message"])
}

func TestCreateOrderRejectsMissingCategory(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	body := []byte(`{"supplier_name":"ACME","orderDate":"2026-03-01","estimated_delivery":"2026-03-10"}`)
	rec := httptest.NewRecorder()
	h.CreateOrder(rec, authedRequest(http.MethodPost, "/orders", body))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "industry_id", resp["field"])
}

func TestCreateOrderDefaultsStatusNew(t *testing.T) {
	t.Parallel()

	var captured orders.CreatePayload
	h := newTestHandlers(func(deps *Dependencies) {
		deps.OrderService = &captureOrders{create: &captured}
	})

	body := []byte(`{
		"supplier_name":"ACME",
		"industry_id":"3",
		"orderDate":"2026-03-01",
		"estimated_delivery":"2026-03-10",
		"items":[{"productId":"p-100","productCode":"VT-100","quantity":2,"quantityOld":2,"price":12500}]
	}`)
	rec := httptest.NewRecorder()
	h.CreateOrder(rec, authedRequest(http.MethodPost, "/orders", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, orders.StatusNew, captured.Status)
	require.Len(t, captured.Items, 1)
	require.Equal(t, "VT-100", captured.Items[0].ProductCode)
}

func TestUpdateOrderValidatesDates(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	body := []byte(`{"supplier_name":"ACME","industry_id":"3","orderDate":"2026-03-10","estimated_delivery":"2026-03-01"}`)
	req := withURLParam(authedRequest(http.MethodPut, "/orders/PO-2026-0501", body), "number", "PO-2026-0501")
	rec := httptest.NewRecorder()
	h.UpdateOrder(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "estimated_delivery", resp["field"])
}

func TestImportOrdersMultipart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("industry_id", "3"))
	part, err := writer.CreateFormFile("file", "orders.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("PK"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	h := newTestHandlers()
	req := authedRequest(http.MethodPost, "/orders/import", buf.Bytes())
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ImportOrders(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["message"])
}

func TestImportOrdersRequiresFile(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("industry_id", "3"))
	require.NoError(t, writer.Close())

	h := newTestHandlers()
	req := authedRequest(http.MethodPost, "/orders/import", buf.Bytes())
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ImportOrders(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuickExportRendersWorkbook(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	body := []byte(`{"order_ids":["501","502"]}`)
	rec := httptest.NewRecorder()
	h.QuickExportOrders(rec, authedRequest(http.MethodPost, "/export-order/quick", body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "don-hang-")
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx payload should be a zip")
}

func TestQuickExportRejectsEmptySelection(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	rec := httptest.NewRecorder()
	h.QuickExportOrders(rec, authedRequest(http.MethodPost, "/export-order/quick", []byte(`{"order_ids":[]}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProductsMergesOrderReferences(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()

	// PO-2026-0502 references p-200; narrow the catalog to category 3 so the
	// referenced product has to be re-included as inactive.
	req := authedRequest(http.MethodGet, "/products?category_id=3&order=PO-2026-0502", nil)
	rec := httptest.NewRecorder()
	h.ListProducts(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Products []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	statusByID := map[string]string{}
	for _, p := range resp.Products {
		statusByID[p.ID] = p.Status
	}
	require.Equal(t, "inactive", statusByID["p-200"])
	require.Equal(t, "active", statusByID["p-100"])
}

func TestProfileListsCapabilities(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	rec := httptest.NewRecorder()
	h.Profile(rec, authedRequest(http.MethodGet, "/auth/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, string(rbac.CapOrdersMerge)))
}

// captureOrders records create payloads and succeeds.
type captureOrders struct {
	orders.Service
	create *orders.CreatePayload
}

func (c *captureOrders) Create(ctx context.Context, token string, payload orders.CreatePayload) error {
	*c.create = payload
	return nil
}
