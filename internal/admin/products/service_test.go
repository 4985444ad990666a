package products

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/songviet/po-admin/internal/admin/backend"
)

func TestMergeReferenced(t *testing.T) {
	t.Parallel()

	active := []Product{
		{ID: "p-1", Code: "A-1", Status: StatusActive},
		{ID: "p-2", Code: "A-2", Status: StatusActive},
	}

	t.Run("missing products prepended as inactive", func(t *testing.T) {
		t.Parallel()
		referenced := []Product{
			{ID: "p-2", Code: "A-2"},
			{ID: "p-9", Code: "OLD-9", Name: "Retired item", Price: decimal.NewFromInt(500), Barcode: "893000", Status: StatusActive},
		}
		got := MergeReferenced(active, referenced)
		require.Len(t, got, 3)
		require.Equal(t, backend.ID("p-9"), got[0].ID)
		require.Equal(t, StatusInactive, got[0].Status)
		require.Empty(t, got[0].Barcode)
		require.Equal(t, backend.ID("p-1"), got[1].ID)
	})

	t.Run("no missing products returns active unchanged", func(t *testing.T) {
		t.Parallel()
		got := MergeReferenced(active, []Product{{ID: "p-1"}})
		require.Equal(t, active, got)
	})

	t.Run("empty ids skipped", func(t *testing.T) {
		t.Parallel()
		got := MergeReferenced(active, []Product{{ID: "", Code: "X"}})
		require.Len(t, got, 2)
	})

	t.Run("duplicate references folded", func(t *testing.T) {
		t.Parallel()
		got := MergeReferenced(nil, []Product{{ID: "p-9"}, {ID: "p-9"}})
		require.Len(t, got, 1)
	})
}

func TestHTTPServiceList(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "2000", r.URL.Query().Get("per_page"))
		require.Equal(t, "active", r.URL.Query().Get("status"))
		require.Equal(t, "5", r.URL.Query().Get("category_id"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"products": []map[string]any{
				{"id": 200, "code": "NL-200", "name": "Hạt nhựa PP", "price": 31000, "status": "active", "categoryId": 5},
			},
		})
	}))
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	svc := NewHTTPService(client)
	got, err := svc.List(context.Background(), "tok", ListQuery{CategoryID: "5", Status: StatusActive})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, backend.ID("200"), got[0].ID)
	require.Equal(t, backend.ID("5"), got[0].CategoryID)
	require.True(t, got[0].Price.Equal(decimal.NewFromInt(31000)))
}

func TestHTTPServiceListBackendError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"forbidden","message":"no access"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = NewHTTPService(client).List(context.Background(), "tok", ListQuery{})
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, backend.StatusFromError(err))
}

func TestStaticServiceList(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	got, err := svc.List(context.Background(), "", ListQuery{CategoryID: "3", Status: StatusActive})
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = svc.List(context.Background(), "", ListQuery{PerPage: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
}
