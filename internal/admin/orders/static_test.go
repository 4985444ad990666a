package orders

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/songviet/po-admin/internal/admin/backend"
)

func TestStaticServiceListAndGet(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	ctx := context.Background()

	page, err := svc.List(ctx, "", ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Rows, 3)
	require.Equal(t, 1, page.LastPage)

	page, err = svc.List(ctx, "", ListQuery{Status: "7"})
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)

	page, err = svc.List(ctx, "", ListQuery{Search: "bao bì"})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)

	order, err := svc.Get(ctx, "", "PO-2026-0501")
	require.NoError(t, err)
	require.Equal(t, backend.ID("501"), order.ID)
	require.True(t, order.Total.Equal(order.Subtotal))

	_, err = svc.Get(ctx, "", "PO-404")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStaticServiceCreateUpdateDelete(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	ctx := context.Background()

	err := svc.Create(ctx, "", CreatePayload{
		OrderDate:         "2026-03-01",
		EstimatedDelivery: "2026-03-10",
		SupplierName:      "Giấy Sài Gòn",
		IndustryID:        "3",
		Status:            StatusNew,
		Items: []CreatePayloadItem{
			{ProductCode: "VT-9", ProductName: "Giấy gói", Quantity: 2, QuantityOld: 2, Price: 1000},
		},
	})
	require.NoError(t, err)

	page, err := svc.List(ctx, "", ListQuery{Search: "giấy"})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	number := page.Rows[0].Number

	err = svc.Update(ctx, "", number, UpdatePayload{
		SupplierName: "Giấy Sài Gòn",
		IndustryID:   "3",
		Status:       StatusSettled,
		Items: []UpdatePayloadItem{
			{ProductCode: "VT-9", Quantity: 5, QuantityOld: 2, Price: 1000},
		},
	})
	require.NoError(t, err)

	order, err := svc.Get(ctx, "", number)
	require.NoError(t, err)
	require.Equal(t, StatusSettled, order.Status)
	require.Equal(t, "Chốt", order.StatusName)
	require.Equal(t, int64(5000), order.Total.IntPart())

	require.NoError(t, svc.Delete(ctx, "", number))
	_, err = svc.Get(ctx, "", number)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStaticServiceMergeThenSplit(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	ctx := context.Background()

	ids, err := svc.EligibleIDs(ctx, "", StatusSettled)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	require.NoError(t, svc.Merge(ctx, "", ids))

	page, err := svc.List(ctx, "", ListQuery{Merged: true})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	merged := page.Rows[0]
	require.True(t, strings.HasPrefix(merged.Number, "MP"))
	require.Equal(t, StatusMergedDraft, merged.Status)
	require.Equal(t, 2, merged.ItemsCount)

	// Split one line back out into its own draft.
	require.NoError(t, svc.Split(ctx, "", merged.Number, []backend.ID{merged.Items[0].ID}))

	page, err = svc.List(ctx, "", ListQuery{Merged: true})
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)

	remaining, err := svc.Get(ctx, "", merged.Number)
	require.NoError(t, err)
	require.Len(t, remaining.Items, 1)

	require.ErrorIs(t, svc.Split(ctx, "", merged.Number, []backend.ID{"unknown"}), ErrNotFound)
	require.ErrorIs(t, svc.Merge(ctx, "", nil), ErrNothingSelected)
}

func TestStaticServiceStats(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	stats, err := svc.Stats(context.Background(), "", "", false)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 1, stats.Pending)
	require.False(t, stats.Revenue.IsZero())
}

func TestStaticServiceMergedGroupings(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	ctx := context.Background()

	ids, err := svc.EligibleIDs(ctx, "", StatusSettled)
	require.NoError(t, err)
	require.NoError(t, svc.Merge(ctx, "", ids))

	raw, err := svc.MergedByMonth(ctx, "")
	require.NoError(t, err)
	var groups []map[string]any
	require.NoError(t, json.Unmarshal(raw, &groups))
	require.Len(t, groups, 1)
}

func TestStaticServiceExports(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	svc.RenderExport = func(orders []*Order) ([]byte, error) {
		return []byte("rendered"), nil
	}
	ctx := context.Background()

	file, err := svc.Export(ctx, "", []backend.ID{"502"})
	require.NoError(t, err)
	require.Equal(t, "orders.xlsx", file.Filename)
	require.Equal(t, []byte("rendered"), file.Data)

	_, err = svc.Export(ctx, "", nil)
	require.ErrorIs(t, err, ErrNothingSelected)

	file, err = svc.ExportMonths(ctx, "", []string{"2026-02"})
	require.NoError(t, err)
	require.Equal(t, "don-gop-theo-thang.xlsx", file.Filename)

	file, err = svc.ExportYears(ctx, "", []string{"2026"})
	require.NoError(t, err)
	require.Equal(t, "don-gop-theo-nam.xlsx", file.Filename)
}

func TestStaticServiceImport(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	msg, err := svc.Import(context.Background(), "", "5", "don-hang.xlsx", strings.NewReader("bytes"))
	require.NoError(t, err)
	require.Contains(t, msg, "don-hang.xlsx")

	_, err = svc.Import(context.Background(), "", "", "x.xlsx", strings.NewReader(""))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
