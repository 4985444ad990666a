package orders

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/songviet/po-admin/internal/admin/backend"
)

func TestListViewStaleRowsDiscarded(t *testing.T) {
	t.Parallel()

	view := NewListView()

	first := view.Begin(FetchRows)
	second := view.Begin(FetchRows)

	// The newer fetch resolves first.
	require.True(t, view.ApplyRows(second, &ListPage{
		Rows:     []ListRow{{Number: "PO-2"}},
		LastPage: 4,
	}))

	// The older response lands late and must not clobber the newer one.
	require.False(t, view.ApplyRows(first, &ListPage{
		Rows:     []ListRow{{Number: "PO-1"}},
		LastPage: 9,
	}))

	require.Len(t, view.Rows, 1)
	require.Equal(t, "PO-2", view.Rows[0].Number)
	require.Equal(t, 4, view.LastPage)
}

func TestListViewFetchKindsAreIndependent(t *testing.T) {
	t.Parallel()

	view := NewListView()
	rowsToken := view.Begin(FetchRows)
	statsToken := view.Begin(FetchStats)

	// A newer rows fetch does not invalidate the stats fetch.
	view.Begin(FetchRows)

	require.False(t, view.ApplyRows(rowsToken, &ListPage{}))
	require.True(t, view.ApplyStats(statsToken, &Stats{Total: 12}))
	require.Equal(t, 12, view.Stats.Total)

	// A token applied against the wrong kind is rejected.
	require.False(t, view.ApplyStats(view.Begin(FetchRows), &Stats{}))
}

func TestListViewApplyStatuses(t *testing.T) {
	t.Parallel()

	view := NewListView()
	token := view.Begin(FetchStatuses)
	require.True(t, view.ApplyStatuses(token, DefaultStatusCatalog()))
	require.Len(t, view.Statuses, len(DefaultStatusCatalog()))
}

func TestListViewQuery(t *testing.T) {
	t.Parallel()

	view := NewListView()
	query := view.Query()
	require.Equal(t, 1, query.Page)
	require.Empty(t, query.Status)
	require.Equal(t, 6, query.Limit)
	require.False(t, query.Merged)

	view.SetStatusFilter("7")
	view.SetPage(3)
	view.SetMode(ModeMerged)
	query = view.Query()
	require.Equal(t, "7", query.Status)
	require.True(t, query.Merged)
	// Switching modes rewinds pagination.
	require.Equal(t, 1, query.Page)
}

func TestListViewFiltersResetPage(t *testing.T) {
	t.Parallel()

	view := NewListView()
	view.SetPage(5)
	view.SetSearch("nhựa")
	require.Equal(t, 1, view.Page)

	view.SetPage(5)
	view.SetStatusFilter("all")
	require.Equal(t, 1, view.Page)

	view.SetPage(0)
	require.Equal(t, 1, view.Page)
}

func TestListViewSelection(t *testing.T) {
	t.Parallel()

	view := NewListView()
	view.Toggle("1")
	view.Toggle("2")
	view.Toggle("1")
	require.Equal(t, []backend.ID{"2"}, view.Selection())
	require.True(t, view.Selected("2"))
	require.False(t, view.Selected("1"))

	// Select-all with an existing selection clears it.
	view.SelectAll([]backend.ID{"7", "8"})
	require.Empty(t, view.Selection())

	view.SelectAll([]backend.ID{"7", "8"})
	require.Equal(t, []backend.ID{"7", "8"}, view.Selection())

	view.ClearSelection()
	require.Empty(t, view.Selection())
}

func TestListViewModeSwitchResetsState(t *testing.T) {
	t.Parallel()

	view := NewListView()
	view.Rows = []ListRow{{Number: "PO-1"}}
	view.Toggle("1")
	view.SetPage(4)

	view.SetMode(ModeMerged)
	require.Empty(t, view.Rows)
	require.Empty(t, view.Selection())
	require.Equal(t, 1, view.Page)

	// Setting the same mode again is a no-op.
	view.Rows = []ListRow{{Number: "MP-1"}}
	view.SetMode(ModeMerged)
	require.Len(t, view.Rows, 1)
}
