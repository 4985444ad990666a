package orders

import (
	"github.com/songviet/po-admin/internal/admin/backend"
)

// ListMode selects which collection the list view shows.
type ListMode string

const (
	ModeNormal  ListMode = "normal"
	ModeMerged  ListMode = "merged"
	ModeMonthly ListMode = "monthly"
	ModeYearly  ListMode = "yearly"
)

// FetchKind identifies an asynchronous fetch the view issues. Each kind has
// its own sequence counter so a slow rows response cannot clobber stats and
// vice versa.
type FetchKind int

const (
	FetchRows FetchKind = iota
	FetchStats
	FetchStatuses
	fetchKindCount
)

// FetchToken ties an in-flight response back to the request that started it.
type FetchToken struct {
	kind FetchKind
	seq  uint64
}

// ListView consolidates the order list page state: filters, pagination, the
// current rows, and the bulk selection. Responses are applied through fetch
// tokens; a response whose token is no longer the latest for its kind is
// discarded, so overlapping fetches resolve to the most recently requested
// one instead of whichever lands last.
//
// ListView is not safe for concurrent use; it belongs to a single session.
type ListView struct {
	Mode         ListMode
	Page         int
	LastPage     int
	Search       string
	StatusFilter string
	Group        string

	Rows     []ListRow
	Stats    Stats
	Statuses []StatusDescriptor

	selection []backend.ID
	seqs      [fetchKindCount]uint64
}

// NewListView starts a view on the normal order collection.
func NewListView() *ListView {
	return &ListView{
		Mode:         ModeNormal,
		Page:         1,
		StatusFilter: "all",
	}
}

// Begin registers a new fetch of the given kind and returns its token. Any
// earlier in-flight fetch of the same kind becomes stale.
func (v *ListView) Begin(kind FetchKind) FetchToken {
	v.seqs[kind]++
	return FetchToken{kind: kind, seq: v.seqs[kind]}
}

// current reports whether the token still identifies the latest fetch.
func (v *ListView) current(token FetchToken) bool {
	return v.seqs[token.kind] == token.seq
}

// ApplyRows installs a rows response. Stale responses are dropped and the
// method reports whether the response was applied.
func (v *ListView) ApplyRows(token FetchToken, page *ListPage) bool {
	if token.kind != FetchRows || !v.current(token) {
		return false
	}
	v.Rows = page.Rows
	v.LastPage = page.LastPage
	return true
}

// ApplyStats installs a stats response unless it is stale.
func (v *ListView) ApplyStats(token FetchToken, stats *Stats) bool {
	if token.kind != FetchStats || !v.current(token) {
		return false
	}
	v.Stats = *stats
	return true
}

// ApplyStatuses installs a status catalog response unless it is stale.
func (v *ListView) ApplyStatuses(token FetchToken, catalog []StatusDescriptor) bool {
	if token.kind != FetchStatuses || !v.current(token) {
		return false
	}
	v.Statuses = catalog
	return true
}

// Query builds the list query for the current filters.
func (v *ListView) Query() ListQuery {
	status := v.StatusFilter
	if status == "all" {
		status = ""
	}
	return ListQuery{
		Page:   v.Page,
		Search: v.Search,
		Status: status,
		Limit:  6,
		Group:  v.Group,
		Merged: v.Mode == ModeMerged,
	}
}

// SetMode switches collections and resets rows, pagination, and selection.
func (v *ListView) SetMode(mode ListMode) {
	if v.Mode == mode {
		return
	}
	v.Mode = mode
	v.Page = 1
	v.Rows = nil
	v.LastPage = 0
	v.ClearSelection()
}

// SetSearch updates the search filter and rewinds to the first page.
func (v *ListView) SetSearch(search string) {
	v.Search = search
	v.Page = 1
}

// SetStatusFilter updates the status filter and rewinds to the first page.
func (v *ListView) SetStatusFilter(status string) {
	v.StatusFilter = status
	v.Page = 1
}

// SetPage moves to the given page, clamped to at least 1.
func (v *ListView) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	v.Page = page
}

// Toggle flips one order in or out of the bulk selection.
func (v *ListView) Toggle(id backend.ID) {
	for i, existing := range v.selection {
		if existing == id {
			v.selection = append(v.selection[:i], v.selection[i+1:]...)
			return
		}
	}
	v.selection = append(v.selection, id)
}

// SelectAll replaces the selection with the given system-wide eligible ids.
// When anything is already selected it clears instead, mirroring a header
// checkbox.
func (v *ListView) SelectAll(ids []backend.ID) {
	if len(v.selection) > 0 {
		v.ClearSelection()
		return
	}
	v.selection = append([]backend.ID(nil), ids...)
}

// ClearSelection empties the bulk selection.
func (v *ListView) ClearSelection() {
	v.selection = nil
}

// Selection returns the selected order ids in selection order.
func (v *ListView) Selection() []backend.ID {
	out := make([]backend.ID, len(v.selection))
	copy(out, v.selection)
	return out
}

// Selected reports whether the order is in the selection.
func (v *ListView) Selected(id backend.ID) bool {
	for _, existing := range v.selection {
		if existing == id {
			return true
		}
	}
	return false
}
