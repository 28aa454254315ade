// Package listutil turns admin table query strings into paging, sorting and
// search parameters, and applies them to in-memory rows.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// DefaultPerPage is used when per_page is missing or not one of PerPageOptions.
const DefaultPerPage = 50

// PerPageOptions are the page sizes offered by the table footers.
var PerPageOptions = []int{25, 50, 100, 250}

// maxPageButtons bounds the numbered links rendered under a table.
const maxPageButtons = 5

// PageParams is the requested page (1-based) and page size.
type PageParams struct {
	Page    int
	PerPage int
}

// SortParams names the sort column and direction.
type SortParams struct {
	Sort string
	Dir  string
}

// FilterParams holds the free-text search and the exact-match filters,
// keyed by query parameter (status=approved, recipe=r1).
type FilterParams struct {
	Search  string
	Filters map[string]string
}

// ListParams is everything a table view reads from its query string.
type ListParams struct {
	PageParams
	SortParams
	FilterParams
}

// PageInfo describes the page actually rendered.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// ParsePageParams reads page and per_page. Garbage and out-of-range values
// fall back to page 1 and DefaultPerPage.
func ParsePageParams(q url.Values) PageParams {
	p := PageParams{Page: 1, PerPage: DefaultPerPage}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && slices.Contains(PerPageOptions, n) {
		p.PerPage = n
	}
	return p
}

// ParseSortParams reads sort and dir.
// PRE: defaultDir is Asc or Desc
// POST: Sort is one of columns or defaultSort; Dir is Asc or Desc
func ParseSortParams(q url.Values, columns []string, defaultSort, defaultDir string) SortParams {
	sp := SortParams{Sort: defaultSort, Dir: defaultDir}
	if col := q.Get("sort"); slices.Contains(columns, col) {
		sp.Sort = col
	}
	switch dir := q.Get("dir"); dir {
	case Asc, Desc:
		sp.Dir = dir
	}
	return sp
}

// ParseFilterParams reads q and the named filters. Unknown keys are ignored
// and the value "all" means no filter.
func ParseFilterParams(q url.Values, keys []string) FilterParams {
	fp := FilterParams{Search: strings.TrimSpace(q.Get("q")), Filters: map[string]string{}}
	for _, key := range keys {
		switch v := q.Get(key); v {
		case "", "all":
		default:
			fp.Filters[key] = v
		}
	}
	return fp
}

// ParseListParams combines the three parsers.
func ParseListParams(q url.Values, columns []string, defaultSort, defaultDir string, filterKeys []string) ListParams {
	return ListParams{
		PageParams:   ParsePageParams(q),
		SortParams:   ParseSortParams(q, columns, defaultSort, defaultDir),
		FilterParams: ParseFilterParams(q, filterKeys),
	}
}

// Query encodes lp back into a query string pointing at page p.
// Defaults are left out so the first page of an unfiltered table has no query.
func (lp ListParams) Query(p int) string {
	v := make(url.Values, len(lp.Filters)+5)
	for key, val := range lp.Filters {
		v.Set(key, val)
	}
	if lp.Search != "" {
		v.Set("q", lp.Search)
	}
	if lp.Sort != "" {
		v.Set("sort", lp.Sort)
		v.Set("dir", lp.Dir)
	}
	if lp.PerPage > 0 && lp.PerPage != DefaultPerPage {
		v.Set("per_page", strconv.Itoa(lp.PerPage))
	}
	if p > 1 {
		v.Set("page", strconv.Itoa(p))
	}
	return v.Encode()
}

var folder = cases.Fold()

// Matches reports whether search is a case-folded substring of any field.
// Folding makes "strasse" find "Straße". The empty search matches everything.
func Matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	needle := folder.String(search)
	return slices.ContainsFunc(fields, func(f string) bool {
		return strings.Contains(folder.String(f), needle)
	})
}

// Less orders a before b in direction dir.
func Less(a, b string, dir string) bool {
	if dir == Desc {
		return b < a
	}
	return a < b
}

// NewPageInfo clamps page into [1, TotalPages]. An empty list still has one page.
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := max(1, (total+perPage-1)/perPage)
	return PageInfo{
		Page:       min(max(page, 1), pages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
	}
}

// Paginate returns the rows of items that fall on info's page.
func Paginate[T any](items []T, info PageInfo) []T {
	from := info.Offset()
	if from >= len(items) {
		return nil
	}
	return items[from:min(from+info.PerPage, len(items))]
}

// Offset is the zero-based index of the page's first row.
func (p PageInfo) Offset() int { return (p.Page - 1) * p.PerPage }

// StartRow is the 1-based number of the first row shown, or 0 for an empty table.
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow is the 1-based number of the last row shown.
func (p PageInfo) EndRow() int { return min(p.Offset()+p.PerPage, p.Total) }

// ShowPagination is false when everything fits on one page.
func (p PageInfo) ShowPagination() bool { return p.Total > p.PerPage }

// PageNumbers is a window of up to five page links around the current page.
func (p PageInfo) PageNumbers() []int {
	last := min(p.TotalPages, max(p.Page-maxPageButtons/2, 1)+maxPageButtons-1)
	first := max(1, last-maxPageButtons+1)
	pages := make([]int, 0, last-first+1)
	for n := first; n <= last; n++ {
		pages = append(pages, n)
	}
	return pages
}
