package projections

import (
	"sort"

	"innercircle/internal/application/listutil"
	domainRecipe "innercircle/internal/domain/recipe"
)

// Sortable columns of the admin download table.
var DownloadSortColumns = []string{"downloaded_at", "name", "email", "source"}

// DownloadRow is a download with the title of its recipe resolved.
type DownloadRow struct {
	domainRecipe.Download
	RecipeTitle string
}

// DownloadList is one page of the admin download table.
type DownloadList struct {
	Rows   []DownloadRow
	Params listutil.ListParams
	Page   listutil.PageInfo
}

// FilterDownloads applies the search box and recipe filter, keeping input order.
// Search is a case-folded substring match over name and email.
func FilterDownloads(downloads []domainRecipe.Download, params listutil.ListParams) []domainRecipe.Download {
	recipeID := params.Filters["recipe"]
	out := make([]domainRecipe.Download, 0, len(downloads))
	for _, d := range downloads {
		if recipeID != "" && d.RecipeID != recipeID {
			continue
		}
		if !listutil.Matches(params.Search, d.Name, d.Email) {
			continue
		}
		out = append(out, d)
	}
	sortDownloads(out, params.SortParams)
	return out
}

// QueryDownloadList filters, sorts and paginates downloads; titles maps recipe ID to title.
func QueryDownloadList(downloads []domainRecipe.Download, titles map[string]string, params listutil.ListParams) DownloadList {
	filtered := FilterDownloads(downloads, params)
	info := listutil.NewPageInfo(params.Page, params.PerPage, len(filtered))
	page := listutil.Paginate(filtered, info)

	rows := make([]DownloadRow, len(page))
	for i, d := range page {
		rows[i] = DownloadRow{Download: d, RecipeTitle: titles[d.RecipeID]}
	}
	return DownloadList{Rows: rows, Params: params, Page: info}
}

func sortDownloads(downloads []domainRecipe.Download, sp listutil.SortParams) {
	key := func(d domainRecipe.Download) string {
		switch sp.Sort {
		case "name":
			return d.Name
		case "email":
			return d.Email
		case "source":
			return d.Source
		default:
			return d.DownloadedAt.UTC().Format("2006-01-02T15:04:05.000000000")
		}
	}
	sort.SliceStable(downloads, func(i, j int) bool {
		return listutil.Less(key(downloads[i]), key(downloads[j]), sp.Dir)
	})
}
