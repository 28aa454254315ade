package projections

import (
	"sort"

	"innercircle/internal/application/listutil"
	domainLead "innercircle/internal/domain/lead"
)

// Sortable columns of the admin lead table.
var LeadSortColumns = []string{"created_at", "name", "email", "status"}

// LeadList is one page of the admin lead table.
type LeadList struct {
	Leads  []domainLead.Lead
	Params listutil.ListParams
	Page   listutil.PageInfo
}

// FilterLeads applies the search box and status filter, keeping input order.
// Search is a case-folded substring match over name, email and phone.
// PRE: leads come newest first from the store
// POST: The result is exactly what the table and the CSV export show
func FilterLeads(leads []domainLead.Lead, params listutil.ListParams) []domainLead.Lead {
	status := params.Filters["status"]
	out := make([]domainLead.Lead, 0, len(leads))
	for _, l := range leads {
		if status != "" && l.EffectiveStatus() != status {
			continue
		}
		if !listutil.Matches(params.Search, l.Name, l.Email, l.Phone) {
			continue
		}
		out = append(out, l)
	}
	sortLeads(out, params.SortParams)
	return out
}

// QueryLeadList filters, sorts and paginates leads for display.
func QueryLeadList(leads []domainLead.Lead, params listutil.ListParams) LeadList {
	filtered := FilterLeads(leads, params)
	info := listutil.NewPageInfo(params.Page, params.PerPage, len(filtered))
	return LeadList{Leads: listutil.Paginate(filtered, info), Params: params, Page: info}
}

func sortLeads(leads []domainLead.Lead, sp listutil.SortParams) {
	key := func(l domainLead.Lead) string {
		switch sp.Sort {
		case "name":
			return l.Name
		case "email":
			return l.Email
		case "status":
			return l.EffectiveStatus()
		default:
			return l.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000000")
		}
	}
	sort.SliceStable(leads, func(i, j int) bool {
		return listutil.Less(key(leads[i]), key(leads[j]), sp.Dir)
	})
}
