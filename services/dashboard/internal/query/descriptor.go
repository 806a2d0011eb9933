package query

import (
	"strings"

	"jobhub/services/dashboard/internal/models"
)

type SortKey string

const (
	SortDateDesc   SortKey = "dateDesc"
	SortDateAsc    SortKey = "dateAsc"
	SortSalaryDesc SortKey = "salaryDesc"
	SortSalaryAsc  SortKey = "salaryAsc"
	SortTitleAsc   SortKey = "titleAsc"
	SortTitleDesc  SortKey = "titleDesc"

	DefaultSort = SortDateDesc
)

var SortKeys = []SortKey{SortDateDesc, SortDateAsc, SortSalaryDesc, SortSalaryAsc, SortTitleAsc, SortTitleDesc}

func (k SortKey) Valid() bool {
	for _, s := range SortKeys {
		if s == k {
			return true
		}
	}
	return false
}

// AllCompanies disables the company filter.
const AllCompanies = "all"

// Descriptor is one set of search, filter and sort parameters. The zero
// value matches every job and keeps input order.
type Descriptor struct {
	Search        string
	Sort          SortKey
	Filters       map[models.Dimension][]string
	SalaryMin     *float64
	SalaryMax     *float64
	Company       string
	SelectedJobID string
}

// Selected returns the allowed values for dim; empty means unrestricted.
func (d Descriptor) Selected(dim models.Dimension) []string {
	return d.Filters[dim]
}

func (d Descriptor) CompanyActive() bool {
	return d.Company != "" && d.Company != AllCompanies
}

// Select adds or removes value from the selection for dim.
func (d *Descriptor) Select(dim models.Dimension, value string, on bool) {
	current := d.Filters[dim]
	idx := -1
	for i, v := range current {
		if v == value {
			idx = i
			break
		}
	}

	switch {
	case on && idx < 0:
		next := make([]string, len(current), len(current)+1)
		copy(next, current)
		d.setFilter(dim, append(next, value))
	case !on && idx >= 0:
		next := make([]string, 0, len(current)-1)
		next = append(next, current[:idx]...)
		d.setFilter(dim, append(next, current[idx+1:]...))
	}
}

func (d *Descriptor) setFilter(dim models.Dimension, values []string) {
	filters := make(map[models.Dimension][]string, len(d.Filters)+1)
	for k, v := range d.Filters {
		filters[k] = v
	}
	if len(values) == 0 {
		delete(filters, dim)
	} else {
		filters[dim] = values
	}
	d.Filters = filters
}

// AppendSearchToken adds token to the search text unless it is already one
// of its words.
func AppendSearchToken(search, token string) string {
	search = strings.TrimSpace(search)
	token = strings.TrimSpace(token)
	if token == "" {
		return search
	}
	for _, word := range strings.Fields(search) {
		if strings.EqualFold(word, token) {
			return search
		}
	}
	if search == "" {
		return token
	}
	return search + " " + token
}

func Float(v float64) *float64 {
	return &v
}
