// Package query filters, searches and sorts the canonical job collection.
package query

import (
	"sort"
	"strings"

	"jobhub/services/dashboard/internal/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Query returns the jobs matching d, sorted by d.Sort. The input slice is
// not modified.
func Query(jobs []models.Job, d Descriptor) []models.Job {
	m := newMatcher(d)

	out := make([]models.Job, 0, len(jobs))
	for _, j := range jobs {
		if m.match(j) {
			out = append(out, j)
		}
	}

	Sort(out, d.Sort)
	return out
}

type matcher struct {
	d       Descriptor
	search  string
	allowed map[models.Dimension]map[string]struct{}
}

func newMatcher(d Descriptor) matcher {
	m := matcher{
		d:       d,
		search:  strings.ToLower(strings.TrimSpace(d.Search)),
		allowed: make(map[models.Dimension]map[string]struct{}),
	}
	// Empty values and unknown dimensions do not restrict, matching what
	// survives a trip through the URL.
	for dim, values := range d.Filters {
		if !dim.Valid() {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			if v != "" {
				set[v] = struct{}{}
			}
		}
		if len(set) > 0 {
			m.allowed[dim] = set
		}
	}
	return m
}

func (m matcher) match(j models.Job) bool {
	for dim, set := range m.allowed {
		if _, ok := set[dim.Value(j)]; !ok {
			return false
		}
	}
	if m.d.SalaryMin != nil && j.SalaryMax < *m.d.SalaryMin {
		return false
	}
	if m.d.SalaryMax != nil && j.SalaryMin > *m.d.SalaryMax {
		return false
	}
	if m.d.CompanyActive() && j.Company != m.d.Company {
		return false
	}
	return m.matchSearch(j)
}

func (m matcher) matchSearch(j models.Job) bool {
	if m.search == "" {
		return true
	}
	fields := append([]string{j.Title, j.Company, j.Location, j.EmploymentType}, j.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), m.search) {
			return true
		}
	}
	return false
}

// Sort orders jobs in place. Equal keys keep their relative order; an
// unknown key leaves the slice untouched.
func Sort(jobs []models.Job, key SortKey) {
	var less func(a, b models.Job) bool

	switch key {
	case SortDateDesc:
		less = func(a, b models.Job) bool { return a.Date.After(b.Date) }
	case SortDateAsc:
		less = func(a, b models.Job) bool { return a.Date.Before(b.Date) }
	case SortSalaryDesc:
		less = func(a, b models.Job) bool { return a.SalaryMax > b.SalaryMax }
	case SortSalaryAsc:
		less = func(a, b models.Job) bool { return a.SalaryMin < b.SalaryMin }
	case SortTitleAsc, SortTitleDesc:
		col := newCollator()
		if key == SortTitleAsc {
			less = func(a, b models.Job) bool { return col.CompareString(a.Title, b.Title) < 0 }
		} else {
			less = func(a, b models.Job) bool { return col.CompareString(a.Title, b.Title) > 0 }
		}
	default:
		return
	}

	sort.SliceStable(jobs, func(i, k int) bool { return less(jobs[i], jobs[k]) })
}

// A Collator is not safe for concurrent use, so each sort builds its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

// CompareTitles orders two titles the way the title sorts do.
func CompareTitles(a, b string) int {
	return newCollator().CompareString(a, b)
}

// CountsByDimension counts jobs per option of dim. Every option is present,
// with zero when no job carries it.
func CountsByDimension(jobs []models.Job, dim models.Dimension) map[string]int {
	counts := make(map[string]int, len(dim.Options()))
	for _, opt := range dim.Options() {
		counts[opt] = 0
	}
	for _, j := range jobs {
		if v := dim.Value(j); v != "" {
			counts[v]++
		}
	}
	return counts
}

// Counts runs CountsByDimension for every dimension.
func Counts(jobs []models.Job) map[models.Dimension]map[string]int {
	out := make(map[models.Dimension]map[string]int, len(models.Dimensions))
	for _, dim := range models.Dimensions {
		out[dim] = CountsByDimension(jobs, dim)
	}
	return out
}

// Companies returns the distinct company names, sorted.
func Companies(jobs []models.Job) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, j := range jobs {
		if j.Company == "" {
			continue
		}
		if _, ok := seen[j.Company]; ok {
			continue
		}
		seen[j.Company] = struct{}{}
		out = append(out, j.Company)
	}
	col := newCollator()
	sort.SliceStable(out, func(i, k int) bool { return col.CompareString(out[i], out[k]) < 0 })
	return out
}
