// Package urlstate maps a query.Descriptor to and from a shareable URL query
// string.
package urlstate

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"jobhub/services/dashboard/internal/models"
	"jobhub/services/dashboard/internal/query"
)

const (
	ParamSearch  = "q"
	ParamSort    = "sort"
	ParamFilters = "f"
	ParamJob     = "job"
	ParamCompany = "company"
	ParamMin     = "min"
	ParamMax     = "max"

	pairSeparator  = ","
	groupSeparator = ":"
)

// Encode renders d as a query string without the leading '?'. Parameters
// come out in a fixed order, so encoding a decoded string again gives the
// same bytes. sort is always present.
func Encode(d query.Descriptor) string {
	v := url.Values{}

	if s := strings.TrimSpace(d.Search); s != "" {
		v.Set(ParamSearch, s)
	}

	sortKey := d.Sort
	if !sortKey.Valid() {
		sortKey = query.DefaultSort
	}
	v.Set(ParamSort, string(sortKey))

	if f := encodeFilters(d.Filters); f != "" {
		v.Set(ParamFilters, f)
	}
	if d.SelectedJobID != "" {
		v.Set(ParamJob, d.SelectedJobID)
	}
	if d.CompanyActive() {
		v.Set(ParamCompany, d.Company)
	}
	if d.SalaryMin != nil {
		v.Set(ParamMin, formatNumber(*d.SalaryMin))
	}
	if d.SalaryMax != nil {
		v.Set(ParamMax, formatNumber(*d.SalaryMax))
	}

	return v.Encode()
}

func encodeFilters(filters map[models.Dimension][]string) string {
	var pairs []string
	for _, dim := range models.Dimensions {
		seen := make(map[string]struct{})
		for _, value := range filters[dim] {
			if value == "" {
				continue
			}
			if _, dup := seen[value]; dup {
				continue
			}
			seen[value] = struct{}{}
			pairs = append(pairs, string(dim)+groupSeparator+url.QueryEscape(value))
		}
	}
	return strings.Join(pairs, pairSeparator)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Decode parses a query string, with or without a leading '?'. Anything it
// cannot interpret falls back to the unrestricted default for that field.
func Decode(raw string) query.Descriptor {
	v, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return FromValues(v)
}

// FromValues reads a descriptor from already parsed parameters, as handed
// over by an HTTP router.
func FromValues(v url.Values) query.Descriptor {
	d := query.Descriptor{
		Search:        strings.TrimSpace(v.Get(ParamSearch)),
		Sort:          query.SortKey(v.Get(ParamSort)),
		SelectedJobID: v.Get(ParamJob),
		SalaryMin:     parseNumber(v.Get(ParamMin)),
		SalaryMax:     parseNumber(v.Get(ParamMax)),
	}

	if !d.Sort.Valid() {
		d.Sort = query.DefaultSort
	}
	if c := v.Get(ParamCompany); c != "" && c != query.AllCompanies {
		d.Company = c
	}

	for _, pair := range strings.Split(v.Get(ParamFilters), pairSeparator) {
		group, escaped, ok := strings.Cut(pair, groupSeparator)
		if !ok {
			continue
		}
		dim, ok := models.ParseDimension(strings.TrimSpace(group))
		if !ok {
			continue
		}
		value, err := url.QueryUnescape(escaped)
		if err != nil || value == "" {
			continue
		}
		d.Select(dim, value, true)
	}

	return d
}

func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
