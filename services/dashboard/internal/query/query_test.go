package query

import (
	"testing"
	"time"

	"jobhub/services/dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	jobA = models.Job{
		ID: "remote-a", Title: "Backend Engineer", Company: "Acme", Location: "Berlin",
		EmploymentType: "Remote", Experience: "Senior", SalaryMin: 100000, SalaryMax: 140000,
		Tags: []string{"Go", "Postgres"}, Date: date(2024, 1, 1),
	}
	jobB = models.Job{
		ID: "remote-b", Title: "Frontend Dev", Company: "Globex", Location: "London",
		EmploymentType: "Full Time", Experience: "Mid", SalaryMin: 80000, SalaryMax: 110000,
		Tags: []string{"React"}, Date: date(2024, 2, 1),
	}
)

func ids(jobs []models.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

func TestQuery_Scenario(t *testing.T) {
	jobs := []models.Job{jobA, jobB}

	assert.Equal(t, []string{"remote-b", "remote-a"}, ids(Query(jobs, Descriptor{Sort: SortDateDesc})))
	assert.Equal(t, []string{"remote-a"}, ids(Query(jobs, Descriptor{Search: "berlin"})))

	d := Descriptor{Sort: SortDateAsc}
	d.Select(models.DimensionLocation, "Berlin", true)
	d.Select(models.DimensionLocation, "London", true)
	assert.Equal(t, []string{"remote-a", "remote-b"}, ids(Query(jobs, d)))

	d.Sort = SortDateDesc
	assert.Equal(t, []string{"remote-b", "remote-a"}, ids(Query(jobs, d)))
}

func TestQuery_SearchFields(t *testing.T) {
	jobs := []models.Job{jobA, jobB}

	tests := []struct {
		search string
		want   []string
	}{
		{"", []string{"remote-a", "remote-b"}},
		{"  ", []string{"remote-a", "remote-b"}},
		{"FRONTEND", []string{"remote-b"}},
		{"globex", []string{"remote-b"}},
		{"full time", []string{"remote-b"}},
		{"postgres", []string{"remote-a"}},
		{"engineer berlin", []string{}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ids(Query(jobs, Descriptor{Search: tt.search})), tt.search)
	}
}

func TestQuery_SalaryOverlap(t *testing.T) {
	job := models.Job{ID: "x", SalaryMin: 80000, SalaryMax: 100000}

	assert.Len(t, Query([]models.Job{job}, Descriptor{SalaryMin: Float(90000)}), 1)
	assert.Empty(t, Query([]models.Job{job}, Descriptor{SalaryMin: Float(110000)}))
	assert.Len(t, Query([]models.Job{job}, Descriptor{SalaryMax: Float(80000)}), 1)
	assert.Empty(t, Query([]models.Job{job}, Descriptor{SalaryMax: Float(79999)}))
	assert.Len(t, Query([]models.Job{job}, Descriptor{SalaryMin: Float(85000), SalaryMax: Float(95000)}), 1)
}

func TestQuery_Company(t *testing.T) {
	jobs := []models.Job{jobA, jobB}

	assert.Equal(t, []string{"remote-b"}, ids(Query(jobs, Descriptor{Company: "Globex"})))
	assert.Len(t, Query(jobs, Descriptor{Company: AllCompanies}), 2)
	assert.Len(t, Query(jobs, Descriptor{}), 2)
	assert.Empty(t, Query(jobs, Descriptor{Company: "globex"}))
}

func TestQuery_AndAcrossDimensions(t *testing.T) {
	jobs := []models.Job{jobA, jobB}

	d := Descriptor{}
	d.Select(models.DimensionLocation, "Berlin", true)
	d.Select(models.DimensionLocation, "London", true)
	d.Select(models.DimensionType, "Full Time", true)

	assert.Equal(t, []string{"remote-b"}, ids(Query(jobs, d)))
}

func TestQuery_IgnoresBlankValuesAndUnknownDimensions(t *testing.T) {
	jobs := []models.Job{jobA, jobB}

	blank := Descriptor{}
	blank.Select(models.DimensionType, "", true)
	assert.Equal(t, []string{"remote-a", "remote-b"}, ids(Query(jobs, blank)))

	unknown := Descriptor{Filters: map[models.Dimension][]string{"seniority": {"Senior"}}}
	assert.Equal(t, []string{"remote-a", "remote-b"}, ids(Query(jobs, unknown)))

	mixed := Descriptor{}
	mixed.Select(models.DimensionLocation, "", true)
	mixed.Select(models.DimensionLocation, "London", true)
	assert.Equal(t, []string{"remote-b"}, ids(Query(jobs, mixed)))
}

func TestQuery_FilterMonotonicity(t *testing.T) {
	jobs := []models.Job{jobA, jobB, {ID: "c", Location: "Berlin", EmploymentType: "Contract"}}

	base := Descriptor{}
	base.Select(models.DimensionLocation, "Berlin", true)
	wider := base
	wider.Select(models.DimensionLocation, "London", true)

	assert.LessOrEqual(t, len(Query(jobs, base)), len(Query(jobs, wider)))

	narrower := wider
	narrower.Select(models.DimensionType, "Remote", true)
	assert.LessOrEqual(t, len(Query(jobs, narrower)), len(Query(jobs, wider)))

	// Select copies, so wider is unchanged by narrower's selection.
	assert.Empty(t, wider.Selected(models.DimensionType))
}

func TestQuery_DoesNotMutateInput(t *testing.T) {
	jobs := []models.Job{jobA, jobB}
	Query(jobs, Descriptor{Sort: SortDateDesc})
	assert.Equal(t, []string{"remote-a", "remote-b"}, ids(jobs))
}

func TestSort_Keys(t *testing.T) {
	c := models.Job{ID: "c", Title: "api Designer", SalaryMin: 120000, SalaryMax: 120000, Date: date(2023, 12, 1)}
	jobs := []models.Job{jobA, jobB, c}

	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortDateDesc, []string{"remote-b", "remote-a", "c"}},
		{SortDateAsc, []string{"c", "remote-a", "remote-b"}},
		{SortSalaryDesc, []string{"remote-a", "c", "remote-b"}},
		{SortSalaryAsc, []string{"remote-b", "remote-a", "c"}},
		{SortTitleAsc, []string{"c", "remote-a", "remote-b"}},
		{SortTitleDesc, []string{"remote-b", "remote-a", "c"}},
		{SortKey("bogus"), []string{"remote-a", "remote-b", "c"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Query(jobs, Descriptor{Sort: tt.key})))
		})
	}
}

func TestSort_Stable(t *testing.T) {
	same := date(2024, 3, 3)
	jobs := []models.Job{
		{ID: "1", Title: "Same", SalaryMin: 1, SalaryMax: 1, Date: same},
		{ID: "2", Title: "Same", SalaryMin: 1, SalaryMax: 1, Date: same},
		{ID: "3", Title: "Same", SalaryMin: 1, SalaryMax: 1, Date: same},
	}

	for _, key := range SortKeys {
		assert.Equal(t, []string{"1", "2", "3"}, ids(Query(jobs, Descriptor{Sort: key})), key)
	}
}

func TestSort_TitleIsLocaleAware(t *testing.T) {
	jobs := []models.Job{{ID: "z", Title: "Zeta"}, {ID: "e", Title: "Éclair"}, {ID: "a", Title: "alpha"}}

	assert.Equal(t, []string{"a", "e", "z"}, ids(Query(jobs, Descriptor{Sort: SortTitleAsc})))
	assert.Less(t, CompareTitles("éclair", "Eclairs"), 0)
}

func TestCountsByDimension_Unfiltered(t *testing.T) {
	jobs := []models.Job{jobA, jobB, {ID: "c", Location: "Berlin"}}

	counts := CountsByDimension(jobs, models.DimensionLocation)

	assert.Equal(t, map[string]int{"San Francisco": 0, "New York": 0, "London": 1, "Berlin": 2}, counts)

	all := Counts(jobs)
	require.Len(t, all, 3)
	assert.Equal(t, 1, all[models.DimensionType]["Remote"])
	assert.Equal(t, 1, all[models.DimensionExperience]["Mid"])
}

func TestCompanies(t *testing.T) {
	jobs := []models.Job{{Company: "Globex"}, {Company: "acme"}, {Company: "Globex"}, {Company: ""}}
	assert.Equal(t, []string{"acme", "Globex"}, Companies(jobs))
	assert.Nil(t, Companies(nil))
}

func TestDescriptor_Select(t *testing.T) {
	var d Descriptor
	d.Select(models.DimensionType, "Remote", true)
	d.Select(models.DimensionType, "Remote", true)
	d.Select(models.DimensionType, "Contract", true)
	assert.Equal(t, []string{"Remote", "Contract"}, d.Selected(models.DimensionType))

	d.Select(models.DimensionType, "Remote", false)
	assert.Equal(t, []string{"Contract"}, d.Selected(models.DimensionType))

	d.Select(models.DimensionType, "Contract", false)
	_, present := d.Filters[models.DimensionType]
	assert.False(t, present)
}

func TestAppendSearchToken(t *testing.T) {
	assert.Equal(t, "React", AppendSearchToken("", "React"))
	assert.Equal(t, "frontend React", AppendSearchToken(" frontend ", "React"))
	assert.Equal(t, "frontend react", AppendSearchToken("frontend react", "React"))
	assert.Equal(t, "frontend", AppendSearchToken("frontend", " "))
}
