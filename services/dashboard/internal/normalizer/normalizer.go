// Package normalizer turns untrusted remote job records into models.Job.
package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"jobhub/services/dashboard/internal/models"
)

const (
	DefaultTitle       = "Untitled Role"
	DefaultCompany     = "Company"
	DefaultDescription = "No description provided."
	DefaultSalaryMin   = 90000
	DefaultSalaryMax   = 150000
)

var (
	DefaultTags         = []string{"React", "TypeScript", "Nextjs"}
	DefaultRequirements = []string{"3+ years experience", "Strong JS/TS", "Good communication"}
	DefaultBenefits     = []string{"Health insurance", "Flexible hours", "Remote friendly"}
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize maps one raw record onto the canonical schema. index is the
// record's position in the payload and names jobs that carry no id.
func Normalize(raw models.RawJob, index int, now time.Time) models.Job {
	return models.Job{
		ID:             remoteID(raw, index),
		Title:          firstString(raw, DefaultTitle, "title", "position"),
		Company:        firstString(raw, DefaultCompany, "company", "company_name"),
		Location:       MapToEnum(firstString(raw, "", "location", "city"), models.Locations),
		EmploymentType: MapToEnum(firstString(raw, "", "type", "employment_type"), models.EmploymentTypes),
		Experience:     MapToEnum(firstString(raw, "", "experience", "experience_level"), models.ExperienceLevels),
		SalaryMin:      firstNumber(raw, DefaultSalaryMin, "salary_min", "salary.min"),
		SalaryMax:      firstNumber(raw, DefaultSalaryMax, "salary_max", "salary.max"),
		Tags:           firstList(raw, DefaultTags, ",", "tags", "skills"),
		Description:    firstString(raw, DefaultDescription, "description"),
		Requirements:   firstList(raw, DefaultRequirements, "\n", "requirements"),
		Benefits:       firstList(raw, DefaultBenefits, "\n", "benefits"),
		Date:           firstDate(raw, now, "date", "created_at"),
	}
}

// NormalizeAll normalizes a payload. A positional id that collides with an
// id carried by another record (such as "id": 0 against the record at index
// 0) gets a numeric suffix, so no record is merged away.
func NormalizeAll(raws []models.RawJob, now time.Time) []models.Job {
	jobs := make([]models.Job, 0, len(raws))
	taken := make(map[string]struct{}, len(raws))
	for i, raw := range raws {
		job := Normalize(raw, i, now)
		jobs = append(jobs, job)
		if rawID(raw) != "" {
			taken[job.ID] = struct{}{}
		}
	}

	for i, raw := range raws {
		if rawID(raw) != "" {
			continue
		}
		id := jobs[i].ID
		for n := 2; ; n++ {
			if _, dup := taken[id]; !dup {
				break
			}
			id = fmt.Sprintf("%s-%d", jobs[i].ID, n)
		}
		jobs[i].ID = id
		taken[id] = struct{}{}
	}
	return jobs
}

func remoteID(raw models.RawJob, index int) string {
	id := rawID(raw)
	if id == "" {
		return fmt.Sprintf("%s%d", models.RemoteIDPrefix, index)
	}
	if models.IsRemoteID(id) {
		return id
	}
	return models.RemoteIDPrefix + id
}

func rawID(raw models.RawJob) string {
	id := ""
	switch v := lookup(raw, "id").(type) {
	case string:
		id = strings.TrimSpace(v)
	case float64:
		id = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		id = strconv.Itoa(v)
	case int64:
		id = strconv.FormatInt(v, 10)
	}
	return id
}

// lookup resolves a dotted path such as "salary.min" through nested objects.
func lookup(raw models.RawJob, path string) any {
	var cur any = map[string]any(raw)
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

func firstString(raw models.RawJob, fallback string, paths ...string) string {
	for _, p := range paths {
		switch v := lookup(raw, p).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return fallback
}

func firstNumber(raw models.RawJob, fallback float64, paths ...string) float64 {
	for _, p := range paths {
		if n, ok := toNumber(lookup(raw, p)); ok {
			return n
		}
	}
	return fallback
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

func firstList(raw models.RawJob, fallback []string, sep string, paths ...string) []string {
	for _, p := range paths {
		switch v := lookup(raw, p).(type) {
		case []any:
			list := make([]string, 0, len(v))
			for _, item := range v {
				if item == nil {
					continue
				}
				if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
					list = append(list, s)
				}
			}
			return list
		case []string:
			return SplitList(strings.Join(v, sep), sep)
		case string:
			if strings.TrimSpace(v) != "" {
				return SplitList(v, sep)
			}
		}
	}
	return append([]string(nil), fallback...)
}

// SplitList splits s on sep, trimming items and dropping blanks.
func SplitList(s, sep string) []string {
	list := []string{}
	for _, item := range strings.Split(s, sep) {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func firstDate(raw models.RawJob, now time.Time, paths ...string) time.Time {
	for _, p := range paths {
		switch v := lookup(raw, p).(type) {
		case string:
			if t, ok := ParseDate(v); ok {
				return t
			}
		case float64:
			if v > 1e12 {
				return time.UnixMilli(int64(v)).UTC()
			}
			if v > 0 {
				return time.Unix(int64(v), 0).UTC()
			}
		}
	}
	return now
}

func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
