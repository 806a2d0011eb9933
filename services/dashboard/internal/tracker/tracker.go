// Package tracker records job applications.
package tracker

import (
	"context"
	"sort"
	"time"

	"jobhub/services/dashboard/internal/models"
	"jobhub/services/dashboard/internal/query"
	"jobhub/services/dashboard/internal/store"
)

// Entry is an application joined with the job it was made for.
type Entry struct {
	Job       models.Job `json:"job"`
	AppliedAt time.Time  `json:"applied_at"`
}

type Tracker struct {
	store store.Store
	now   func() time.Time
}

func New(s store.Store, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: s, now: now}
}

// Apply records an application for jobID. It returns false, and records
// nothing, when one already exists.
func (t *Tracker) Apply(ctx context.Context, jobID string) (bool, error) {
	apps, err := t.store.LoadApplications(ctx)
	if err != nil {
		return false, err
	}
	if models.ApplicationList(apps).Has(jobID) {
		return false, nil
	}

	apps = append(apps, models.ApplicationRecord{JobID: jobID, AppliedAt: t.now().UTC()})
	if err := t.store.SaveApplications(ctx, apps); err != nil {
		return false, err
	}
	return true, nil
}

// Records returns the stored records, including those whose job is gone.
func (t *Tracker) Records(ctx context.Context) ([]models.ApplicationRecord, error) {
	return t.store.LoadApplications(ctx)
}

// List joins the records against jobs, skipping records whose job is no
// longer there. Sort keys are dateDesc (default), dateAsc, titleAsc and
// titleDesc.
func (t *Tracker) List(ctx context.Context, jobs []models.Job, key query.SortKey) ([]Entry, error) {
	apps, err := t.store.LoadApplications(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}

	entries := make([]Entry, 0, len(apps))
	for _, a := range apps {
		if j, ok := byID[a.JobID]; ok {
			entries = append(entries, Entry{Job: j, AppliedAt: a.AppliedAt})
		}
	}

	sortEntries(entries, key)
	return entries, nil
}

func sortEntries(entries []Entry, key query.SortKey) {
	var less func(a, b Entry) bool
	switch key {
	case query.SortDateAsc:
		less = func(a, b Entry) bool { return a.AppliedAt.Before(b.AppliedAt) }
	case query.SortTitleAsc:
		less = func(a, b Entry) bool { return query.CompareTitles(a.Job.Title, b.Job.Title) < 0 }
	case query.SortTitleDesc:
		less = func(a, b Entry) bool { return query.CompareTitles(a.Job.Title, b.Job.Title) > 0 }
	default:
		less = func(a, b Entry) bool { return a.AppliedAt.After(b.AppliedAt) }
	}
	sort.SliceStable(entries, func(i, k int) bool { return less(entries[i], entries[k]) })
}

// Clear removes every record.
func (t *Tracker) Clear(ctx context.Context) error {
	return t.store.SaveApplications(ctx, []models.ApplicationRecord{})
}
