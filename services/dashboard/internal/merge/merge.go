// Package merge combines remote and locally stored jobs into the canonical
// collection.
package merge

import "jobhub/services/dashboard/internal/models"

// Merge keys both inputs by id; a local job replaces a remote job with the
// same id. Each id appears once, at the position it first appeared in
// remote followed by local.
func Merge(remote, local []models.Job) []models.Job {
	index := make(map[string]int, len(remote)+len(local))
	out := make([]models.Job, 0, len(remote)+len(local))

	put := func(j models.Job) {
		if i, ok := index[j.ID]; ok {
			out[i] = j
			return
		}
		index[j.ID] = len(out)
		out = append(out, j)
	}

	for _, j := range remote {
		put(j)
	}
	for _, j := range local {
		put(j)
	}
	return out
}

// SplitRemote returns the jobs whose id carries the remote prefix.
func SplitRemote(jobs []models.Job) []models.Job {
	var remote []models.Job
	for _, j := range jobs {
		if j.IsRemote() {
			remote = append(remote, j)
		}
	}
	return remote
}

// Upsert replaces the job with j.ID or appends j.
func Upsert(jobs []models.Job, j models.Job) []models.Job {
	out := append([]models.Job(nil), jobs...)
	for i := range out {
		if out[i].ID == j.ID {
			out[i] = j
			return out
		}
	}
	return append(out, j)
}

// Remove drops the job with id and reports whether it was there.
func Remove(jobs []models.Job, id string) ([]models.Job, bool) {
	out := make([]models.Job, 0, len(jobs))
	found := false
	for _, j := range jobs {
		if j.ID == id {
			found = true
			continue
		}
		out = append(out, j)
	}
	return out, found
}

// Find returns the job with id.
func Find(jobs []models.Job, id string) (models.Job, bool) {
	for _, j := range jobs {
		if j.ID == id {
			return j, true
		}
	}
	return models.Job{}, false
}
