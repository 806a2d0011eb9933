package dashboard

import (
	"jobhub/services/dashboard/internal/merge"
	"jobhub/services/dashboard/internal/models"
	"jobhub/services/dashboard/internal/query"
	"jobhub/services/dashboard/internal/urlstate"
)

// View is everything a client renders for one descriptor.
type View struct {
	Jobs      []models.Job                        `json:"jobs"`
	Total     int                                 `json:"total"`
	// Remote counts jobs whose id is of remote origin, shadowed or not.
	Remote    int                                 `json:"remote"`
	Counts    map[models.Dimension]map[string]int `json:"counts"`
	Companies []string                            `json:"companies"`
	Selected  *models.Job                         `json:"selected,omitempty"`
	Query     string                              `json:"query"`

	Descriptor query.Descriptor `json:"-"`
}

// buildView filters jobs by d. The selection falls back to the first
// filtered job when the selected id is not among them; the returned
// descriptor and query string reflect that.
func buildView(jobs []models.Job, d query.Descriptor) View {
	filtered := query.Query(jobs, d)

	var selected *models.Job
	for i := range filtered {
		if filtered[i].ID == d.SelectedJobID {
			selected = &filtered[i]
			break
		}
	}
	if selected == nil && len(filtered) > 0 {
		selected = &filtered[0]
	}
	d.SelectedJobID = ""
	if selected != nil {
		d.SelectedJobID = selected.ID
	}

	companies := query.Companies(jobs)
	if companies == nil {
		companies = []string{}
	}

	return View{
		Jobs:       filtered,
		Total:      len(jobs),
		Remote:     len(merge.SplitRemote(jobs)),
		Counts:     query.Counts(jobs),
		Companies:  companies,
		Selected:   selected,
		Query:      urlstate.Encode(d),
		Descriptor: d,
	}
}
