// Package store persists locally authored jobs and application records.
package store

import (
	"context"

	"jobhub/services/dashboard/internal/models"
)

// Store holds two collections. Loads of an absent collection return an
// empty slice and saves replace the whole collection. Failures are
// STORAGE domain errors.
type Store interface {
	LoadJobs(ctx context.Context) ([]models.Job, error)
	SaveJobs(ctx context.Context, jobs []models.Job) error
	LoadApplications(ctx context.Context) ([]models.ApplicationRecord, error)
	SaveApplications(ctx context.Context, apps []models.ApplicationRecord) error
	Close() error
}
