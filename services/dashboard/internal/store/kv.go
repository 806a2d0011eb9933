package store

import (
	"context"
	stderrors "errors"

	"jobhub/common/cache"
	"jobhub/common/telemetry"
	"jobhub/services/dashboard/internal/errors"
	"jobhub/services/dashboard/internal/models"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobhub/dashboard/store")

const (
	JobsKey         = "jobhub.jobs"
	ApplicationsKey = "jobhub.applications"
)

// KVStore keeps each collection as one JSON document in a cache.Cache. The
// cache belongs to the caller, who closes it.
type KVStore struct {
	cache  cache.Cache
	logger *zap.Logger
}

func NewKVStore(c cache.Cache, logger *zap.Logger) *KVStore {
	return &KVStore{cache: c, logger: logger}
}

func (s *KVStore) LoadJobs(ctx context.Context) ([]models.Job, error) {
	ctx, span := tracer.Start(ctx, "KVStore.LoadJobs")
	defer span.End()

	var jobs models.JobList
	if err := s.load(ctx, JobsKey, &jobs); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if jobs == nil {
		jobs = models.JobList{}
	}
	span.SetAttributes(telemetry.Int("jobs.count", len(jobs)))
	return []models.Job(jobs), nil
}

func (s *KVStore) SaveJobs(ctx context.Context, jobs []models.Job) error {
	ctx, span := tracer.Start(ctx, "KVStore.SaveJobs")
	defer span.End()
	span.SetAttributes(telemetry.Int("jobs.count", len(jobs)))

	if err := s.save(ctx, JobsKey, models.JobList(jobs)); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *KVStore) LoadApplications(ctx context.Context) ([]models.ApplicationRecord, error) {
	ctx, span := tracer.Start(ctx, "KVStore.LoadApplications")
	defer span.End()

	var apps models.ApplicationList
	if err := s.load(ctx, ApplicationsKey, &apps); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if apps == nil {
		apps = models.ApplicationList{}
	}
	return []models.ApplicationRecord(apps), nil
}

func (s *KVStore) SaveApplications(ctx context.Context, apps []models.ApplicationRecord) error {
	ctx, span := tracer.Start(ctx, "KVStore.SaveApplications")
	defer span.End()

	if err := s.save(ctx, ApplicationsKey, models.ApplicationList(apps)); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *KVStore) load(ctx context.Context, key string, into interface{}) error {
	err := s.cache.Get(ctx, key, into)
	if stderrors.Is(err, cache.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Error("failed to read collection", zap.String("key", key), zap.Error(err))
		return errors.Storage("reading "+key, err)
	}
	return nil
}

func (s *KVStore) save(ctx context.Context, key string, value interface{}) error {
	if err := s.cache.Set(ctx, key, value, cache.NoExpiration); err != nil {
		s.logger.Error("failed to write collection", zap.String("key", key), zap.Error(err))
		return errors.Storage("writing "+key, err)
	}
	return nil
}

func (s *KVStore) Close() error {
	return nil
}
