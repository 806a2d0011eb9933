// Package dashboard owns the dashboard state: the remote snapshot, the
// canonical job collection and the current descriptor. Every mutation goes
// through Controller and recomputes the canonical collection.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"jobhub/common/telemetry"
	"jobhub/services/dashboard/internal/api"
	"jobhub/services/dashboard/internal/errors"
	"jobhub/services/dashboard/internal/events"
	"jobhub/services/dashboard/internal/merge"
	"jobhub/services/dashboard/internal/models"
	"jobhub/services/dashboard/internal/normalizer"
	"jobhub/services/dashboard/internal/query"
	"jobhub/services/dashboard/internal/store"
	"jobhub/services/dashboard/internal/tracker"
	"jobhub/services/dashboard/internal/urlstate"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobhub/dashboard/controller")

type Controller struct {
	source    api.JobSource
	store     store.Store
	tracker   *tracker.Tracker
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time

	mu         sync.Mutex
	remote     []models.Job
	local      []models.Job
	jobs       []models.Job
	descriptor query.Descriptor
}

type Option func(*Controller)

// WithClock replaces time.Now, for ids, dates and application timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func New(source api.JobSource, s store.Store, publisher events.Publisher, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		source:     source,
		store:      s,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
		descriptor: query.Descriptor{Sort: query.DefaultSort},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.publisher == nil {
		c.publisher = events.NopPublisher{}
	}
	c.tracker = tracker.New(s, c.now)
	return c
}

// fetchRemote fetches and normalizes the remote jobs.
func (c *Controller) fetchRemote(ctx context.Context) ([]models.Job, error) {
	raws, err := c.source.FetchRemoteJobs(ctx)
	if err != nil {
		return nil, err
	}
	return normalizer.NormalizeAll(raws, c.now().UTC()), nil
}

// Load builds the initial state. A failed fetch leaves the remote set empty
// and is only logged; a failed store read is returned.
func (c *Controller) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Controller.Load")
	defer span.End()

	remote, err := c.fetchRemote(ctx)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("failed to fetch remote jobs, continuing with local jobs only", zap.Error(err))
		remote = nil
	}

	local, err := c.store.LoadJobs(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.remote = remote
	c.local = local
	c.recompute()

	span.SetAttributes(
		telemetry.Int("jobs.remote", len(remote)),
		telemetry.Int("jobs.local", len(local)),
	)
	c.logger.Info("dashboard loaded",
		zap.Int("remote", len(remote)),
		zap.Int("local", len(local)),
		zap.Int("total", len(c.jobs)))
	return nil
}

// Refresh re-fetches the remote jobs, bypassing the payload cache. On
// failure the previous remote snapshot stays in place and the error is
// returned.
func (c *Controller) Refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Controller.Refresh")
	defer span.End()

	if err := c.source.Invalidate(ctx); err != nil {
		c.logger.Warn("failed to invalidate remote jobs cache", zap.Error(err))
	}

	remote, err := c.fetchRemote(ctx)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("refresh failed, keeping previous remote jobs", zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.remote = remote
	c.recompute()

	c.logger.Info("remote jobs refreshed", zap.Int("remote", len(remote)), zap.Int("total", len(c.jobs)))
	return nil
}

// recompute rebuilds the canonical collection. Callers hold mu.
func (c *Controller) recompute() {
	c.jobs = merge.Merge(c.remote, c.local)
}

// Jobs returns a copy of the canonical collection.
func (c *Controller) Jobs() []models.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Job(nil), c.jobs...)
}

func (c *Controller) Job(id string) (models.Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return merge.Find(c.jobs, id)
}

// View derives the view for d without touching the current descriptor.
func (c *Controller) View(d query.Descriptor) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return buildView(c.jobs, d)
}

// CurrentView derives the view for the current descriptor.
func (c *Controller) CurrentView() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return buildView(c.jobs, c.descriptor)
}

// SetDescriptor makes d current and returns its view. The stored descriptor
// carries the effective selection.
func (c *Controller) SetDescriptor(d query.Descriptor) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := buildView(c.jobs, d)
	c.descriptor = v.Descriptor
	return v
}

// ViewFromURL decodes a shared query string and makes it current.
func (c *Controller) ViewFromURL(raw string) View {
	return c.SetDescriptor(urlstate.Decode(raw))
}

// AddSearchToken appends token, usually a clicked tag, to the current
// search text.
func (c *Controller) AddSearchToken(token string) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.descriptor
	d.Search = query.AppendSearchToken(d.Search, token)
	v := buildView(c.jobs, d)
	c.descriptor = v.Descriptor
	return v
}

// buildJob turns form input into a job. Salary fields must be numeric or
// blank; categorical fields are mapped onto their option sets.
func (c *Controller) buildJob(in JobInput, now time.Time) (models.Job, error) {
	salaryMin, err := in.SalaryMin.Float()
	if err != nil {
		return models.Job{}, errors.InvalidInput("salary_min: "+err.Error(), nil)
	}
	salaryMax, err := in.SalaryMax.Float()
	if err != nil {
		return models.Job{}, errors.InvalidInput("salary_max: "+err.Error(), nil)
	}

	experience := models.DefaultExperience
	if strings.TrimSpace(in.Experience) != "" {
		experience = normalizer.MapToEnum(in.Experience, models.ExperienceLevels)
	}

	return models.Job{
		ID:             strings.TrimSpace(in.ID),
		Title:          orDefault(in.Title, normalizer.DefaultTitle),
		Company:        orDefault(in.Company, normalizer.DefaultCompany),
		Location:       normalizer.MapToEnum(in.Location, models.Locations),
		EmploymentType: normalizer.MapToEnum(in.EmploymentType, models.EmploymentTypes),
		Experience:     experience,
		SalaryMin:      salaryMin,
		SalaryMax:      salaryMax,
		Tags:           normalizer.SplitList(in.Tags, ","),
		Description:    strings.TrimSpace(in.Description),
		Requirements:   normalizer.SplitList(strings.ReplaceAll(in.Requirements, "\r\n", "\n"), "\n"),
		Benefits:       normalizer.SplitList(strings.ReplaceAll(in.Benefits, "\r\n", "\n"), "\n"),
		Date:           now,
	}, nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

// newLocalID returns local-<unix millis>, stepping forward past ids
// already in use.
func newLocalID(now time.Time, taken []models.Job) string {
	ms := now.UnixMilli()
	for {
		id := fmt.Sprintf("%s%d", models.LocalIDPrefix, ms)
		if _, exists := merge.Find(taken, id); !exists {
			return id
		}
		ms++
	}
}

// CreateOrUpdateJob stores the job as a local entry, replacing any local
// job with the same id and shadowing a remote one. An empty id creates a
// new job. The saved job becomes the selection.
func (c *Controller) CreateOrUpdateJob(ctx context.Context, in JobInput) (models.Job, error) {
	ctx, span := tracer.Start(ctx, "Controller.CreateOrUpdateJob")
	defer span.End()

	now := c.now().UTC()
	job, err := c.buildJob(in, now)
	if err != nil {
		return models.Job{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	local, err := c.store.LoadJobs(ctx)
	if err != nil {
		span.RecordError(err)
		return models.Job{}, err
	}
	if job.ID == "" {
		job.ID = newLocalID(now, merge.Merge(c.jobs, local))
	}
	span.SetAttributes(telemetry.String("job.id", job.ID))

	local = merge.Upsert(local, job)
	if err := c.store.SaveJobs(ctx, local); err != nil {
		span.RecordError(err)
		return models.Job{}, err
	}

	c.local = local
	c.recompute()
	c.descriptor.SelectedJobID = job.ID

	c.logger.Info("job saved", zap.String("id", job.ID), zap.String("title", job.Title))
	if err := c.publisher.JobUpserted(ctx, job); err != nil {
		c.logger.Warn("failed to publish job upsert", zap.String("id", job.ID), zap.Error(err))
	}
	return job, nil
}

// DeleteJob removes a local job. It reports false, changing nothing, when
// the id is not in the local store; remote jobs cannot be deleted. Deleting
// a local job that shadowed a remote one brings the remote version back.
func (c *Controller) DeleteJob(ctx context.Context, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Controller.DeleteJob")
	defer span.End()
	span.SetAttributes(telemetry.String("job.id", id))

	c.mu.Lock()
	defer c.mu.Unlock()

	local, err := c.store.LoadJobs(ctx)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	local, found := merge.Remove(local, id)
	if !found {
		return false, nil
	}
	if err := c.store.SaveJobs(ctx, local); err != nil {
		span.RecordError(err)
		return false, err
	}

	c.local = local
	c.recompute()
	if c.descriptor.SelectedJobID == id {
		c.descriptor.SelectedJobID = ""
	}

	c.logger.Info("job deleted", zap.String("id", id))
	if err := c.publisher.JobDeleted(ctx, id); err != nil {
		c.logger.Warn("failed to publish job deletion", zap.String("id", id), zap.Error(err))
	}
	return true, nil
}

// Apply records an application for a job in the canonical collection. It
// returns false for a repeated application.
func (c *Controller) Apply(ctx context.Context, jobID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := merge.Find(c.jobs, jobID); !ok {
		return false, errors.NotFound(fmt.Sprintf("job %q not found", jobID), nil)
	}

	applied, err := c.tracker.Apply(ctx, jobID)
	if err != nil || !applied {
		return applied, err
	}

	rec := models.ApplicationRecord{JobID: jobID, AppliedAt: c.now().UTC()}
	if err := c.publisher.ApplicationCreated(ctx, rec); err != nil {
		c.logger.Warn("failed to publish application", zap.String("job_id", jobID), zap.Error(err))
	}
	return true, nil
}

// Applications lists applications joined with the current jobs.
func (c *Controller) Applications(ctx context.Context, key query.SortKey) ([]tracker.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.List(ctx, c.jobs, key)
}

// ApplicationHistory returns every stored application record in the order
// they were made, including records whose job is gone.
func (c *Controller) ApplicationHistory(ctx context.Context) ([]models.ApplicationRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.Records(ctx)
}

func (c *Controller) ClearApplications(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.tracker.Clear(ctx); err != nil {
		return err
	}
	if err := c.publisher.ApplicationsCleared(ctx); err != nil {
		c.logger.Warn("failed to publish applications cleared", zap.Error(err))
	}
	return nil
}
