package dashboard

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"jobhub/common/cache"
	"jobhub/common/cache/memory"
	"jobhub/services/dashboard/internal/errors"
	"jobhub/services/dashboard/internal/events"
	"jobhub/services/dashboard/internal/models"
	"jobhub/services/dashboard/internal/query"
	"jobhub/services/dashboard/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	raws        []models.RawJob
	err         error
	invalidated int
}

func (f *fakeSource) FetchRemoteJobs(context.Context) ([]models.RawJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.raws, nil
}

func (f *fakeSource) Invalidate(context.Context) error {
	f.invalidated++
	return nil
}

// flakyStore fails writes while failWrites is set.
type flakyStore struct {
	store.Store
	failWrites bool
}

func (s *flakyStore) SaveJobs(ctx context.Context, jobs []models.Job) error {
	if s.failWrites {
		return errors.Storage("writing jobhub.jobs", stderrors.New("quota exceeded"))
	}
	return s.Store.SaveJobs(ctx, jobs)
}

type recordingPublisher struct {
	events.NopPublisher
	upserted []string
	deleted  []string
	applied  []string
	cleared  int
}

func (p *recordingPublisher) JobUpserted(_ context.Context, j models.Job) error {
	p.upserted = append(p.upserted, j.ID)
	return nil
}

func (p *recordingPublisher) JobDeleted(_ context.Context, id string) error {
	p.deleted = append(p.deleted, id)
	return nil
}

func (p *recordingPublisher) ApplicationCreated(_ context.Context, r models.ApplicationRecord) error {
	p.applied = append(p.applied, r.JobID)
	return nil
}

func (p *recordingPublisher) ApplicationsCleared(context.Context) error {
	p.cleared++
	return nil
}

type harness struct {
	ctrl   *Controller
	source *fakeSource
	store  *flakyStore
	pub    *recordingPublisher
	now    time.Time
}

func newHarness(t *testing.T, raws ...models.RawJob) *harness {
	t.Helper()
	c := memory.New(cache.DefaultOptions())
	t.Cleanup(func() { _ = c.Close() })

	h := &harness{
		source: &fakeSource{raws: raws},
		store:  &flakyStore{Store: store.NewKVStore(c, zap.NewNop())},
		pub:    &recordingPublisher{},
		now:    time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	h.ctrl = New(h.source, h.store, h.pub, zap.NewNop(), WithClock(func() time.Time { return h.now }))
	return h
}

func ids(jobs []models.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

var (
	rawA = models.RawJob{
		"id": "a", "title": "Backend Engineer", "company": "Acme", "location": "Berlin",
		"type": "Remote", "salary_min": 100000.0, "salary_max": 140000.0, "date": "2024-01-01",
		"tags": []any{"Go"},
	}
	rawB = models.RawJob{
		"id": "b", "title": "Frontend Dev", "company": "Globex", "location": "London",
		"type": "Full Time", "salary_min": 80000.0, "salary_max": 110000.0, "date": "2024-02-01",
		"tags": []any{"React", "CSS"},
	}
)

func TestLoad_Scenario(t *testing.T) {
	h := newHarness(t, rawA, rawB)
	require.NoError(t, h.ctrl.Load(context.Background()))

	v := h.ctrl.View(query.Descriptor{Sort: query.SortDateDesc})
	assert.Equal(t, []string{"remote-b", "remote-a"}, ids(v.Jobs))
	require.NotNil(t, v.Selected)
	assert.Equal(t, "remote-b", v.Selected.ID, "selection falls back to the first result")
	assert.Equal(t, "job=remote-b&sort=dateDesc", v.Query)
	assert.Equal(t, []string{"Acme", "Globex"}, v.Companies)

	v = h.ctrl.View(query.Descriptor{Search: "berlin"})
	assert.Equal(t, []string{"remote-a"}, ids(v.Jobs))
	assert.Equal(t, 1, v.Counts[models.DimensionLocation]["London"], "counts ignore active filters")

	v = h.ctrl.ViewFromURL("?f=location%3ABerlin%2Clocation%3ALondon&sort=dateAsc&job=remote-b")
	assert.Equal(t, []string{"remote-a", "remote-b"}, ids(v.Jobs))
	assert.Equal(t, "remote-b", v.Selected.ID)
	assert.Equal(t, "remote-b", h.ctrl.CurrentView().Selected.ID)
}

func TestLoad_FetchFailureDegrades(t *testing.T) {
	h := newHarness(t)
	h.source.err = errors.Fetch("executing request", stderrors.New("connection refused"))

	_, err := h.ctrl.CreateOrUpdateJob(context.Background(), JobInput{Title: "Local only"})
	require.NoError(t, err)

	require.NoError(t, h.ctrl.Load(context.Background()))
	assert.Len(t, h.ctrl.Jobs(), 1)
}

func TestRefresh_KeepsSnapshotOnFailure(t *testing.T) {
	h := newHarness(t, rawA)
	ctx := context.Background()
	require.NoError(t, h.ctrl.Load(ctx))

	h.source.err = errors.Fetch("unexpected status code: 503", nil)
	err := h.ctrl.Refresh(ctx)
	assert.True(t, errors.IsType(err, errors.ErrTypeFetch))
	assert.Equal(t, []string{"remote-a"}, ids(h.ctrl.Jobs()))

	h.source.err = nil
	h.source.raws = []models.RawJob{rawA, rawB}
	require.NoError(t, h.ctrl.Refresh(ctx))
	assert.Equal(t, []string{"remote-a", "remote-b"}, ids(h.ctrl.Jobs()))
	assert.Equal(t, 2, h.source.invalidated)
}

func TestCreateOrUpdateJob_Create(t *testing.T) {
	h := newHarness(t, rawA)
	ctx := context.Background()
	require.NoError(t, h.ctrl.Load(ctx))

	job, err := h.ctrl.CreateOrUpdateJob(ctx, JobInput{
		Title:          " Go Developer ",
		Company:        "Initech",
		Location:       "new york",
		EmploymentType: "contract",
		SalaryMin:      "95,000",
		SalaryMax:      "",
		Tags:           "Go, gRPC, ,",
		Requirements:   "Go\r\n\r\nSQL\n",
		Benefits:       "Remote",
	})
	require.NoError(t, err)

	assert.Equal(t, "local-1710072000000", job.ID)
	assert.Equal(t, "Go Developer", job.Title)
	assert.Equal(t, "New York", job.Location)
	assert.Equal(t, "Contract", job.EmploymentType)
	assert.Equal(t, models.DefaultExperience, job.Experience)
	assert.Equal(t, 95000.0, job.SalaryMin)
	assert.Equal(t, 0.0, job.SalaryMax)
	assert.Equal(t, []string{"Go", "gRPC"}, job.Tags)
	assert.Equal(t, []string{"Go", "SQL"}, job.Requirements)
	assert.Equal(t, h.now, job.Date)

	assert.Equal(t, []string{"remote-a", job.ID}, ids(h.ctrl.Jobs()))
	assert.Equal(t, job.ID, h.ctrl.CurrentView().Selected.ID)
	assert.Equal(t, []string{job.ID}, h.pub.upserted)

	second, err := h.ctrl.CreateOrUpdateJob(ctx, JobInput{Title: "Same millisecond"})
	require.NoError(t, err)
	assert.Equal(t, "local-1710072000001", second.ID)

	persisted, err := h.store.LoadJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestCreateOrUpdateJob_ShadowAndRestore(t *testing.T) {
	h := newHarness(t, rawA)
	ctx := context.Background()
	require.NoError(t, h.ctrl.Load(ctx))

	_, err := h.ctrl.CreateOrUpdateJob(ctx, JobInput{ID: "remote-a", Title: "Edited Backend", Experience: "senior"})
	require.NoError(t, err)

	jobs := h.ctrl.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "Edited Backend", jobs[0].Title)
	assert.Equal(t, "Senior", jobs[0].Experience)

	deleted, err := h.ctrl.DeleteJob(ctx, "remote-a")
	require.NoError(t, err)
	assert.True(t, deleted)

	job, ok := h.ctrl.Job("remote-a")
	require.True(t, ok)
	assert.Equal(t, "Backend Engineer", job.Title, "remote version comes back")
}

func TestCreateOrUpdateJob_InvalidSalary(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Load(context.Background()))

	_, err := h.ctrl.CreateOrUpdateJob(context.Background(), JobInput{Title: "X", SalaryMin: "lots"})

	assert.True(t, errors.IsType(err, errors.ErrTypeInvalidInput))
	assert.Empty(t, h.ctrl.Jobs())
}

func TestCreateOrUpdateJob_StorageFailureLeavesState(t *testing.T) {
	h := newHarness(t, rawA)
	ctx := context.Background()
	require.NoError(t, h.ctrl.Load(ctx))
	before := h.ctrl.Jobs()

	h.store.failWrites = true
	_, err := h.ctrl.CreateOrUpdateJob(ctx, JobInput{Title: "Never saved"})
	assert.True(t, errors.IsType(err, errors.ErrTypeStorage))

	_, err = h.ctrl.CreateOrUpdateJob(ctx, JobInput{ID: "remote-a", Title: "Nope"})
	require.Error(t, err)

	assert.Equal(t, before, h.ctrl.Jobs())
	assert.Empty(t, h.pub.upserted)
}

func TestDeleteJob_NoOpForUnknownOrRemote(t *testing.T) {
	h := newHarness(t, rawA)
	ctx := context.Background()
	require.NoError(t, h.ctrl.Load(ctx))

	deleted, err := h.ctrl.DeleteJob(ctx, "remote-a")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = h.ctrl.DeleteJob(ctx, "local-404")
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.Len(t, h.ctrl.Jobs(), 1)
	assert.Empty(t, h.pub.deleted)
}

func TestDeleteJob_ClearsSelection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.ctrl.Load(ctx))

	job, err := h.ctrl.CreateOrUpdateJob(ctx, JobInput{Title: "Temp"})
	require.NoError(t, err)

	deleted, err := h.ctrl.DeleteJob(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Nil(t, h.ctrl.CurrentView().Selected)
	assert.Equal(t, []string{job.ID}, h.pub.deleted)
}

func TestApplications(t *testing.T) {
	h := newHarness(t, rawA, rawB)
	ctx := context.Background()
	require.NoError(t, h.ctrl.Load(ctx))

	applied, err := h.ctrl.Apply(ctx, "remote-a")
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = h.ctrl.Apply(ctx, "remote-a")
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = h.ctrl.Apply(ctx, "remote-zzz")
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))

	h.now = h.now.Add(time.Hour)
	_, err = h.ctrl.Apply(ctx, "remote-b")
	require.NoError(t, err)

	entries, err := h.ctrl.Applications(ctx, query.SortDateDesc)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "remote-b", entries[0].Job.ID)
	assert.Equal(t, []string{"remote-a", "remote-b"}, h.pub.applied)

	require.NoError(t, h.ctrl.ClearApplications(ctx))
	entries, err = h.ctrl.Applications(ctx, query.SortDateDesc)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 1, h.pub.cleared)
}

func TestAddSearchToken(t *testing.T) {
	h := newHarness(t, rawA, rawB)
	require.NoError(t, h.ctrl.Load(context.Background()))

	v := h.ctrl.AddSearchToken("React")
	assert.Equal(t, []string{"remote-b"}, ids(v.Jobs))
	assert.Equal(t, "React", h.ctrl.CurrentView().Descriptor.Search)
}

func TestAddSearchToken_DefaultTagsAreSearchable(t *testing.T) {
	untagged := models.RawJob{"id": "c", "title": "Designer", "company": "Hooli"}
	h := newHarness(t, rawA, untagged)
	require.NoError(t, h.ctrl.Load(context.Background()))

	v := h.ctrl.AddSearchToken("TypeScript")
	assert.Equal(t, []string{"remote-c"}, ids(v.Jobs))
}

func TestJobInput_DecodesNumbersAndStrings(t *testing.T) {
	var in JobInput
	require.NoError(t, json.Unmarshal([]byte(`{"salary_min": 90000, "salary_max": "120000", "title": "T"}`), &in))

	min, err := in.SalaryMin.Float()
	require.NoError(t, err)
	assert.Equal(t, 90000.0, min)

	max, err := in.SalaryMax.Float()
	require.NoError(t, err)
	assert.Equal(t, 120000.0, max)

	require.NoError(t, json.Unmarshal([]byte(`{"salary_min": null}`), &in))
	_, err = NumberText("NaN").Float()
	assert.Error(t, err)
}

func TestApplicationHistory_KeepsRecordsOfDeletedJobs(t *testing.T) {
	h := newHarness(t, rawA)
	ctx := context.Background()
	require.NoError(t, h.ctrl.Load(ctx))

	job, err := h.ctrl.CreateOrUpdateJob(ctx, JobInput{Title: "Go Dev", Company: "Initech"})
	require.NoError(t, err)
	_, err = h.ctrl.Apply(ctx, job.ID)
	require.NoError(t, err)

	found, err := h.ctrl.DeleteJob(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, found)

	entries, err := h.ctrl.Applications(ctx, query.SortDateDesc)
	require.NoError(t, err)
	assert.Empty(t, entries)

	history, err := h.ctrl.ApplicationHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, job.ID, history[0].JobID)
}

func TestView_CountsRemoteOrigin(t *testing.T) {
	h := newHarness(t, rawA, rawB)
	ctx := context.Background()
	require.NoError(t, h.ctrl.Load(ctx))

	_, err := h.ctrl.CreateOrUpdateJob(ctx, JobInput{ID: "remote-a", Title: "Edited", Company: "Acme"})
	require.NoError(t, err)
	_, err = h.ctrl.CreateOrUpdateJob(ctx, JobInput{Title: "New", Company: "Initech"})
	require.NoError(t, err)

	v := h.ctrl.View(query.Descriptor{})
	assert.Equal(t, 3, v.Total)
	assert.Equal(t, 2, v.Remote, "a shadowed remote job keeps its remote-origin id")
}
