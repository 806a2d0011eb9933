package events

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"jobhub/services/dashboard/internal/config"
	"jobhub/services/dashboard/internal/errors"
	"jobhub/services/dashboard/internal/models"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	subject string
	data    []byte
}

type recordingConn struct {
	msgs []published
	err  error
}

func (c *recordingConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, published{subject, data})
	return nil
}

func newTestPublisher(conn *recordingConn) *natsPublisher {
	fixed := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	return &natsPublisher{conn: conn, logger: zap.NewNop(), now: func() time.Time { return fixed }}
}

func TestPublisher_Subjects(t *testing.T) {
	conn := &recordingConn{}
	p := newTestPublisher(conn)
	ctx := context.Background()

	require.NoError(t, p.JobUpserted(ctx, models.Job{ID: "local-1", Title: "Go Dev"}))
	require.NoError(t, p.JobDeleted(ctx, "local-1"))
	require.NoError(t, p.ApplicationCreated(ctx, models.ApplicationRecord{JobID: "remote-2", AppliedAt: time.Now()}))
	require.NoError(t, p.ApplicationsCleared(ctx))

	require.Len(t, conn.msgs, 4)
	assert.Equal(t, JobUpsertedSubject, conn.msgs[0].subject)
	assert.Equal(t, JobDeletedSubject, conn.msgs[1].subject)
	assert.Equal(t, ApplicationCreatedSubject, conn.msgs[2].subject)
	assert.Equal(t, ApplicationsClearedSubject, conn.msgs[3].subject)

	var ev JobEvent
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &ev))
	assert.Equal(t, "local-1", ev.JobID)
	require.NotNil(t, ev.Job)
	assert.Equal(t, "Go Dev", ev.Job.Title)
	_, err := uuid.Parse(ev.EventID)
	assert.NoError(t, err)
	assert.Equal(t, 2024, ev.OccurredAt.Year())

	var deleted map[string]any
	require.NoError(t, json.Unmarshal(conn.msgs[1].data, &deleted))
	assert.NotContains(t, deleted, "job")
}

func TestPublisher_Failure(t *testing.T) {
	p := newTestPublisher(&recordingConn{err: stderrors.New("no responders")})

	err := p.JobDeleted(context.Background(), "x")
	assert.True(t, errors.IsType(err, errors.ErrTypeUnavailable))
}

func TestNewPublisher_NilConn(t *testing.T) {
	p := NewPublisher(nil, zap.NewNop())
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.JobUpserted(context.Background(), models.Job{}))
	p.Close()
}

func TestConnect_Disabled(t *testing.T) {
	conn, err := Connect(&config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, conn)
}

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.calls++
	return f.err
}

func TestRefreshHandler(t *testing.T) {
	r := &fakeRefresher{}
	h := NewRefreshHandler(zap.NewNop(), nil, r)

	h.handleRefresh(&nats.Msg{Subject: RefreshRequestedSubject})
	r.err = stderrors.New("api down")
	h.handleRefresh(&nats.Msg{Subject: RefreshRequestedSubject})

	assert.Equal(t, 2, r.calls)
	assert.NoError(t, h.RegisterSubscriptions(nil), "no connection means nothing to register")
}
