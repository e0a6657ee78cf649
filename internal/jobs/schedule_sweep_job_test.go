package job

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/maheshrc27/postr/internal/metrics"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduleService struct {
	enqueueCalls int
	expireCalls  int
	enqueueErr   error
}

func (f *fakeScheduleService) Schedule(ctx context.Context, account, user string, in transfer.ScheduleCreation) (*models.Schedule, error) {
	return nil, nil
}

func (f *fakeScheduleService) Cancel(ctx context.Context, account, user, id string) (*models.Schedule, error) {
	return nil, nil
}

func (f *fakeScheduleService) List(ctx context.Context, account, user string, filter transfer.ScheduleFilter) ([]*models.Schedule, error) {
	return nil, nil
}

func (f *fakeScheduleService) EnqueueDue(ctx context.Context) (int, error) {
	f.enqueueCalls++
	return 2, f.enqueueErr
}

func (f *fakeScheduleService) ExpireTriggers(ctx context.Context) (int64, error) {
	f.expireCalls++
	return 1, nil
}

func TestSweepRunsBothPasses(t *testing.T) {
	ss := &fakeScheduleService{}
	m := metrics.NewMetrics()
	j := NewScheduleSweepJob(ss, m)

	j.Sweep()
	assert.Equal(t, 1, ss.enqueueCalls)
	assert.Equal(t, 1, ss.expireCalls)
}

func TestSweepExpiresEvenWhenEnqueueFails(t *testing.T) {
	ss := &fakeScheduleService{enqueueErr: errors.New("db down")}
	j := NewScheduleSweepJob(ss, metrics.NewMetrics())

	j.Sweep()
	assert.Equal(t, 1, ss.expireCalls)
}

func TestSweepSkipsWhileRunning(t *testing.T) {
	ss := &fakeScheduleService{}
	j := NewScheduleSweepJob(ss, metrics.NewMetrics())

	j.mu.Lock()
	j.Sweep()
	j.mu.Unlock()
	assert.Zero(t, ss.enqueueCalls)
}

func TestSweepRecordsDuration(t *testing.T) {
	m := metrics.NewMetrics()
	j := NewScheduleSweepJob(&fakeScheduleService{}, m)
	j.Sweep()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "postr_sweep_duration_seconds_count 1")
}

func TestStartRejectsBadSpec(t *testing.T) {
	j := NewScheduleSweepJob(&fakeScheduleService{}, metrics.NewMetrics())
	_, err := j.Start("not a cron spec")
	require.Error(t, err)

	c, err := j.Start("@every 1h")
	require.NoError(t, err)
	c.Stop()
}
