package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/cloudbilling/internal/infrastructure/cache"
	"github.com/orris-inc/cloudbilling/internal/shared/config"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

type countingJob struct {
	calls atomic.Int32
	err   error
}

func (j *countingJob) Execute(ctx context.Context) (int, error) {
	j.calls.Add(1)
	return 1, j.err
}

func enabled(interval time.Duration) config.JobConfig {
	return config.JobConfig{Enabled: true, Interval: interval, Timeout: time.Second}
}

func TestSchedulerManager_RegisterBatchJob(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNop(), nil)
	require.NoError(t, err)

	require.NoError(t, m.RegisterBatchJob("billing-due", enabled(time.Minute), &countingJob{}))
	require.NoError(t, m.RegisterBatchJob("invoice-sync", config.JobConfig{Enabled: false}, &countingJob{}))

	err = m.RegisterBatchJob("expiration", config.JobConfig{Enabled: true}, &countingJob{})
	assert.Error(t, err)

	jobs := m.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "billing-due", jobs[0].Name())
}

func TestSchedulerManager_RunsImmediately(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNop(), nil)
	require.NoError(t, err)

	ok := &countingJob{}
	failing := &countingJob{err: errors.New("provider down")}
	require.NoError(t, m.RegisterBatchJob("ok", enabled(time.Hour), ok))
	require.NoError(t, m.RegisterBatchJob("failing", enabled(time.Hour), failing))

	m.Start()
	m.Start()
	assert.True(t, m.IsStarted())

	assert.Eventually(t, func() bool {
		return ok.calls.Load() == 1 && failing.calls.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.False(t, m.IsStarted())
	require.NoError(t, m.Stop())
}

func TestSchedulerManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := cache.NewSchedulerLocker(client, time.Minute)

	// another worker holds the lock for this job
	held, err := locker.Lock(context.Background(), "billing-due")
	require.NoError(t, err)

	m, err := NewSchedulerManager(logger.NewNop(), locker)
	require.NoError(t, err)

	job := &countingJob{}
	require.NoError(t, m.RegisterBatchJob("billing-due", enabled(time.Hour), job))
	m.Start()
	t.Cleanup(func() { _ = m.Stop() })

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), job.calls.Load())

	require.NoError(t, held.Unlock(context.Background()))
}
