package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetcart/groupbuy-backend/pkg/logger"
	"github.com/streetcart/groupbuy-backend/pkg/metrics"
)

type fakeLock struct {
	acquired bool
	held     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.acquired = true
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return service
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "stranded-acceptance"}
	failing := &testJob{name: "order-expiry", err: errors.New("boom")}
	lock := &fakeLock{}
	service := newTestService(t, lock, failing, ok)

	err := service.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "order-expiry"}
	lock := &fakeLock{held: true}
	service := newTestService(t, lock, job)

	require.NoError(t, service.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
	assert.Zero(t, lock.releases)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	require.Error(t, err)

	_, err = NewService(ServiceParams{Logger: logger.Nop()})
	require.Error(t, err)

	service, err := NewService(ServiceParams{Logger: logger.Nop(), Lock: &fakeLock{}})
	require.NoError(t, err)
	assert.Equal(t, defaultInterval, service.interval)
}

func TestRunStopsWhenContextCanceled(t *testing.T) {
	job := &testJob{name: "stranded-acceptance"}
	service := newTestService(t, &fakeLock{}, job)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := service.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, job.runs)
}
