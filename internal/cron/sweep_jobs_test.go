package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetcart/groupbuy-backend/internal/participation"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
	"github.com/streetcart/groupbuy-backend/pkg/metrics"
)

type stubSweeper struct {
	stranded participation.SweepResult
	expired  participation.SweepResult
	err      error
	calls    []string
}

func (s *stubSweeper) ResetStrandedAcceptances(context.Context) (participation.SweepResult, error) {
	s.calls = append(s.calls, "stranded")
	return s.stranded, s.err
}

func (s *stubSweeper) ExpireStaleOrders(context.Context) (participation.SweepResult, error) {
	s.calls = append(s.calls, "expiry")
	return s.expired, s.err
}

func TestSweepJobsCallTheirSweep(t *testing.T) {
	sweeper := &stubSweeper{
		stranded: participation.SweepResult{Scanned: 2, Changed: []uuid.UUID{uuid.New()}},
		expired:  participation.SweepResult{Scanned: 3, Changed: []uuid.UUID{uuid.New(), uuid.New()}},
	}
	reg := prometheus.NewRegistry()
	params := SweepJobParams{Logger: logger.Nop(), Engine: sweeper, Metrics: metrics.NewCronJobMetrics(reg)}

	stranded, err := NewStrandedAcceptanceJob(params)
	require.NoError(t, err)
	expiry, err := NewOrderExpiryJob(params)
	require.NoError(t, err)
	assert.Equal(t, StrandedAcceptanceJobName, stranded.Name())
	assert.Equal(t, OrderExpiryJobName, expiry.Name())

	ctx := context.Background()
	require.NoError(t, stranded.Run(ctx))
	require.NoError(t, expiry.Run(ctx))
	assert.Equal(t, []string{"stranded", "expiry"}, sweeper.calls)

	count, err := testutil.GatherAndCount(reg, "groupbuy_job_orders_affected_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSweepJobReportsFailures(t *testing.T) {
	sweeper := &stubSweeper{err: errors.New("store unavailable")}
	job, err := NewOrderExpiryJob(SweepJobParams{Logger: logger.Nop(), Engine: sweeper})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), OrderExpiryJobName)
	assert.Contains(t, err.Error(), "store unavailable")
}

func TestSweepJobValidation(t *testing.T) {
	_, err := NewStrandedAcceptanceJob(SweepJobParams{Logger: logger.Nop()})
	require.Error(t, err)
	_, err = NewOrderExpiryJob(SweepJobParams{Engine: &stubSweeper{}})
	require.Error(t, err)
}
