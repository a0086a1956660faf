package cron

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/streetcart/groupbuy-backend/internal/participation"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
	"github.com/streetcart/groupbuy-backend/pkg/metrics"
)

const (
	StrandedAcceptanceJobName = "stranded-acceptance"
	OrderExpiryJobName        = "order-expiry"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderSweeper interface {
	ResetStrandedAcceptances(ctx context.Context) (participation.SweepResult, error)
	ExpireStaleOrders(ctx context.Context) (participation.SweepResult, error)
}

// SweepJobParams configure the housekeeping jobs backed by the participation engine.
type SweepJobParams struct {
	Logger  *logger.Logger
	Engine  orderSweeper
	Metrics *metrics.CronJobMetrics
}

// NewStrandedAcceptanceJob reopens accepted orders left without participants.
func NewStrandedAcceptanceJob(params SweepJobParams) (Job, error) {
	if params.Engine == nil {
		return nil, fmt.Errorf("participation engine required")
	}
	return newSweepJob(StrandedAcceptanceJobName, params, params.Engine.ResetStrandedAcceptances)
}

// NewOrderExpiryJob expires orders whose deadline passed below the minimum.
func NewOrderExpiryJob(params SweepJobParams) (Job, error) {
	if params.Engine == nil {
		return nil, fmt.Errorf("participation engine required")
	}
	return newSweepJob(OrderExpiryJobName, params, params.Engine.ExpireStaleOrders)
}

func newSweepJob(name string, params SweepJobParams, sweep func(context.Context) (participation.SweepResult, error)) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &sweepJob{
		name:    name,
		sweep:   sweep,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

type sweepJob struct {
	name    string
	sweep   func(context.Context) (participation.SweepResult, error)
	logg    *logger.Logger
	metrics *metrics.CronJobMetrics
}

func (j *sweepJob) Name() string { return j.name }

// Run sweeps once. Orders that failed after retries are reported together;
// the ones that succeeded stay committed.
func (j *sweepJob) Run(ctx context.Context) error {
	result, err := j.sweep(ctx)
	j.metrics.AddAffected(j.name, len(result.Changed))

	changed := make([]string, 0, len(result.Changed))
	for _, id := range result.Changed {
		changed = append(changed, id.String())
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"orders_scanned": result.Scanned,
		"orders_changed": len(result.Changed),
		"order_ids":      changed,
	})
	if err != nil {
		j.logg.Warn(logCtx, "sweep finished with failures")
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(logCtx, "sweep complete")
	return nil
}
