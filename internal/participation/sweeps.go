package participation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
)

const (
	OperationResetStranded = "reset_stranded"
	OperationExpire        = "expire"
)

// SweepResult lists the orders a sweep looked at and the ones it changed.
type SweepResult struct {
	Scanned int
	Changed []uuid.UUID
}

// ResetStrandedAcceptances reopens accepted orders that have no participants left.
func (e *Engine) ResetStrandedAcceptances(ctx context.Context) (SweepResult, error) {
	candidates, err := e.repo.ListOrdersByStatus(ctx, enums.OrderStatusAccepted)
	if err != nil {
		return SweepResult{}, err
	}
	return e.sweep(ctx, OperationResetStranded, candidates,
		func(order *models.GroupOrder) bool {
			return len(order.Participants) == 0
		},
		Mutation{
			Operation: OperationResetStranded,
			Reason:    "no participants remain",
			Next: func(order *models.GroupOrder, _ int) enums.OrderStatus {
				if order.Status == enums.OrderStatusAccepted && len(order.Participants) == 0 {
					return enums.OrderStatusOpen
				}
				return order.Status
			},
		})
}

// ExpireStaleOrders expires open or accepted orders whose deadline passed
// below the minimum quantity. Orders that met the minimum are left alone.
func (e *Engine) ExpireStaleOrders(ctx context.Context) (SweepResult, error) {
	now := e.now()
	stale := func(order *models.GroupOrder) bool {
		return order.Status.IsActive() && order.Deadline.Before(now) && order.TotalQuantity < order.MinQuantity
	}
	candidates, err := e.repo.ListOrdersByStatus(ctx, enums.OrderStatusOpen, enums.OrderStatusAccepted)
	if err != nil {
		return SweepResult{}, err
	}
	return e.sweep(ctx, OperationExpire, candidates,
		func(order *models.GroupOrder) bool {
			order.RecomputeTotal()
			return stale(order)
		},
		Mutation{
			Operation: OperationExpire,
			Reason:    "deadline passed below minimum quantity",
			Next: func(order *models.GroupOrder, _ int) enums.OrderStatus {
				if stale(order) {
					return enums.OrderStatusExpired
				}
				return order.Status
			},
		})
}

// sweep re-runs m per matching order in its own transaction. The candidate
// filter is only a pre-check; m.Next re-evaluates against locked rows.
func (e *Engine) sweep(ctx context.Context, name string, candidates []models.GroupOrder, match func(*models.GroupOrder) bool, m Mutation) (SweepResult, error) {
	result := SweepResult{Changed: []uuid.UUID{}}
	var errs error
	for i := range candidates {
		order := &candidates[i]
		if !match(order) {
			continue
		}
		result.Scanned++
		before := order.Status
		var after *models.GroupOrder
		backoff := retry.WithMaxRetries(uint64(e.sweepAttempts-1), retry.NewExponential(e.sweepBaseDelay))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			updated, err := e.Execute(ctx, order.ID, m)
			if err != nil {
				if pkgerrors.IsRetryable(err) {
					return retry.RetryableError(err)
				}
				return err
			}
			after = updated
			return nil
		})
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				continue
			}
			e.logg.Error(e.logg.WithFields(ctx, map[string]any{
				"sweep":    name,
				"order_id": order.ID.String(),
			}), "sweep order failed", err)
			errs = multierr.Append(errs, fmt.Errorf("%s %s: %w", name, order.ID, err))
			continue
		}
		if after != nil && after.Status != before {
			result.Changed = append(result.Changed, order.ID)
		}
	}
	return result, errs
}
