package participation

import (
	"context"

	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
)

// StatusListener is told about every committed status change.
type StatusListener interface {
	OnStatusChanged(ctx context.Context, order models.GroupOrder, from, to enums.OrderStatus)
}

// StatusListenerFunc adapts a function to StatusListener.
type StatusListenerFunc func(ctx context.Context, order models.GroupOrder, from, to enums.OrderStatus)

func (f StatusListenerFunc) OnStatusChanged(ctx context.Context, order models.GroupOrder, from, to enums.OrderStatus) {
	f(ctx, order, from, to)
}

// LoggingListener writes status changes to the structured log.
type LoggingListener struct {
	Logger *logger.Logger
}

func (l LoggingListener) OnStatusChanged(ctx context.Context, order models.GroupOrder, from, to enums.OrderStatus) {
	if l.Logger == nil {
		return
	}
	fields := map[string]any{
		"order_id":       order.ID.String(),
		"from_status":    from,
		"to_status":      to,
		"total_quantity": order.TotalQuantity,
	}
	l.Logger.Info(l.Logger.WithFields(ctx, fields), "group order status changed")
}
