package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/streetcart/groupbuy-backend/api/middleware"
	"github.com/streetcart/groupbuy-backend/api/responses"
	"github.com/streetcart/groupbuy-backend/internal/feed"
	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
)

const streamKeepAlive = 25 * time.Second

// Subscriber is the order feed as seen by the stream endpoint.
type Subscriber interface {
	Subscribe(cb feed.Callback) func()
}

// Stream pushes a full snapshot of the orders visible to the caller every
// time any order changes, as server-sent events. Suppliers get their own
// orders; vendors get open orders plus the ones they joined.
func Stream(source Subscriber, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, ok := caller(w, r, logg, false)
		if !ok {
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		// Only the newest snapshot matters; a pending one is replaced.
		latest := make(chan []OrderView, 1)
		unsubscribe := source.Subscribe(func(_ context.Context, orders []models.GroupOrder) {
			views := newOrderViews(visibleTo(orders, id), id)
			select {
			case <-latest:
			default:
			}
			select {
			case latest <- views:
			default:
			}
		})
		defer unsubscribe()

		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case views := <-latest:
				payload, err := json.Marshal(views)
				if err != nil {
					if logg != nil {
						logg.Error(ctx, "encode order snapshot", err)
					}
					continue
				}
				if _, err := fmt.Fprintf(w, "event: orders\ndata: %s\n\n", payload); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func visibleTo(orders []models.GroupOrder, id middleware.Identity) []models.GroupOrder {
	out := make([]models.GroupOrder, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		switch id.Role {
		case enums.UserRoleSupplier:
			if o.SupplierID == id.UserID {
				out = append(out, *o)
			}
		default:
			if o.Status == enums.OrderStatusOpen || o.Participant(id.UserID) != nil {
				out = append(out, *o)
			}
		}
	}
	return out
}
