package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/streetcart/groupbuy-backend/api/middleware"
	"github.com/streetcart/groupbuy-backend/api/responses"
	"github.com/streetcart/groupbuy-backend/internal/lifecycle"
	"github.com/streetcart/groupbuy-backend/internal/participation"
	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
)

// ParticipationService is the vendor side of the participation engine.
type ParticipationService interface {
	Join(ctx context.Context, input participation.JoinInput) (*models.GroupOrder, error)
	UpdateParticipation(ctx context.Context, orderID, vendorID uuid.UUID, update participation.ParticipationUpdate) (*models.GroupOrder, error)
	Remove(ctx context.Context, orderID, vendorID uuid.UUID) (*models.GroupOrder, error)
}

// Router draws the road path between two points.
type Router interface {
	Route(ctx context.Context, from, to geo.Coordinate) []geo.Coordinate
}

func actorOf(id middleware.Identity) lifecycle.Actor {
	return lifecycle.Actor{UserID: id.UserID, Name: id.Name, Role: id.Role}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

// caller resolves the identity and, when withOrder is set, the order id in the path.
func caller(w http.ResponseWriter, r *http.Request, logg *logger.Logger, withOrder bool) (middleware.Identity, uuid.UUID, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return id, uuid.Nil, false
	}
	if !withOrder {
		return id, uuid.Nil, true
	}
	orderID, err := parseOrderID(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return id, uuid.Nil, false
	}
	return id, orderID, true
}

// Detail returns one order as seen by the caller.
func Detail(ctrl lifecycle.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, orderID, ok := caller(w, r, logg, true)
		if !ok {
			return
		}
		order, err := ctrl.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.WrapStore(err, "load group order"))
			return
		}
		responses.WriteSuccess(w, newOrderView(order, id))
	}
}

// Delete removes an order on behalf of its supplier or a participating vendor.
func Delete(ctrl lifecycle.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, orderID, ok := caller(w, r, logg, true)
		if !ok {
			return
		}
		if err := ctrl.Delete(r.Context(), actorOf(id), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
