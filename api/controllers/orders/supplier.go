package orders

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/streetcart/groupbuy-backend/api/responses"
	"github.com/streetcart/groupbuy-backend/api/validators"
	"github.com/streetcart/groupbuy-backend/internal/lifecycle"
	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
)

func decodeOrder(r *http.Request) (lifecycle.OrderInput, error) {
	var body orderRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		return lifecycle.OrderInput{}, err
	}
	return body.toInput()
}

// SupplierCreate posts a new group order.
func SupplierCreate(ctrl lifecycle.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, ok := caller(w, r, logg, false)
		if !ok {
			return
		}
		input, err := decodeOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := ctrl.Create(r.Context(), actorOf(id), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(order, id))
	}
}

// SupplierList returns the caller's own orders.
func SupplierList(ctrl lifecycle.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, ok := caller(w, r, logg, false)
		if !ok {
			return
		}
		orders, err := ctrl.SupplierOrders(r.Context(), id.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.WrapStore(err, "list supplier orders"))
			return
		}
		responses.WriteSuccess(w, newOrderViews(orders, id))
	}
}

type editResponse struct {
	Order                  OrderView `json:"order"`
	DeliveryChargesUpdated bool      `json:"delivery_charges_updated"`
	Recalculated           int       `json:"recalculated"`
}

// SupplierEdit replaces the editable fields of an open order.
func SupplierEdit(ctrl lifecycle.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, orderID, ok := caller(w, r, logg, true)
		if !ok {
			return
		}
		input, err := decodeOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := ctrl.Edit(r.Context(), actorOf(id), orderID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, editResponse{
			Order:                  newOrderView(result.Order, id),
			DeliveryChargesUpdated: result.DeliveryChargesUpdated(),
			Recalculated:           result.Recalculated,
		})
	}
}

type transitionFunc func(ctx context.Context, supplier lifecycle.Actor, orderID uuid.UUID) (*models.GroupOrder, error)

// SupplierTransition adapts one of the supplier state changes (accept,
// process early, complete, cancel) to an endpoint.
func SupplierTransition(fn transitionFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, orderID, ok := caller(w, r, logg, true)
		if !ok {
			return
		}
		order, err := fn(r.Context(), actorOf(id), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order, id))
	}
}

// SupplierReviews lists the ratings left on the caller's completed orders.
func SupplierReviews(ctrl lifecycle.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, ok := caller(w, r, logg, false)
		if !ok {
			return
		}
		reviews, err := ctrl.SupplierReviews(r.Context(), id.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.WrapStore(err, "list reviews"))
			return
		}
		out := make([]ReviewView, 0, len(reviews))
		for i := range reviews {
			out = append(out, newReviewView(&reviews[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
