package orders

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/streetcart/groupbuy-backend/api/responses"
	"github.com/streetcart/groupbuy-backend/api/validators"
	"github.com/streetcart/groupbuy-backend/internal/lifecycle"
	"github.com/streetcart/groupbuy-backend/internal/participation"
	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
)

// VendorBrowse lists the open orders a vendor can join, flagging the ones
// already joined.
func VendorBrowse(ctrl lifecycle.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, ok := caller(w, r, logg, false)
		if !ok {
			return
		}
		orders, err := ctrl.OpenOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.WrapStore(err, "list open orders"))
			return
		}
		responses.WriteSuccess(w, newOrderViews(orders, id))
	}
}

// VendorParticipations lists every order the caller has joined, whatever its status.
func VendorParticipations(ctrl lifecycle.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, ok := caller(w, r, logg, false)
		if !ok {
			return
		}
		orders, err := ctrl.VendorParticipations(r.Context(), id.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.WrapStore(err, "list participations"))
			return
		}
		responses.WriteSuccess(w, newOrderViews(orders, id))
	}
}

// VendorJoin commits the caller to an order.
func VendorJoin(engine ParticipationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, orderID, ok := caller(w, r, logg, true)
		if !ok {
			return
		}
		var body joinRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		name := strings.TrimSpace(body.VendorName)
		if name == "" {
			name = id.Name
		}
		order, err := engine.Join(r.Context(), participation.JoinInput{
			OrderID:        orderID,
			VendorID:       id.UserID,
			VendorName:     name,
			Quantity:       body.Quantity,
			VendorLocation: body.Location,
			VendorPhone:    body.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(order, id))
	}
}

// VendorUpdate changes the caller's quantity and/or contact details in a
// single engine call; a rejected request changes nothing.
func VendorUpdate(engine ParticipationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, orderID, ok := caller(w, r, logg, true)
		if !ok {
			return
		}
		var body participationPatch
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := body.validate(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := engine.UpdateParticipation(r.Context(), orderID, id.UserID, body.update())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order, id))
	}
}

// VendorLeave withdraws the caller from an order.
func VendorLeave(engine ParticipationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, orderID, ok := caller(w, r, logg, true)
		if !ok {
			return
		}
		order, err := engine.Remove(r.Context(), orderID, id.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order, id))
	}
}

// VendorReview rates a completed order the caller took part in.
func VendorReview(ctrl lifecycle.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, orderID, ok := caller(w, r, logg, true)
		if !ok {
			return
		}
		var body reviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		review, err := ctrl.SubmitReview(r.Context(), actorOf(id), orderID, lifecycle.ReviewInput{
			Rating:  body.Rating,
			Comment: validators.SanitizeString(body.Comment, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newReviewView(review))
	}
}

type routeResponse struct {
	From geo.Coordinate   `json:"from"`
	To   geo.Coordinate   `json:"to"`
	Path []geo.Coordinate `json:"path"`
}

// VendorRoute draws the path from the vendor to the order's pickup point.
// The start is the vendor's stored location unless lat/lng are given.
func VendorRoute(ctrl lifecycle.Controller, router Router, logg *logger.Logger) http.HandlerFunc {
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

		from, err := routeStart(r, order.Participant(id.UserID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, routeResponse{
			From: from,
			To:   order.Location,
			Path: router.Route(r.Context(), from, order.Location),
		})
	}
}

func routeStart(r *http.Request, p *models.Participant) (geo.Coordinate, error) {
	q := r.URL.Query()
	if rawLat, rawLng := q.Get("lat"), q.Get("lng"); rawLat != "" || rawLng != "" {
		lat, latErr := strconv.ParseFloat(rawLat, 64)
		lng, lngErr := strconv.ParseFloat(rawLng, 64)
		c := geo.Coordinate{Lat: lat, Lng: lng}
		if latErr != nil || lngErr != nil || c.Validate() != nil {
			return geo.Coordinate{}, participation.FieldError("location", "lat and lng must be a valid coordinate")
		}
		return c, nil
	}
	if p != nil {
		if c, ok := p.VendorLocation().Get(); ok {
			return c, nil
		}
	}
	return geo.Coordinate{}, participation.FieldError("location", "share your location to see the route")
}
