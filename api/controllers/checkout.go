package controllers

import (
	"net/http"

	"github.com/avelasquez/storefront-backend/api/responses"
	"github.com/avelasquez/storefront-backend/api/validators"
	checkoutsvc "github.com/avelasquez/storefront-backend/internal/checkout"
	pkgerrors "github.com/avelasquez/storefront-backend/pkg/errors"
	"github.com/avelasquez/storefront-backend/pkg/logger"
	"github.com/avelasquez/storefront-backend/pkg/types"
)

type checkoutRequest struct {
	ShippingAddress *types.Address `json:"shipping_address,omitempty"`
}

// CheckoutSubmit converts the caller's cart into an order. The conversion is
// atomic: any line that cannot be fulfilled aborts the whole attempt and the
// cart survives for the buyer to amend.
func CheckoutSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.Execute(r.Context(), userID, checkoutsvc.Input{
			ShippingAddress: body.ShippingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
