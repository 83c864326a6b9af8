package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/avelasquez/storefront-backend/api/middleware"
	"github.com/avelasquez/storefront-backend/api/responses"
	"github.com/avelasquez/storefront-backend/api/validators"
	cartsvc "github.com/avelasquez/storefront-backend/internal/cart"
	"github.com/avelasquez/storefront-backend/pkg/config"
	pkgerrors "github.com/avelasquez/storefront-backend/pkg/errors"
	"github.com/avelasquez/storefront-backend/pkg/logger"
	"github.com/avelasquez/storefront-backend/pkg/quantity"
)

type addItemRequest struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

type scanRequest struct {
	Code string `json:"code" validate:"required"`
}

type cartMutationResponse struct {
	Outcome          string  `json:"outcome"`
	AcceptedQuantity int     `json:"accepted_quantity"`
	LineQuantity     int     `json:"line_quantity"`
	Reason           *string `json:"reason,omitempty"`
	MaxAdditional    *int    `json:"max_additional,omitempty"`
	ItemID           *string `json:"item_id,omitempty"`
	ItemName         *string `json:"item_name,omitempty"`
}

func newCartMutationResponse(result *cartsvc.MutationResult) cartMutationResponse {
	resp := cartMutationResponse{
		Outcome:          string(result.Outcome),
		AcceptedQuantity: result.AcceptedQuantity,
		LineQuantity:     result.LineQuantity,
	}
	if result.Outcome != quantity.OutcomeAccepted {
		reason := string(result.Reason)
		maxAdditional := result.MaxAdditional
		resp.Reason = &reason
		resp.MaxAdditional = &maxAdditional
	}
	if result.Item != nil {
		id := result.Item.ID.String()
		name := result.Item.Name
		resp.ItemID = &id
		resp.ItemName = &name
	}
	return resp
}

type cartViewResponse struct {
	Lines        []cartLineResponse `json:"lines"`
	Total        string             `json:"total"`
	DisplayTotal string             `json:"display_total,omitempty"`
}

type cartLineResponse struct {
	ItemID          uuid.UUID `json:"item_id"`
	Name            string    `json:"name"`
	UnitPrice       string    `json:"unit_price"`
	Quantity        int       `json:"quantity"`
	Subtotal        string    `json:"subtotal"`
	DisplaySubtotal string    `json:"display_subtotal,omitempty"`
}

func newCartViewResponse(view *cartsvc.View, display config.DisplayConfig) cartViewResponse {
	lines := make([]cartLineResponse, 0, len(view.Lines))
	for _, line := range view.Lines {
		resp := cartLineResponse{
			ItemID:    line.ItemID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal.StringFixed(2),
		}
		if display.ShowPrices {
			resp.DisplaySubtotal = display.FormatPrice(resp.Subtotal)
		}
		lines = append(lines, resp)
	}
	resp := cartViewResponse{
		Lines: lines,
		Total: view.Total.StringFixed(2),
	}
	if display.ShowPrices {
		resp.DisplayTotal = display.FormatPrice(resp.Total)
	}
	return resp
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return userID, nil
}

// CartView renders the caller's cart with per-line subtotals.
func CartView(svc cartsvc.Service, display config.DisplayConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ViewCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartViewResponse(view, display))
	}
}

// CartAddItem stages quantity into the caller's cart. Partial fulfilment is a
// success with outcome "clamped", not an error.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddToCart(r.Context(), userID, body.ItemID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartMutationResponse(result))
	}
}

// CartScan resolves a scanned code and stages one unit of the item.
func CartScan(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body scanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddByCode(r.Context(), userID, body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartMutationResponse(result))
	}
}

// CartSetQuantity replaces a line's quantity outright. Unlike add, a request
// above the allowance is rejected rather than clamped. Quantity zero removes
// the line.
func CartSetQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SetQuantity(r.Context(), userID, itemID, *body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartMutationResponse(result))
	}
}

// CartRemoveItem drops the line for the item. An absent line answers 404,
// matching the item-not-in-cart contract of the update endpoint.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed, err := svc.RemoveLine(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !removed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
