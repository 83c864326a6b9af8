package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/avelasquez/storefront-backend/api/responses"
	"github.com/avelasquez/storefront-backend/api/validators"
	catalogsvc "github.com/avelasquez/storefront-backend/internal/catalog"
	"github.com/avelasquez/storefront-backend/pkg/config"
	pkgerrors "github.com/avelasquez/storefront-backend/pkg/errors"
	"github.com/avelasquez/storefront-backend/pkg/logger"
)

type upsertItemRequest struct {
	Name           string  `json:"name" validate:"required"`
	Description    *string `json:"description,omitempty"`
	UnitPrice      string  `json:"unit_price" validate:"required"`
	Stock          int     `json:"stock" validate:"min=0"`
	MaxPerCustomer *int    `json:"max_per_customer,omitempty" validate:"omitempty,min=1"`
	Code           *string `json:"code,omitempty"`
	ImageURL       *string `json:"image_url,omitempty"`
}

func (req upsertItemRequest) toInput() (catalogsvc.UpsertItemInput, error) {
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return catalogsvc.UpsertItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price")
	}
	return catalogsvc.UpsertItemInput{
		Name:           req.Name,
		Description:    req.Description,
		UnitPrice:      price,
		Stock:          req.Stock,
		MaxPerCustomer: req.MaxPerCustomer,
		Code:           req.Code,
		ImageURL:       req.ImageURL,
	}, nil
}

type adjustStockRequest struct {
	Delta *int `json:"delta" validate:"required"`
}

// AdminItemCreate adds a listing to the catalog.
func AdminItemCreate(svc catalogsvc.Service, display config.DisplayConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body upsertItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newItemResponse(item, display))
	}
}

// AdminItemUpdate replaces a listing's mutable fields.
func AdminItemUpdate(svc catalogsvc.Service, display config.DisplayConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body upsertItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item, display))
	}
}

// AdminItemDelete removes a listing from the catalog.
func AdminItemDelete(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteItem(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminItemAdjustStock applies a signed delta to an item's stock. A delta
// that would take stock negative is refused.
func AdminItemAdjustStock(svc catalogsvc.Service, display config.DisplayConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adjustStockRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AdjustStock(r.Context(), itemID, *body.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item, display))
	}
}
