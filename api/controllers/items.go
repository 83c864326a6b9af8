package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/avelasquez/storefront-backend/api/responses"
	catalogsvc "github.com/avelasquez/storefront-backend/internal/catalog"
	"github.com/avelasquez/storefront-backend/pkg/config"
	"github.com/avelasquez/storefront-backend/pkg/db/models"
	pkgerrors "github.com/avelasquez/storefront-backend/pkg/errors"
	"github.com/avelasquez/storefront-backend/pkg/logger"
)

type itemResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	UnitPrice      string    `json:"unit_price"`
	DisplayPrice   string    `json:"display_price,omitempty"`
	Stock          int       `json:"stock"`
	MaxPerCustomer *int      `json:"max_per_customer,omitempty"`
	Code           *string   `json:"code,omitempty"`
	ImageURL       *string   `json:"image_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newItemResponse(item *models.Item, display config.DisplayConfig) itemResponse {
	resp := itemResponse{
		ID:             item.ID,
		Name:           item.Name,
		Description:    item.Description,
		UnitPrice:      item.UnitPrice.StringFixed(2),
		Stock:          item.Stock,
		MaxPerCustomer: item.MaxPerCustomer,
		Code:           item.Code,
		ImageURL:       item.ImageURL,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
	if display.ShowPrices {
		resp.DisplayPrice = display.FormatPrice(item.UnitPrice.StringFixed(2))
	}
	return resp
}

func newItemListResponse(items []models.Item, display config.DisplayConfig) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for i := range items {
		out = append(out, newItemResponse(&items[i], display))
	}
	return out
}

// ItemsList returns the browsable catalog. Out-of-stock items are omitted.
func ItemsList(svc catalogsvc.Service, display config.DisplayConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		items, err := svc.ListItems(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemListResponse(items, display))
	}
}

// ItemsGet returns a single catalog item by id.
func ItemsGet(svc catalogsvc.Service, display config.DisplayConfig, logg *logger.Logger) http.HandlerFunc {
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

		item, err := svc.GetItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item, display))
	}
}

// ItemsGetByCode resolves a catalog item from its scannable code.
func ItemsGetByCode(svc catalogsvc.Service, display config.DisplayConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "code is required"))
			return
		}

		item, err := svc.GetItemByCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item, display))
	}
}

func parseItemID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "itemId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	itemID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return itemID, nil
}
