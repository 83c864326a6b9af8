package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelasquez/storefront-backend/pkg/db/models"
	"github.com/avelasquez/storefront-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/storefront-backend/pkg/errors"
)

type stubOrdersService struct {
	updateFn func(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)
}

func (s stubOrdersService) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (s stubOrdersService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, orderID, target)
	}
	return nil, nil
}

func withOrderID(req *http.Request, orderID uuid.UUID) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("orderId", orderID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

func TestAdminOrderUpdateStatus(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrdersService{
		updateFn: func(ctx context.Context, id uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
			if id != orderID {
				t.Fatalf("unexpected id %s", id)
			}
			if target != enums.OrderStatusShipped {
				t.Fatalf("unexpected status %s", target)
			}
			return &models.Order{
				ID:       orderID,
				Total:    decimal.RequireFromString("10.00"),
				Status:   enums.OrderStatusShipped,
				PlacedAt: time.Now().UTC(),
			}, nil
		},
	}

	body := strings.NewReader(`{"status":"shipped"}`)
	req := withOrderID(httptest.NewRequest(http.MethodPatch, "/", body), orderID)
	resp := httptest.NewRecorder()
	AdminOrderUpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != string(enums.OrderStatusShipped) {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}

func TestAdminOrderUpdateStatusRejectsUnknownStatus(t *testing.T) {
	body := strings.NewReader(`{"status":"teleported"}`)
	req := withOrderID(httptest.NewRequest(http.MethodPatch, "/", body), uuid.New())
	resp := httptest.NewRecorder()
	AdminOrderUpdateStatus(stubOrdersService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrderUpdateStatusSurfacesStateConflict(t *testing.T) {
	svc := stubOrdersService{
		updateFn: func(ctx context.Context, id uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot move from delivered to processing")
		},
	}

	body := strings.NewReader(`{"status":"processing"}`)
	req := withOrderID(httptest.NewRequest(http.MethodPatch, "/", body), uuid.New())
	resp := httptest.NewRecorder()
	AdminOrderUpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}
