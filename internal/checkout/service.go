package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelasquez/storefront-backend/internal/cart"
	"github.com/avelasquez/storefront-backend/internal/catalog"
	"github.com/avelasquez/storefront-backend/internal/orders"
	"github.com/avelasquez/storefront-backend/pkg/db/models"
	"github.com/avelasquez/storefront-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/storefront-backend/pkg/errors"
	"github.com/avelasquez/storefront-backend/pkg/metrics"
	"github.com/avelasquez/storefront-backend/pkg/quantity"
	"github.com/avelasquez/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service converts a cart into an order, all-or-nothing.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error)
}

// Input captures optional data supplied at checkout time.
type Input struct {
	ShippingAddress *types.Address
}

type service struct {
	tx         txRunner
	cartRepo   *cart.Repository
	itemRepo   *catalog.Repository
	ordersRepo *orders.Repository
	metrics    *metrics.CheckoutMetrics
}

// NewService builds the checkout service. Metrics may be nil.
func NewService(
	tx txRunner,
	cartRepo *cart.Repository,
	itemRepo *catalog.Repository,
	ordersRepo *orders.Repository,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if itemRepo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{
		tx:         tx,
		cartRepo:   cartRepo,
		itemRepo:   itemRepo,
		ordersRepo: ordersRepo,
		metrics:    checkoutMetrics,
	}, nil
}

// Execute runs the whole checkout inside one transaction. Every line is
// re-validated against live stock with nothing considered already held; the
// cart's staged quantities carry no reservation. Any line that fails aborts
// the attempt, rolling back every decrement already applied. Lines are
// processed in item-id order so concurrent checkouts touch rows in the same
// sequence.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.ShippingAddress != nil && !input.ShippingAddress.Validate() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete")
	}

	start := time.Now()
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		itemRepo := s.itemRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		cartRecord, err := cartRepo.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeCheckoutAborted, err, "load cart")
		}

		lines, err := cartRepo.ListLines(ctx, cartRecord.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeCheckoutAborted, err, "load cart lines")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		total := decimal.Zero
		orderLines := make([]models.OrderLine, 0, len(lines))
		for _, line := range lines {
			item, err := itemRepo.FindByID(ctx, line.ItemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "item is no longer available").
						WithDetails(map[string]any{"item_id": line.ItemID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeCheckoutAborted, err, "load item")
			}

			decision := quantity.Decide(line.Quantity, item.Stock, item.MaxPerCustomer, 0)
			if decision.Outcome != quantity.OutcomeAccepted {
				return abortError(decision, item, quantity.Allowance(item.Stock, item.MaxPerCustomer, 0))
			}

			ok, err := itemRepo.DecrementStock(ctx, item.ID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeCheckoutAborted, err, "decrement stock")
			}
			if !ok {
				// Another checkout took the stock between the read and the
				// guarded write.
				return abortError(quantity.Decision{Limited: quantity.ConstraintStock}, item, 0)
			}

			total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
			orderLines = append(orderLines, models.OrderLine{
				ItemID:    item.ID,
				Quantity:  line.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}

		order = &models.Order{
			UserID:          userID,
			Total:           total,
			Status:          enums.OrderStatusProcessing,
			ShippingAddress: input.ShippingAddress,
			PlacedAt:        time.Now().UTC(),
		}
		if _, err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeCheckoutAborted, err, "create order")
		}
		for i := range orderLines {
			orderLines[i].OrderID = order.ID
		}
		if err := ordersRepo.CreateLines(ctx, orderLines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeCheckoutAborted, err, "create order lines")
		}
		if err := cartRepo.DrainLines(ctx, cartRecord.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeCheckoutAborted, err, "drain cart")
		}
		order.Lines = orderLines
		return nil
	})
	if err != nil {
		s.metrics.IncAborted(abortReason(err))
		s.metrics.ObserveDuration("aborted", time.Since(start))
		return nil, err
	}

	s.metrics.IncCommitted()
	s.metrics.ObserveDuration("committed", time.Since(start))
	return order, nil
}

func abortError(decision quantity.Decision, item *models.Item, maxSatisfiable int) error {
	details := map[string]any{
		"item_id":         item.ID,
		"item":            item.Name,
		"max_satisfiable": maxSatisfiable,
	}
	if decision.Limited == quantity.ConstraintCap {
		return pkgerrors.New(pkgerrors.CodeCapExceeded, "per-customer limit exceeded at checkout").WithDetails(details)
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock at checkout").WithDetails(details)
}

func abortReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "unknown"
}
