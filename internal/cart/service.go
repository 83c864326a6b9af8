package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelasquez/storefront-backend/pkg/db/models"
	pkgerrors "github.com/avelasquez/storefront-backend/pkg/errors"
	"github.com/avelasquez/storefront-backend/pkg/quantity"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type itemLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	FindByCode(ctx context.Context, code string) (*models.Item, error)
}

// CartRepository is the persistence surface the cart service needs.
type CartRepository interface {
	WithTx(tx *gorm.DB) *Repository
	GetOrCreateByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindLine(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartLine, error)
	SaveLine(ctx context.Context, line *models.CartLine) error
	DeleteLine(ctx context.Context, cartID, itemID uuid.UUID) (bool, error)
	ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error)
}

// Service exposes cart staging operations. Nothing here reserves stock; the
// checkout engine re-validates every line before committing.
type Service interface {
	AddToCart(ctx context.Context, userID, itemID uuid.UUID, qty int) (*MutationResult, error)
	AddByCode(ctx context.Context, userID uuid.UUID, code string) (*MutationResult, error)
	SetQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*MutationResult, error)
	RemoveLine(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
	ViewCart(ctx context.Context, userID uuid.UUID) (*View, error)
}

type service struct {
	repo  CartRepository
	items itemLoader
	tx    txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, items itemLoader, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("item loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, items: items, tx: tx}, nil
}

// MutationResult reports the policy outcome of a cart mutation. Rejections on
// the add path are not errors; callers surface the outcome to the customer.
type MutationResult struct {
	Outcome          quantity.Outcome
	AcceptedQuantity int
	LineQuantity     int
	Reason           quantity.Constraint
	MaxAdditional    int
	Item             *models.Item
}

// View is the rendered cart: lines joined with their catalog items plus a
// running total.
type View struct {
	Lines []LineView
	Total decimal.Decimal
}

// LineView is one cart line with its catalog snapshot and extended subtotal.
type LineView struct {
	ItemID    uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
}

// AddToCart increments the user's line for the item, clamping the increment
// to the largest satisfiable quantity. A request that cannot be satisfied at
// all comes back Rejected with the cart untouched.
func (s *service) AddToCart(ctx context.Context, userID, itemID uuid.UUID, qty int) (*MutationResult, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var result *MutationResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cartRecord, err := repo.GetOrCreateByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		held := 0
		line, err := repo.FindLine(ctx, cartRecord.ID, itemID)
		switch {
		case err == nil:
			held = line.Quantity
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = &models.CartLine{CartID: cartRecord.ID, ItemID: itemID}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		decision := quantity.Decide(qty, item.Stock, item.MaxPerCustomer, held)
		result = &MutationResult{
			Outcome:          decision.Outcome,
			AcceptedQuantity: decision.Quantity,
			LineQuantity:     held,
			Reason:           decision.Limited,
			MaxAdditional:    quantity.Allowance(item.Stock, item.MaxPerCustomer, held),
			Item:             item,
		}
		if decision.Outcome == quantity.OutcomeRejected {
			return nil
		}

		line.Quantity = held + decision.Quantity
		result.LineQuantity = line.Quantity
		if err := repo.SaveLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart line")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddByCode resolves a scanned item code and adds a single unit.
func (s *service) AddByCode(ctx context.Context, userID uuid.UUID, code string) (*MutationResult, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	item, err := s.items.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no item with that code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve item code")
	}
	return s.AddToCart(ctx, userID, item.ID, 1)
}

// SetQuantity replaces the line's quantity. Unlike the add path this is
// all-or-nothing: a target above the allowance fails without touching the
// cart. A target of zero removes the line.
func (s *service) SetQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*MutationResult, error) {
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}
	if qty == 0 {
		if _, err := s.RemoveLine(ctx, userID, itemID); err != nil {
			return nil, err
		}
		return &MutationResult{Outcome: quantity.OutcomeAccepted, AcceptedQuantity: 0}, nil
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var result *MutationResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cartRecord, err := repo.GetOrCreateByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		line, err := repo.FindLine(ctx, cartRecord.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		// The line is replaced wholesale, so the quantity it already holds
		// counts toward what stock can satisfy; the cap bounds the new total.
		available := item.Stock + line.Quantity
		decision := quantity.Decide(qty, available, item.MaxPerCustomer, 0)
		if decision.Outcome != quantity.OutcomeAccepted {
			return limitError(decision, quantity.Allowance(available, item.MaxPerCustomer, 0), item.Name)
		}

		line.Quantity = qty
		if err := repo.SaveLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart line")
		}
		result = &MutationResult{
			Outcome:          quantity.OutcomeAccepted,
			AcceptedQuantity: qty,
			LineQuantity:     qty,
			Item:             item,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveLine deletes the line if present and reports whether one existed.
// Removing an absent line succeeds with removed = false.
func (s *service) RemoveLine(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	cartRecord, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	removed, err := s.repo.DeleteLine(ctx, cartRecord.ID, itemID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return removed, nil
}

// ViewCart renders the cart with per-line subtotals and the grand total. A
// user without a cart sees an empty one.
func (s *service) ViewCart(ctx context.Context, userID uuid.UUID) (*View, error) {
	cartRecord, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &View{Lines: []LineView{}, Total: decimal.Zero}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	view := &View{Lines: make([]LineView, 0, len(cartRecord.Lines)), Total: decimal.Zero}
	for _, line := range cartRecord.Lines {
		item, err := s.loadItem(ctx, line.ItemID)
		if err != nil {
			return nil, err
		}
		subtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Lines = append(view.Lines, LineView{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
		})
		view.Total = view.Total.Add(subtotal)
	}
	return view, nil
}

func (s *service) loadItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

func limitError(decision quantity.Decision, maxSatisfiable int, itemName string) error {
	details := map[string]any{
		"max_satisfiable": maxSatisfiable,
		"item":            itemName,
	}
	if decision.Limited == quantity.ConstraintCap {
		return pkgerrors.New(pkgerrors.CodeCapExceeded, "per-customer limit exceeded").WithDetails(details)
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock").WithDetails(details)
}
