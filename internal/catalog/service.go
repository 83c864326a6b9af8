package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelasquez/storefront-backend/pkg/db/models"
	pkgerrors "github.com/avelasquez/storefront-backend/pkg/errors"
)

// ItemRepository is the persistence surface the catalog service needs.
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	Update(ctx context.Context, item *models.Item) (*models.Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	FindByCode(ctx context.Context, code string) (*models.Item, error)
	ListInStock(ctx context.Context) ([]models.Item, error)
	List(ctx context.Context) ([]models.Item, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

// Service exposes catalog reads plus the admin write surface.
type Service interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	GetItemByCode(ctx context.Context, code string) (*models.Item, error)
	CreateItem(ctx context.Context, input UpsertItemInput) (*models.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input UpsertItemInput) (*models.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Item, error)
}

type service struct {
	repo ItemRepository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo ItemRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// UpsertItemInput captures the admin payload for creating or editing an item.
type UpsertItemInput struct {
	Name           string
	Description    *string
	UnitPrice      decimal.Decimal
	Stock          int
	MaxPerCustomer *int
	Code           *string
	ImageURL       *string
}

func (in UpsertItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if in.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must be non-negative")
	}
	if in.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}
	if in.MaxPerCustomer != nil && *in.MaxPerCustomer < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max per customer must be at least 1")
	}
	if in.Code != nil && strings.TrimSpace(*in.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "code cannot be blank")
	}
	return nil
}

func (s *service) ListItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.repo.ListInStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	return items, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

func (s *service) GetItemByCode(ctx context.Context, code string) (*models.Item, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	item, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no item with that code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item by code")
	}
	return item, nil
}

func (s *service) CreateItem(ctx context.Context, input UpsertItemInput) (*models.Item, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	item := &models.Item{
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		UnitPrice:      input.UnitPrice,
		Stock:          input.Stock,
		MaxPerCustomer: input.MaxPerCustomer,
		Code:           input.Code,
		ImageURL:       input.ImageURL,
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	return created, nil
}

func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, input UpsertItemInput) (*models.Item, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Name = strings.TrimSpace(input.Name)
	item.Description = input.Description
	item.UnitPrice = input.UnitPrice
	item.Stock = input.Stock
	item.MaxPerCustomer = input.MaxPerCustomer
	item.Code = input.Code
	item.ImageURL = input.ImageURL

	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}
	return updated, nil
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetItem(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
	}
	return nil
}

func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Item, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock delta cannot be zero")
	}
	if _, err := s.GetItem(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.AdjustStock(ctx, id, delta); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "stock cannot go below zero")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}
	return s.GetItem(ctx, id)
}
