package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a catalog listing. Stock is the single piece of shared mutable
// state the checkout engine protects; it is only decremented inside the
// checkout transaction, never by cart mutations.
type Item struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Description    *string         `gorm:"column:description"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Stock          int             `gorm:"column:stock;not null;default:0"`
	MaxPerCustomer *int            `gorm:"column:max_per_customer"`
	Code           *string         `gorm:"column:code;uniqueIndex"`
	ImageURL       *string         `gorm:"column:image_url"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
