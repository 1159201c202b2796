package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry for a billable service or item
// (consultations, radiology scans, lab tests, pharmacy items).
type Product struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Code      string          `json:"code" db:"code"`
	Category  string          `json:"category" db:"category"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Tax       decimal.Decimal `json:"tax" db:"tax"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// CategoryOrDefault returns the product category, defaulting to "Other"
func (p Product) CategoryOrDefault() string {
	if p.Category == "" {
		return CategoryOther
	}
	return p.Category
}
