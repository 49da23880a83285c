package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del catálogo. Stock es la existencia disponible (ya descontadas las reservas).
type Product struct {
	ID        string
	SKU       string
	Name      string
	Price     decimal.Decimal
	Cost      decimal.Decimal
	Stock     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
