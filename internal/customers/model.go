package customers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a buyer with a running ledger. TotalDebt is owned by the ledger
// package; this package only reads it.
type Customer struct {
	ID        int64           `json:"id" db:"id"`
	Code      string          `json:"code" db:"code"`
	Name      string          `json:"name" db:"name"`
	Phone     *string         `json:"phone,omitempty" db:"phone"`
	Address   *string         `json:"address,omitempty" db:"address"`
	TotalDebt decimal.Decimal `json:"total_debt" db:"total_debt"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	Notes     *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
