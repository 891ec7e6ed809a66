package transaction

import (
	"errors"
	"time"

	"github.com/geocoder89/fintrack/internal/domain/category"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID          int64              `json:"id"`
	UserID      int64              `json:"userId"`
	CategoryID  int64              `json:"categoryId"`
	Category    *category.Category `json:"category,omitempty"`
	Amount      decimal.Decimal    `json:"amount"`
	Type        Type               `json:"type"`
	Date        time.Time          `json:"date"`
	Description string             `json:"description"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

var (
	ErrNotFound        = errors.New("transaction not found")
	ErrForbidden       = errors.New("transaction belongs to another user")
	ErrInvalidCategory = errors.New("category does not exist")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrInvalidType     = errors.New("type must be Income or Expense")
)

type CreateTransactionRequest struct {
	CategoryID  int64           `json:"categoryId" binding:"required,min=1"`
	Amount      decimal.Decimal `json:"amount"`
	Type        Type            `json:"type" binding:"required"`
	Date        *time.Time      `json:"date"`
	Description string          `json:"description" binding:"omitempty,max=255"`
}

// full replacement of the mutable fields; owner and id never change.
type UpdateTransactionRequest struct {
	CategoryID  int64           `json:"categoryId" binding:"required,min=1"`
	Amount      decimal.Decimal `json:"amount"`
	Type        Type            `json:"type" binding:"required"`
	Date        *time.Time      `json:"date"`
	Description string          `json:"description" binding:"omitempty,max=255"`
}

// Changes is what a store applies on update. A nil Date keeps the stored date.
type Changes struct {
	CategoryID  int64
	Amount      decimal.Decimal
	Type        Type
	Date        *time.Time
	Description string
}

func ValidateAmountAndType(amount decimal.Decimal, t Type) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if !t.Valid() {
		return ErrInvalidType
	}

	return nil
}
