package transaction_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

func TestTypeUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    transaction.Type
		wantErr bool
	}{
		{name: "canonical_income", raw: `"Income"`, want: transaction.Income},
		{name: "lowercase_expense", raw: `"expense"`, want: transaction.Expense},
		{name: "numeric_income", raw: `0`, want: transaction.Income},
		{name: "numeric_expense", raw: `1`, want: transaction.Expense},
		{name: "null", raw: `null`, want: ""},
		{name: "unknown", raw: `"Transfer"`, wantErr: true},
		{name: "bad_number", raw: `7`, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			var got transaction.Type
			err := json.Unmarshal([]byte(tt.raw), &got)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s, got type %q", tt.raw, got)
				}
				if !errors.Is(err, transaction.ErrInvalidType) {
					t.Fatalf("expected ErrInvalidType, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeMarshalsAsName(t *testing.T) {
	b, err := json.Marshal(struct {
		Type transaction.Type `json:"type"`
	}{Type: transaction.Expense})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(b) != `{"type":"Expense"}` {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestNewFromCreateRequest(t *testing.T) {
	now := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)

	t.Run("defaults_date_to_now", func(t *testing.T) {
		tx := transaction.NewFromCreateRequest(7, transaction.CreateTransactionRequest{
			CategoryID: 3,
			Amount:     decimal.RequireFromString("19.90"),
			Type:       transaction.Expense,
		}, now)

		if tx.UserID != 7 {
			t.Fatalf("owner not taken from caller: %d", tx.UserID)
		}
		if !tx.Date.Equal(now) {
			t.Fatalf("date = %v, want %v", tx.Date, now)
		}
		if tx.Description != "" {
			t.Fatalf("description should default to empty, got %q", tx.Description)
		}
	})

	t.Run("keeps_explicit_date_in_utc", func(t *testing.T) {
		loc := time.FixedZone("BRT", -3*60*60)
		date := time.Date(2025, 1, 31, 22, 0, 0, 0, loc)

		tx := transaction.NewFromCreateRequest(7, transaction.CreateTransactionRequest{
			CategoryID: 3,
			Amount:     decimal.NewFromInt(5),
			Type:       transaction.Income,
			Date:       &date,
		}, now)

		if tx.Date.Location() != time.UTC {
			t.Fatalf("expected UTC date, got %v", tx.Date.Location())
		}
		if tx.Date.Month() != time.February {
			t.Fatalf("expected the UTC instant to fall in February, got %v", tx.Date)
		}
	})
}

func TestChangesApplyKeepsDateWhenOmitted(t *testing.T) {
	original := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := original.Add(48 * time.Hour)

	tx := transaction.Transaction{ID: 1, UserID: 2, CategoryID: 1, Date: original, Type: transaction.Income}

	changes := transaction.ChangesFromUpdateRequest(transaction.UpdateTransactionRequest{
		CategoryID:  9,
		Amount:      decimal.RequireFromString("1.01"),
		Type:        transaction.Expense,
		Description: "rent",
	})

	updated := changes.Apply(tx, now)

	if !updated.Date.Equal(original) {
		t.Fatalf("date changed to %v", updated.Date)
	}
	if updated.UserID != 2 || updated.ID != 1 {
		t.Fatalf("owner or id changed: %+v", updated)
	}
	if updated.CategoryID != 9 || updated.Type != transaction.Expense || updated.Description != "rent" {
		t.Fatalf("mutable fields not applied: %+v", updated)
	}
	if !updated.UpdatedAt.Equal(now) {
		t.Fatalf("updatedAt = %v, want %v", updated.UpdatedAt, now)
	}
}

func TestValidateAmountAndType(t *testing.T) {
	if err := transaction.ValidateAmountAndType(decimal.Zero, transaction.Income); !errors.Is(err, transaction.ErrInvalidAmount) {
		t.Fatalf("zero amount: got %v", err)
	}
	if err := transaction.ValidateAmountAndType(decimal.NewFromInt(-3), transaction.Income); !errors.Is(err, transaction.ErrInvalidAmount) {
		t.Fatalf("negative amount: got %v", err)
	}
	if err := transaction.ValidateAmountAndType(decimal.NewFromInt(3), "Other"); !errors.Is(err, transaction.ErrInvalidType) {
		t.Fatalf("bad type: got %v", err)
	}
	if err := transaction.ValidateAmountAndType(decimal.NewFromInt(3), transaction.Expense); err != nil {
		t.Fatalf("valid input: got %v", err)
	}
}

func TestWindowContains(t *testing.T) {
	w := transaction.Window{Year: 2025, Month: 2}

	if !w.Contains(time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("last second of February should be inside the window")
	}
	if w.Contains(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("March 1st should be outside the window")
	}

	out := transaction.Window{Year: 2025, Month: 13}
	if out.Contains(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("month 13 must not wrap into the next year")
	}
}
