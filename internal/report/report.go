// Package report computes caller-scoped monthly aggregates over transactions.
//
// Every aggregate is built in three steps: filter the rows with the full scoping
// predicate (owner, window and, for category breakdowns, type), group, then sum with
// exact decimal arithmetic.
package report

import (
	"sort"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// UncategorizedLabel groups expenses whose category cannot be resolved.
const UncategorizedLabel = "Uncategorized"

type Summary struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Balance      decimal.Decimal `json:"balance"`
}

type CategoryTotal struct {
	Category    string          `json:"category"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// Scope keeps only the rows owned by ownerID whose date falls in w.
func Scope(rows []transaction.Transaction, ownerID int64, w transaction.Window) []transaction.Transaction {
	out := make([]transaction.Transaction, 0, len(rows))

	for _, t := range rows {
		if w.Matches(ownerID, t) {
			out = append(out, t)
		}
	}

	return out
}

// Summarize expects rows that were already scoped.
func Summarize(rows []transaction.Transaction) Summary {
	income := decimal.Zero
	expense := decimal.Zero

	for _, t := range rows {
		switch t.Type {
		case transaction.Income:
			income = income.Add(t.Amount)
		case transaction.Expense:
			expense = expense.Add(t.Amount)
		}
	}

	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
	}
}

// GroupExpensesByCategory ignores income rows and returns one total per category
// present, sorted by label. Categories without expenses are not zero-filled.
func GroupExpensesByCategory(rows []transaction.Transaction) []CategoryTotal {
	totals := make(map[string]decimal.Decimal)

	for _, t := range rows {
		if t.Type != transaction.Expense {
			continue
		}

		label := CategoryLabel(t)
		totals[label] = totals[label].Add(t.Amount)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for label, sum := range totals {
		out = append(out, CategoryTotal{Category: label, TotalAmount: sum})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })

	return out
}

func CategoryLabel(t transaction.Transaction) string {
	if t.Category == nil || t.Category.Name == "" {
		return UncategorizedLabel
	}
	return t.Category.Name
}
