package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/fintrack/internal/domain/category"
	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const txColumns = `t.id, t.user_id, t.category_id, c.name, t.amount, t.type, t.date, t.description, t.created_at, t.updated_at`

type TransactionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTransactionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *TransactionsRepo {
	return &TransactionsRepo{pool: pool, prom: prom}
}

func (r *TransactionsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// CreateTransaction resolves the category under a share lock before inserting, so an
// unknown category is rejected without touching the transactions table.
func (r *TransactionsRepo) CreateTransaction(ctx context.Context, t transaction.Transaction) (out transaction.Transaction, err error) {
	err = r.withTx(ctx, func(tx pgx.Tx) error {
		if err := r.requireCategory(ctx, tx, "transactions.create.category", t.CategoryID); err != nil {
			return err
		}

		return r.observe("transactions.create", func() error {
			row := tx.QueryRow(ctx,
				`WITH t AS (
					INSERT INTO transactions (user_id, category_id, amount, type, date, description, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
					RETURNING *
				)
				SELECT `+txColumns+`
				FROM t
				LEFT JOIN categories c ON c.id = t.category_id`,
				t.UserID, t.CategoryID, t.Amount, string(t.Type), t.Date, t.Description, t.CreatedAt, t.UpdatedAt,
			)

			var scanErr error
			out, scanErr = scanTransaction(row)
			return scanErr
		})
	})

	if err != nil {
		if isCategoryViolation(err) {
			return transaction.Transaction{}, transaction.ErrInvalidCategory
		}
		return transaction.Transaction{}, err
	}

	return out, nil
}

func (r *TransactionsRepo) ListTransactionsByUser(ctx context.Context, userID int64) ([]transaction.Transaction, error) {
	return r.list(ctx, "transactions.list_by_user",
		`SELECT `+txColumns+`
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = $1
		 ORDER BY t.date DESC, t.id DESC`,
		userID,
	)
}

// timestamptz covers 4713 BC through 294276 AD.
const (
	minWindowYear = -4712
	maxWindowYear = 294275
)

// ListInWindow selects on the half-open UTC month range so the (user_id, date) index
// serves the query. Months outside 1..12 and years timestamptz cannot hold match nothing.
func (r *TransactionsRepo) ListInWindow(ctx context.Context, userID int64, w transaction.Window) ([]transaction.Transaction, error) {
	if w.Month < 1 || w.Month > 12 || w.Year < minWindowYear || w.Year > maxWindowYear {
		return []transaction.Transaction{}, nil
	}

	from := time.Date(w.Year, time.Month(w.Month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	return r.list(ctx, "transactions.list_in_window",
		`SELECT `+txColumns+`
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = $1 AND t.date >= $2 AND t.date < $3
		 ORDER BY t.date DESC, t.id DESC`,
		userID, from, to,
	)
}

func (r *TransactionsRepo) GetTransactionForUser(ctx context.Context, userID, id int64) (out transaction.Transaction, err error) {
	err = r.observe("transactions.get_for_user", func() error {
		row := r.pool.QueryRow(ctx,
			`SELECT `+txColumns+`
			 FROM transactions t
			 LEFT JOIN categories c ON c.id = t.category_id
			 WHERE t.id = $1 AND t.user_id = $2`,
			id, userID,
		)

		var scanErr error
		out, scanErr = scanTransaction(row)
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return transaction.Transaction{}, transaction.ErrNotFound
		}
		return transaction.Transaction{}, err
	}

	return out, nil
}

// UpdateTransaction locks the row, checks ownership, then writes the full replacement
// inside one transaction so a concurrent delete cannot slip between check and write.
func (r *TransactionsRepo) UpdateTransaction(ctx context.Context, userID, id int64, changes transaction.Changes) (out transaction.Transaction, err error) {
	err = r.withTx(ctx, func(tx pgx.Tx) error {
		current, err := r.lockForOwner(ctx, tx, "transactions.update.lock", userID, id)
		if err != nil {
			return err
		}

		next := changes.Apply(current, time.Now())

		if err := r.requireCategory(ctx, tx, "transactions.update.category", next.CategoryID); err != nil {
			return err
		}

		return r.observe("transactions.update", func() error {
			row := tx.QueryRow(ctx,
				`WITH t AS (
					UPDATE transactions
					SET category_id = $2, amount = $3, type = $4, date = $5, description = $6, updated_at = $7
					WHERE id = $1
					RETURNING *
				)
				SELECT `+txColumns+`
				FROM t
				LEFT JOIN categories c ON c.id = t.category_id`,
				id, next.CategoryID, next.Amount, string(next.Type), next.Date, next.Description, next.UpdatedAt,
			)

			var scanErr error
			out, scanErr = scanTransaction(row)
			return scanErr
		})
	})

	if err != nil {
		if isCategoryViolation(err) {
			return transaction.Transaction{}, transaction.ErrInvalidCategory
		}
		return transaction.Transaction{}, err
	}

	return out, nil
}

func (r *TransactionsRepo) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := r.lockForOwner(ctx, tx, "transactions.delete.lock", userID, id); err != nil {
			return err
		}

		return r.observe("transactions.delete", func() error {
			_, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
			return err
		})
	})
}

func (r *TransactionsRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// lockForOwner distinguishes a missing row (ErrNotFound) from one owned by someone else
// (ErrForbidden) and holds a row lock until the surrounding transaction ends.
func (r *TransactionsRepo) lockForOwner(ctx context.Context, tx pgx.Tx, op string, userID, id int64) (current transaction.Transaction, err error) {
	err = r.observe(op, func() error {
		row := tx.QueryRow(ctx,
			`SELECT `+txColumns+`
			 FROM transactions t
			 LEFT JOIN categories c ON c.id = t.category_id
			 WHERE t.id = $1
			 FOR UPDATE OF t`,
			id,
		)

		var scanErr error
		current, scanErr = scanTransaction(row)
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return transaction.Transaction{}, transaction.ErrNotFound
		}
		return transaction.Transaction{}, err
	}

	if current.UserID != userID {
		return transaction.Transaction{}, transaction.ErrForbidden
	}

	return current, nil
}

// requireCategory holds a share lock on the category row until the surrounding
// transaction ends, so it cannot be removed between the check and the write.
func (r *TransactionsRepo) requireCategory(ctx context.Context, tx pgx.Tx, op string, categoryID int64) error {
	err := r.observe(op, func() error {
		var one int
		return tx.QueryRow(ctx, `SELECT 1 FROM categories WHERE id = $1 FOR SHARE`, categoryID).Scan(&one)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return transaction.ErrInvalidCategory
	}
	return err
}

func (r *TransactionsRepo) list(ctx context.Context, op, query string, args ...any) ([]transaction.Transaction, error) {
	out := make([]transaction.Transaction, 0)

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTransaction(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *TransactionsRepo) withTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanTransaction(row pgx.Row) (transaction.Transaction, error) {
	var (
		t            transaction.Transaction
		categoryName *string
		kind         string
	)

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.CategoryID,
		&categoryName,
		&t.Amount,
		&kind,
		&t.Date,
		&t.Description,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return transaction.Transaction{}, err
	}

	t.Type = transaction.Type(kind)
	t.Date = t.Date.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()

	if categoryName != nil {
		t.Category = &category.Category{ID: t.CategoryID, Name: *categoryName}
	}

	return t, nil
}

func isCategoryViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || !isForeignKeyViolation(err) {
		return false
	}
	return pgErr.ConstraintName == "" || pgErr.ConstraintName == "transactions_category_id_fkey"
}
