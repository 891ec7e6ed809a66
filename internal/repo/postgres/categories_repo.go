package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/fintrack/internal/domain/category"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCategoriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{pool: pool, prom: prom}
}

func (r *CategoriesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *CategoriesRepo) CreateCategory(ctx context.Context, name string) (c category.Category, err error) {
	err = r.observe("categories.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO categories (name) VALUES ($1) RETURNING id, name`,
			name,
		).Scan(&c.ID, &c.Name)
	})

	if err != nil {
		return category.Category{}, err
	}

	return c, nil
}

func (r *CategoriesRepo) ListCategories(ctx context.Context) ([]category.Category, error) {
	out := make([]category.Category, 0)

	err := r.observe("categories.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c category.Category
			if err := rows.Scan(&c.ID, &c.Name); err != nil {
				return err
			}
			out = append(out, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *CategoriesRepo) GetCategoryByID(ctx context.Context, id int64) (c category.Category, err error) {
	err = r.observe("categories.get_by_id", func() error {
		return r.pool.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, err
	}

	return c, nil
}
