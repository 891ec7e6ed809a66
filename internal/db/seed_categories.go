package db

import (
	"context"
	"strings"

	"github.com/geocoder89/fintrack/internal/domain/category"
)

type CategorySeeder interface {
	ListCategories(ctx context.Context) ([]category.Category, error)
	CreateCategory(ctx context.Context, name string) (category.Category, error)
}

// EnsureDefaultCategories creates the configured starter categories, but only when the
// store has none yet, so categories added later by users are never duplicated.
func EnsureDefaultCategories(ctx context.Context, store CategorySeeder, names []string) error {
	if len(names) == 0 {
		return nil
	}

	existing, err := store.ListCategories(ctx)

	if err != nil {
		return err
	}

	if len(existing) > 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)

		if name == "" {
			continue
		}

		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		_, err := store.CreateCategory(ctx, name)

		if err != nil {
			return err
		}
	}

	return nil
}
