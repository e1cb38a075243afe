package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonFloz/P3-31899312/internal/stores/postgres"
)

var (
	ErrCategoryNameTaken = errors.New("category name already exists")
	ErrCategoryInUse     = errors.New("category is referenced by products")
)

func (c *Conf) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (c *Conf) InsertCategory(ctx context.Context, nc NewCategory) (Category, error) {
	var cat Category
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at, updated_at
	`, nc.Name, nc.Description).Scan(&cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(postgres.ClassifyError(err), "categories_name_key") {
			return Category{}, ErrCategoryNameTaken
		}
		return Category{}, fmt.Errorf("failed to insert category: %w", err)
	}
	return cat, nil
}

func (c *Conf) UpdateCategory(ctx context.Context, id int64, nc NewCategory) (Category, error) {
	var cat Category
	err := c.db.QueryRowContext(ctx, `
		UPDATE categories
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, name, description, created_at, updated_at
	`, nc.Name, nc.Description, id).Scan(&cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		classified := postgres.ClassifyError(err)
		if errors.Is(classified, postgres.ErrNotFound) {
			return Category{}, ErrCategoryNotFound
		}
		if postgres.IsUniqueViolation(classified, "categories_name_key") {
			return Category{}, ErrCategoryNameTaken
		}
		return Category{}, fmt.Errorf("failed to update category: %w", err)
	}
	return cat, nil
}

// DeleteCategory refuses to remove a category while any product still
// references it, so catalog rows never lose their classification silently.
func (c *Conf) DeleteCategory(ctx context.Context, id int64) error {
	var refs int64
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM mangas WHERE category_id = $1", id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to count category references: %w", err)
	}
	if refs > 0 {
		return ErrCategoryInUse
	}

	res, err := c.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		if errors.Is(postgres.ClassifyError(err), postgres.ErrForeignKeyViolation) {
			return ErrCategoryInUse
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
