package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonFloz/P3-31899312/internal/stores/postgres"
)

var (
	ErrTagNameTaken = errors.New("tag name already exists")
	ErrTagInUse     = errors.New("tag is referenced by products")
)

func (c *Conf) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, name, created_at, updated_at FROM tags ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (c *Conf) InsertTag(ctx context.Context, nt NewTag) (Tag, error) {
	var t Tag
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO tags (name) VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`, nt.Name).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(postgres.ClassifyError(err), "tags_name_key") {
			return Tag{}, ErrTagNameTaken
		}
		return Tag{}, fmt.Errorf("failed to insert tag: %w", err)
	}
	return t, nil
}

func (c *Conf) UpdateTag(ctx context.Context, id int64, nt NewTag) (Tag, error) {
	var t Tag
	err := c.db.QueryRowContext(ctx, `
		UPDATE tags SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, name, created_at, updated_at
	`, nt.Name, id).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		classified := postgres.ClassifyError(err)
		if errors.Is(classified, postgres.ErrNotFound) {
			return Tag{}, ErrTagNotFound
		}
		if postgres.IsUniqueViolation(classified, "tags_name_key") {
			return Tag{}, ErrTagNameTaken
		}
		return Tag{}, fmt.Errorf("failed to update tag: %w", err)
	}
	return t, nil
}

// DeleteTag refuses to remove a tag while any product still carries it.
func (c *Conf) DeleteTag(ctx context.Context, id int64) error {
	var refs int64
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM manga_tags WHERE tag_id = $1", id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to count tag references: %w", err)
	}
	if refs > 0 {
		return ErrTagInUse
	}

	res, err := c.db.ExecContext(ctx, "DELETE FROM tags WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTagNotFound
	}
	return nil
}
