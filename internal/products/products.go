package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JonFloz/P3-31899312/internal/stores/postgres"
)

var (
	ErrNotFound         = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrTagNotFound      = errors.New("one or more tags not found")
)

// Conf is the product data-access layer. Handlers and the order service
// receive it by injection so tests can substitute fakes.
type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

const selectMangaColumns = `
	SELECT m.id, m.name, m.author, m.tomo_number, m.price, m.stock,
	       m.genre, m.series, m.illustrator, m.slug, m.created_at, m.updated_at,
	       c.id, c.name, c.description, c.created_at, c.updated_at
	FROM mangas m
	LEFT JOIN categories c ON c.id = m.category_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanManga(row rowScanner) (Manga, error) {
	var m Manga
	var catID sql.NullInt64
	var catName, catDescription sql.NullString
	var catCreatedAt, catUpdatedAt sql.NullTime

	err := row.Scan(
		&m.ID, &m.Name, &m.Author, &m.TomoNumber, &m.Price, &m.Stock,
		&m.Genre, &m.Series, &m.Illustrator, &m.Slug, &m.CreatedAt, &m.UpdatedAt,
		&catID, &catName, &catDescription, &catCreatedAt, &catUpdatedAt,
	)
	if err != nil {
		return Manga{}, err
	}

	if catID.Valid {
		m.Category = &Category{
			ID:          catID.Int64,
			Name:        catName.String,
			Description: catDescription.String,
			CreatedAt:   catCreatedAt.Time,
			UpdatedAt:   catUpdatedAt.Time,
		}
	}
	m.Tags = []Tag{}
	return m, nil
}

// FindByID fetches a product without its relations; the checkout path
// only needs price, stock and name.
func (c *Conf) FindByID(ctx context.Context, id int64) (Manga, error) {
	row := c.db.QueryRowContext(ctx, selectMangaColumns+" WHERE m.id = $1", id)
	m, err := scanManga(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Manga{}, ErrNotFound
		}
		return Manga{}, fmt.Errorf("failed to query product: %w", err)
	}
	return m, nil
}

// FindBySlug resolves a product by its canonical slug.
func (c *Conf) FindBySlug(ctx context.Context, slug string) (Manga, error) {
	row := c.db.QueryRowContext(ctx, selectMangaColumns+" WHERE m.slug = $1", slug)
	m, err := scanManga(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Manga{}, ErrNotFound
		}
		return Manga{}, fmt.Errorf("failed to query product: %w", err)
	}
	return m, nil
}

// FindByIDWithRelations fetches a product with category and tags.
func (c *Conf) FindByIDWithRelations(ctx context.Context, id int64) (Manga, error) {
	m, err := c.FindByID(ctx, id)
	if err != nil {
		return Manga{}, err
	}
	if err := c.attachTags(ctx, []*Manga{&m}); err != nil {
		return Manga{}, err
	}
	return m, nil
}

// SearchAdvanced executes a validated product query, returning the page
// slice with relations attached plus the total ignoring pagination.
func (c *Conf) SearchAdvanced(ctx context.Context, q *ProductQuery) ([]Manga, int64, error) {
	countSQL, countArgs := q.countSQL()
	var total int64
	if err := c.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	selectSQL, selectArgs := q.selectSQL()
	rows, err := c.db.QueryContext(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	items := []Manga{}
	for rows.Next() {
		m, err := scanManga(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	refs := make([]*Manga, len(items))
	for i := range items {
		refs[i] = &items[i]
	}
	if err := c.attachTags(ctx, refs); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (c *Conf) attachTags(ctx context.Context, mangas []*Manga) error {
	if len(mangas) == 0 {
		return nil
	}
	byID := make(map[int64]*Manga, len(mangas))
	ids := make([]int64, 0, len(mangas))
	for _, m := range mangas {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	placeholders, args := int64Placeholders(ids)
	query := fmt.Sprintf(`
		SELECT mt.manga_id, t.id, t.name, t.created_at, t.updated_at
		FROM manga_tags mt
		JOIN tags t ON t.id = mt.tag_id
		WHERE mt.manga_id IN (%s)
		ORDER BY t.id`, placeholders)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query product tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mangaID int64
		var t Tag
		if err := rows.Scan(&mangaID, &t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan product tag: %w", err)
		}
		if m, ok := byID[mangaID]; ok {
			m.Tags = append(m.Tags, t)
		}
	}
	return rows.Err()
}

func int64Placeholders(ids []int64) (string, []any) {
	ph := ""
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			ph += ", "
		}
		ph += fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	return ph, args
}

// InsertManga creates a product with a unique slug derived from its name.
// On a slug collision with a concurrent writer the insert retries with a
// numbered suffix instead of bubbling up the constraint error.
func (c *Conf) InsertManga(ctx context.Context, np NewManga) (Manga, error) {
	if np.CategoryID != 0 {
		if _, err := c.FindCategoryByID(ctx, np.CategoryID); err != nil {
			return Manga{}, err
		}
	}
	tags, err := c.findTagsByIDs(ctx, np.TagIDs)
	if err != nil {
		return Manga{}, err
	}

	baseSlug := Slugify(np.Name)
	slug, err := c.generateUniqueSlug(ctx, baseSlug)
	if err != nil {
		return Manga{}, err
	}

	var id int64
	for attempt := 1; ; attempt++ {
		id, err = c.insertMangaRow(ctx, np, slug)
		if err == nil {
			break
		}
		if postgres.IsUniqueViolation(postgres.ClassifyError(err), "mangas_slug_key") && attempt <= 5 {
			slug = fmt.Sprintf("%s-%d", baseSlug, attempt)
			continue
		}
		return Manga{}, fmt.Errorf("failed to insert product: %w", err)
	}

	m, err := c.FindByIDWithRelations(ctx, id)
	if err != nil {
		return Manga{}, err
	}
	m.Tags = tags
	return m, nil
}

func (c *Conf) insertMangaRow(ctx context.Context, np NewManga, slug string) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var categoryID any
	if np.CategoryID != 0 {
		categoryID = np.CategoryID
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO mangas (name, author, tomo_number, price, stock, genre, series, illustrator, slug, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, np.Name, np.Author, np.TomoNumber, np.Price, np.Stock, np.Genre, np.Series, np.Illustrator, slug, categoryID).Scan(&id)
	if err != nil {
		return 0, err
	}

	if err := replaceMangaTags(ctx, tx, id, np.TagIDs); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit tx: %w", err)
	}
	return id, nil
}

// UpdateManga replaces the mutable fields of a product; the slug is
// regenerated when the name changes.
func (c *Conf) UpdateManga(ctx context.Context, id int64, np NewManga) (Manga, error) {
	existing, err := c.FindByID(ctx, id)
	if err != nil {
		return Manga{}, err
	}

	if np.CategoryID != 0 {
		if _, err := c.FindCategoryByID(ctx, np.CategoryID); err != nil {
			return Manga{}, err
		}
	}
	if _, err := c.findTagsByIDs(ctx, np.TagIDs); err != nil {
		return Manga{}, err
	}

	slug := existing.Slug
	if np.Name != existing.Name {
		slug, err = c.generateUniqueSlug(ctx, Slugify(np.Name))
		if err != nil {
			return Manga{}, err
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return Manga{}, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var categoryID any
	if np.CategoryID != 0 {
		categoryID = np.CategoryID
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE mangas
		SET name = $1, author = $2, tomo_number = $3, price = $4, stock = $5,
		    genre = $6, series = $7, illustrator = $8, slug = $9, category_id = $10,
		    updated_at = NOW()
		WHERE id = $11
	`, np.Name, np.Author, np.TomoNumber, np.Price, np.Stock, np.Genre, np.Series, np.Illustrator, slug, categoryID, id)
	if err != nil {
		return Manga{}, fmt.Errorf("failed to update product: %w", err)
	}

	if err := replaceMangaTags(ctx, tx, id, np.TagIDs); err != nil {
		return Manga{}, fmt.Errorf("failed to update product tags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Manga{}, fmt.Errorf("failed to commit tx: %w", err)
	}

	return c.FindByIDWithRelations(ctx, id)
}

func replaceMangaTags(ctx context.Context, tx *sql.Tx, mangaID int64, tagIDs []int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM manga_tags WHERE manga_id = $1", mangaID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO manga_tags (manga_id, tag_id) VALUES ($1, $2)", mangaID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func (c *Conf) DeleteManga(ctx context.Context, id int64) error {
	res, err := c.db.ExecContext(ctx, "DELETE FROM mangas WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Conf) FindCategoryByID(ctx context.Context, id int64) (Category, error) {
	var cat Category
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM categories WHERE id = $1
	`, id).Scan(&cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Category{}, ErrCategoryNotFound
		}
		return Category{}, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

func (c *Conf) findTagsByIDs(ctx context.Context, tagIDs []int64) ([]Tag, error) {
	if len(tagIDs) == 0 {
		return []Tag{}, nil
	}
	placeholders, args := int64Placeholders(tagIDs)
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, created_at, updated_at FROM tags WHERE id IN (%s)`, placeholders), args...)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, ErrTagNotFound
	}
	return tags, nil
}

func (c *Conf) existsSlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM mangas WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}

func (c *Conf) generateUniqueSlug(ctx context.Context, baseSlug string) (string, error) {
	slug := baseSlug
	for suffix := 1; ; suffix++ {
		exists, err := c.existsSlug(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", baseSlug, suffix)
	}
}
