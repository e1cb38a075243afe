package products

import (
	"fmt"
	"strings"
)

// RawFilters is the untrusted query-string input for a catalog search.
// All fields arrive as strings; validation happens in the builder.
type RawFilters struct {
	Category    string
	Tags        string
	PriceMin    string
	PriceMax    string
	Search      string
	Author      string
	Genre       string
	Series      string
	Illustrator string
	TomoNumber  string
	Page        string
	Limit       string
}

type Pagination struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// AppliedFilters records which filters made it into the query; it is
// echoed back to the caller as search metadata.
type AppliedFilters struct {
	Category    *CategoryFilter `json:"category,omitempty"`
	Tags        []int64         `json:"tags,omitempty"`
	PriceRange  *PriceRange     `json:"priceRange,omitempty"`
	Search      string          `json:"search,omitempty"`
	Author      string          `json:"author,omitempty"`
	Genre       string          `json:"genre,omitempty"`
	Series      string          `json:"series,omitempty"`
	Illustrator string          `json:"illustrator,omitempty"`
	TomoNumber  *float64        `json:"tomoNumber,omitempty"`
	Pagination  Pagination      `json:"pagination"`
}

// ValidationError carries every filter problem found during a build, so a
// single response can report all of them at once.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation errors in filters: %s", strings.Join(e.Errors, "; "))
}

// ProductQuery is a fully validated, executable search: AND-combined WHERE
// predicates with positional args, plus pagination.
type ProductQuery struct {
	Applied AppliedFilters

	where  []string
	args   []any
	limit  int
	offset int
}

// queryBuilder accumulates predicates and validation errors while the
// filters are applied. A fresh one is created per BuildQuery call, so the
// build is a pure function of its input.
type queryBuilder struct {
	query ProductQuery
	errs  []string
}

func (qb *queryBuilder) addArg(v any) string {
	qb.query.args = append(qb.query.args, v)
	return fmt.Sprintf("$%d", len(qb.query.args))
}

func (qb *queryBuilder) andWhere(predicate string) {
	qb.query.where = append(qb.query.where, predicate)
}

func (qb *queryBuilder) fail(prefix string, err error) {
	qb.errs = append(qb.errs, fmt.Sprintf("%s: %s", prefix, err))
}

func (qb *queryBuilder) filterByCategory(raw string) {
	validated, err := ValidateCategory(raw)
	if err != nil {
		qb.fail("Category filter error", err)
		return
	}
	if validated == nil {
		return
	}
	qb.query.Applied.Category = validated
	if validated.Kind == "id" {
		qb.andWhere(fmt.Sprintf("c.id = %s", qb.addArg(validated.ID)))
	} else {
		qb.andWhere(fmt.Sprintf("LOWER(c.name) = %s", qb.addArg(validated.Name)))
	}
}

// filterByTags matches products carrying ANY of the given tag ids, not
// all of them.
func (qb *queryBuilder) filterByTags(raw string) {
	tagIds := ValidateTags(raw)
	if len(tagIds) == 0 {
		return
	}
	qb.query.Applied.Tags = tagIds

	placeholders := make([]string, len(tagIds))
	for i, id := range tagIds {
		placeholders[i] = qb.addArg(id)
	}
	qb.andWhere(fmt.Sprintf(
		"EXISTS (SELECT 1 FROM manga_tags mt WHERE mt.manga_id = m.id AND mt.tag_id IN (%s))",
		strings.Join(placeholders, ", "),
	))
}

func (qb *queryBuilder) filterByPriceRange(rawMin, rawMax string) {
	if rawMin == "" && rawMax == "" {
		return
	}
	pr, err := ValidatePriceRange(rawMin, rawMax)
	if err != nil {
		qb.fail("Price filter error", err)
		return
	}
	qb.query.Applied.PriceRange = &pr
	if pr.Min != nil {
		qb.andWhere(fmt.Sprintf("m.price >= %s", qb.addArg(*pr.Min)))
	}
	if pr.Max != nil {
		qb.andWhere(fmt.Sprintf("m.price <= %s", qb.addArg(*pr.Max)))
	}
}

func (qb *queryBuilder) filterBySearch(raw string) {
	term, err := ValidateSearchTerm(raw)
	if err != nil {
		qb.fail("Search filter error", err)
		return
	}
	if term == "" {
		return
	}
	qb.query.Applied.Search = term

	pattern := "%" + strings.ToLower(term) + "%"
	qb.andWhere(fmt.Sprintf(
		"(LOWER(m.name) LIKE %s OR LOWER(m.series) LIKE %s)",
		qb.addArg(pattern), qb.addArg(pattern),
	))
}

func (qb *queryBuilder) filterByString(raw, fieldName, label, column string, dest *string) {
	validated, err := ValidateStringFilter(raw, fieldName, 100)
	if err != nil {
		qb.fail(label+" filter error", err)
		return
	}
	if validated == "" {
		return
	}
	*dest = validated
	qb.andWhere(fmt.Sprintf("%s = %s", column, qb.addArg(validated)))
}

func (qb *queryBuilder) filterByTomoNumber(raw string) {
	tomo, ok, err := ValidateNumericId(raw, "tomoNumber")
	if err == nil && ok && tomo <= 0 {
		err = fmt.Errorf("tomoNumber must be greater than 0")
	}
	if err != nil {
		qb.fail("Tomo number filter error", err)
		return
	}
	if !ok {
		return
	}
	qb.query.Applied.TomoNumber = &tomo
	qb.andWhere(fmt.Sprintf("m.tomo_number = %s", qb.addArg(tomo)))
}

func (qb *queryBuilder) paginate(rawPage, rawLimit string) {
	page, limit := 1, 10

	if p, ok, err := ValidateNumericId(rawPage, "page"); err != nil {
		qb.fail("Pagination error", err)
		return
	} else if ok {
		page = int(p)
	}
	if l, ok, err := ValidateNumericId(rawLimit, "limit"); err != nil {
		qb.fail("Pagination error", err)
		return
	} else if ok {
		limit = int(l)
	}

	if page < 1 {
		qb.fail("Pagination error", fmt.Errorf("page must be at least 1"))
		return
	}
	if limit < 1 || limit > 100 {
		qb.fail("Pagination error", fmt.Errorf("limit must be between 1 and 100"))
		return
	}

	offset := (page - 1) * limit
	qb.query.Applied.Pagination = Pagination{Page: page, Limit: limit, Offset: offset}
	qb.query.limit = limit
	qb.query.offset = offset
}

// BuildQuery validates every raw filter and composes the search query.
// Filters are applied in a fixed order; an invalid filter is skipped and
// recorded rather than aborting the chain, so one call reports every
// problem. A non-empty error list fails the whole build.
func BuildQuery(raw RawFilters) (*ProductQuery, error) {
	qb := &queryBuilder{}

	qb.filterByCategory(raw.Category)
	qb.filterByTags(raw.Tags)
	qb.filterByPriceRange(raw.PriceMin, raw.PriceMax)
	qb.filterBySearch(raw.Search)
	qb.filterByString(raw.Author, "author", "Author", "m.author", &qb.query.Applied.Author)
	qb.filterByString(raw.Genre, "genre", "Genre", "m.genre", &qb.query.Applied.Genre)
	qb.filterByString(raw.Series, "series", "Series", "m.series", &qb.query.Applied.Series)
	qb.filterByString(raw.Illustrator, "illustrator", "Illustrator", "m.illustrator", &qb.query.Applied.Illustrator)
	qb.filterByTomoNumber(raw.TomoNumber)
	qb.paginate(raw.Page, raw.Limit)

	if len(qb.errs) > 0 {
		return nil, &ValidationError{Errors: qb.errs}
	}
	return &qb.query, nil
}

func (q *ProductQuery) whereClause() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

// selectSQL is the page query: fixed ordering by id descending, newest
// entries first.
func (q *ProductQuery) selectSQL() (string, []any) {
	sql := selectMangaColumns + q.whereClause() +
		fmt.Sprintf(" ORDER BY m.id DESC LIMIT $%d OFFSET $%d", len(q.args)+1, len(q.args)+2)
	args := make([]any, 0, len(q.args)+2)
	args = append(args, q.args...)
	args = append(args, q.limit, q.offset)
	return sql, args
}

// countSQL counts all matches, ignoring pagination.
func (q *ProductQuery) countSQL() (string, []any) {
	sql := "SELECT COUNT(*) FROM mangas m LEFT JOIN categories c ON c.id = m.category_id" + q.whereClause()
	return sql, q.args
}
