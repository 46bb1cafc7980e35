package data

import (
	"github.com/doug-martin/goqu/v9"

	// Register the postgres dialect so prepared queries use $N placeholders.
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

var pgBuilder = goqu.Dialect("postgres")

// BookFilters holds the optional catalog filter parameters extracted from
// URL query strings. A free-text Search term takes precedence and matches
// any of title, author, or category; otherwise the per-field filters are
// combined with AND. All matching is case-insensitive substring matching.
type BookFilters struct {
	Search   string
	Title    string
	Author   string
	Category string
}

// buildQuery assembles the catalog SELECT for these filters. The query is
// built with goqu rather than string concatenation so user input always ends
// up in bind parameters, never in the SQL text. Results are ordered
// ascending by title, with book_id as a tiebreaker so repeated reads of the
// same filter return the same ordering.
func (f BookFilters) buildQuery() (string, []any, error) {
	ds := pgBuilder.
		From("books").
		Select("book_id", "title", "author", "isbn", "category", "price", "stock", "created_at", "updated_at")

	switch {
	case f.Search != "":
		pattern := "%" + f.Search + "%"
		ds = ds.Where(goqu.Or(
			goqu.I("title").ILike(pattern),
			goqu.I("author").ILike(pattern),
			goqu.I("category").ILike(pattern),
		))
	default:
		if f.Title != "" {
			ds = ds.Where(goqu.I("title").ILike("%" + f.Title + "%"))
		}
		if f.Author != "" {
			ds = ds.Where(goqu.I("author").ILike("%" + f.Author + "%"))
		}
		if f.Category != "" {
			ds = ds.Where(goqu.I("category").ILike("%" + f.Category + "%"))
		}
	}

	ds = ds.Order(goqu.I("title").Asc(), goqu.I("book_id").Asc())

	return ds.Prepared(true).ToSQL()
}
