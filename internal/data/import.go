package data

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// importJSON is case-sensitive, so the camelCase and Capitalized variants of
// each field land in their own struct member instead of being conflated the
// way encoding/json's case-insensitive fallback would.
var importJSON = jsoniter.Config{
	EscapeHTML:                    false,
	ObjectFieldMustBeSimpleString: true,
	CaseSensitive:                 true,
}.Froze()

// BookRecord is a loosely-typed external book record as it appears in import
// payloads. Historical data files use Capitalized field names while the
// frontend emits camelCase, so both spellings are accepted. Fields are
// pointers to distinguish "absent" from "present but zero".
type BookRecord struct {
	Title       *string  `json:"title"`
	TitleAlt    *string  `json:"Title"`
	Author      *string  `json:"author"`
	AuthorAlt   *string  `json:"Author"`
	ISBN        *string  `json:"isbn"`
	ISBNAlt     *string  `json:"ISBN"`
	Category    *string  `json:"category"`
	CategoryAlt *string  `json:"Category"`
	Price       *float64 `json:"price"`
	PriceAlt    *float64 `json:"Price"`
	Stock       *int     `json:"numberInStock"`
	StockAlt    *int     `json:"NumberInStock"`
}

// Normalize maps a loose external record onto a canonical Book. When both
// casings of a field are present the camelCase variant wins. Absent stock
// defaults to 0. This is a pure function: it never touches the database.
func (r BookRecord) Normalize() Book {
	book := Book{
		Title:    pick(r.Title, r.TitleAlt),
		Author:   pick(r.Author, r.AuthorAlt),
		ISBN:     pick(r.ISBN, r.ISBNAlt),
		Category: pick(r.Category, r.CategoryAlt),
		Price:    pick(r.Price, r.PriceAlt),
		Stock:    pick(r.Stock, r.StockAlt),
	}
	return book
}

// pick returns the first non-nil value, or the zero value when both are nil.
func pick[T any](primary, fallback *T) T {
	if primary != nil {
		return *primary
	}
	if fallback != nil {
		return *fallback
	}
	var zero T
	return zero
}

// DecodeBookRecords reads a JSON array of loose book records from r.
func DecodeBookRecords(r io.Reader) ([]BookRecord, error) {
	var records []BookRecord
	if err := importJSON.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode book records: %w", err)
	}
	return records, nil
}
