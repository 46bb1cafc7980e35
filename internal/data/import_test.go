package data

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBookRecordsBothCasings(t *testing.T) {
	payload := `[
		{"title": "Animal Farm", "author": "George Orwell", "isbn": "9780452284241", "category": "Fiction", "price": 9.99, "numberInStock": 12},
		{"Title": "1984", "Author": "George Orwell", "ISBN": "9780451524935", "Category": "Fiction", "Price": 12.50, "NumberInStock": 4}
	]`

	records, err := DecodeBookRecords(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, records, 2)

	lower := records[0].Normalize()
	assert.Equal(t, "Animal Farm", lower.Title)
	assert.Equal(t, "George Orwell", lower.Author)
	assert.Equal(t, "9780452284241", lower.ISBN)
	assert.Equal(t, 9.99, lower.Price)
	assert.Equal(t, 12, lower.Stock)

	capitalized := records[1].Normalize()
	assert.Equal(t, "1984", capitalized.Title)
	assert.Equal(t, "9780451524935", capitalized.ISBN)
	assert.Equal(t, 12.50, capitalized.Price)
	assert.Equal(t, 4, capitalized.Stock)
}

// When a record carries both casings of a field, the camelCase variant wins.
func TestNormalizePrefersCamelCase(t *testing.T) {
	payload := `[{"title": "lowercase wins", "Title": "Capitalized loses", "author": "A", "isbn": "x", "price": 1.00, "numberInStock": 3, "NumberInStock": 99}]`

	records, err := DecodeBookRecords(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, records, 1)

	book := records[0].Normalize()
	assert.Equal(t, "lowercase wins", book.Title)
	assert.Equal(t, 3, book.Stock)
}

func TestNormalizeDefaults(t *testing.T) {
	payload := `[{"title": "No Stock Given", "author": "A", "isbn": "y", "price": 5.00}]`

	records, err := DecodeBookRecords(strings.NewReader(payload))
	require.NoError(t, err)

	book := records[0].Normalize()
	assert.Equal(t, 0, book.Stock)
	assert.Empty(t, book.Category)
}

func TestDecodeBookRecordsRejectsMalformedPayload(t *testing.T) {
	_, err := DecodeBookRecords(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}
