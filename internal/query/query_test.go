package query

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagebound/bookstore-api/internal/model"
)

func TestBuilder_Empty(t *testing.T) {
	var b Builder
	assert.Equal(t, "", b.Clause())
	assert.Empty(t, b.Args())
}

func TestBuilder_BindsSequentially(t *testing.T) {
	var b Builder
	b.Where("title ILIKE " + b.Bind("%go%"))
	b.Where("price >= " + b.Bind(10))

	assert.Equal(t, " WHERE title ILIKE $1 AND price >= $2", b.Clause())
	assert.Equal(t, []any{"%go%", 10}, b.Args())
}

func TestBookFilter_EmptyAddsOnlyActiveClause(t *testing.T) {
	var b Builder
	BookFilter{}.Apply(&b)

	assert.Equal(t, " WHERE active", b.Clause())
	assert.Empty(t, b.Args())
}

func TestBookFilter_FreeTextSharesOneBinding(t *testing.T) {
	var b Builder
	BookFilter{Query: "dune"}.Apply(&b)

	assert.Equal(t,
		" WHERE (title ILIKE $1 OR author ILIKE $1 OR description ILIKE $1) AND active",
		b.Clause())
	assert.Equal(t, []any{"%dune%"}, b.Args())
}

func TestBookFilter_CombinesClausesWithAnd(t *testing.T) {
	catID := uuid.New()
	min := decimal.NewFromInt(5)
	max := decimal.NewFromInt(50)

	var b Builder
	BookFilter{
		Query:       "go",
		CategoryID:  &catID,
		Publisher:   "penguin",
		PriceMin:    &min,
		PriceMax:    &max,
		InStockOnly: true,
	}.Apply(&b)

	clause := b.Clause()
	assert.Contains(t, clause, "category_id = $2")
	assert.Contains(t, clause, "publisher ILIKE $3")
	assert.Contains(t, clause, "price >= $4")
	assert.Contains(t, clause, "price <= $5")
	assert.Contains(t, clause, "stock > 0")
	assert.Len(t, b.Args(), 5)

	// User input never lands in the query text itself.
	assert.NotContains(t, clause, "go")
	assert.NotContains(t, clause, "penguin")
}

func TestBookSort_ClosedEnumWithStableTiebreak(t *testing.T) {
	cases := map[BookSort]string{
		BookSortNewest:      " ORDER BY created_at DESC, id ASC",
		BookSortPriceAsc:    " ORDER BY price ASC, id ASC",
		BookSortPriceDesc:   " ORDER BY price DESC, id ASC",
		BookSortTitle:       " ORDER BY title ASC, id ASC",
		BookSortBestSelling: " ORDER BY sold_count DESC, id ASC",
		BookSortRating:      " ORDER BY rating DESC, id ASC",
	}
	for sort, want := range cases {
		assert.Equal(t, want, sort.OrderBy())
	}

	_, err := ParseBookSort("price; DROP TABLE books")
	assert.ErrorIs(t, err, model.ErrUnknownEnum)

	sort, err := ParseBookSort("")
	require.NoError(t, err)
	assert.Equal(t, BookSortNewest, sort)
}

func TestOrderFilter_Compiles(t *testing.T) {
	status := model.OrderStatusPending
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var b Builder
	OrderFilter{Query: "ORD2025", Status: &status, From: &from, To: &to}.Apply(&b)

	assert.Equal(t,
		" WHERE (order_code ILIKE $1 OR customer_name ILIKE $1 OR customer_phone ILIKE $1)"+
			" AND status = $2 AND created_at >= $3 AND created_at < $4",
		b.Clause())
	assert.Equal(t, []any{"%ORD2025%", "pending", from, to}, b.Args())
}

func TestOrderFilter_EmptyHasNoClause(t *testing.T) {
	var b Builder
	OrderFilter{}.Apply(&b)
	assert.Equal(t, "", b.Clause())
}
