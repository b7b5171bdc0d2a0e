package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationButtons(t *testing.T) {
	assert.Nil(t, PaginationButtons("bookings", 0, 1), "single page has no pagination")

	first := PaginationButtons("bookings", 0, 3)
	require.Len(t, first, 2)
	assert.Equal(t, "📄 1/3", first[0].Text)
	assert.Equal(t, "bookings:1", first[1].CallbackData)

	middle := PaginationButtons("bookings", 1, 3)
	require.Len(t, middle, 3)
	assert.Equal(t, "bookings:0", middle[0].CallbackData)
	assert.Equal(t, Noop, middle[1].CallbackData)

	last := PaginationButtons("bookings", 2, 3)
	require.Len(t, last, 2)
	assert.Equal(t, "bookings:1", last[0].CallbackData)
}

func TestBuilder(t *testing.T) {
	assert.Nil(t, NewBuilder().AddPagination("bookings", 0, 1).Build())

	markup := NewBuilder().AddPagination("bookings", 0, 2).Build()
	require.NotNil(t, markup)
	assert.Len(t, markup.InlineKeyboard, 1)
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage("bookings", PageData("bookings", 4))
	require.NoError(t, err)
	assert.Equal(t, 4, page)

	for _, data := range []string{"bookings:", "bookings:-1", "bookings:x", "dashboard:1", Noop} {
		_, err := ParsePage("bookings", data)
		assert.Error(t, err, data)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
}
