package paginate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdoc/pkg/models"
)

func makeItems(n int) []models.LineItem {
	items := make([]models.LineItem, n)
	for i := range items {
		items[i] = models.LineItem{Name: fmt.Sprintf("Item %d", i)}
	}
	return items
}

func TestPaginate_ThirteenItems(t *testing.T) {
	pages := Paginate(makeItems(13), PageSize)

	require.Len(t, pages, 4)

	assert.Len(t, pages[0].Entries, 6)
	assert.Len(t, pages[1].Entries, 6)
	assert.Len(t, pages[2].Entries, 1)
	assert.Len(t, pages[3].Entries, 13)

	for i, p := range pages {
		assert.Equal(t, i+1, p.Index)
	}

	assert.True(t, pages[0].IsFirstPage)
	assert.False(t, pages[1].IsFirstPage)
	assert.True(t, pages[3].IsAppendix)
	assert.False(t, pages[2].IsAppendix)

	assert.Equal(t, 6, pages[1].Entries[0].Index)
	assert.Equal(t, "Item 12", pages[2].Entries[0].Item.Name)
}

func TestPaginate_ExactMultiple(t *testing.T) {
	pages := Paginate(makeItems(12), PageSize)
	require.Len(t, pages, 3)
	assert.Len(t, pages[1].Entries, 6)
	assert.True(t, pages[2].IsAppendix)
}

func TestPaginate_NoItems(t *testing.T) {
	pages := Paginate(nil, PageSize)

	require.Len(t, pages, 2)
	assert.True(t, pages[0].IsFirstPage)
	assert.Empty(t, pages[0].Entries)
	assert.True(t, pages[1].IsAppendix)
	assert.Empty(t, pages[1].Entries)
}

func TestPaginate_DefaultPageSize(t *testing.T) {
	assert.Len(t, Paginate(makeItems(7), 0), 3)
}

func TestPage_ImageRefs(t *testing.T) {
	items := makeItems(8)
	items[0].ImageURL = "https://cdn.example.com/0.jpg"
	items[6].ImageURL = "https://cdn.example.com/6.jpg"
	items[7].ID = "sku-7"
	items[7].ImageURL = "s3://media/7.jpg"

	pages := Paginate(items, PageSize)
	require.Len(t, pages, 3)

	assert.Empty(t, pages[0].ImageRefs(), "cost analysis page draws no images")
	assert.Equal(t, map[string]string{
		"item-6": "https://cdn.example.com/6.jpg",
		"sku-7":  "s3://media/7.jpg",
	}, pages[1].ImageRefs())
	assert.Equal(t, map[string]string{
		"item-0": "https://cdn.example.com/0.jpg",
		"item-6": "https://cdn.example.com/6.jpg",
		"sku-7":  "s3://media/7.jpg",
	}, pages[2].ImageRefs())
}

func TestPaginate_SlicesAreIndependent(t *testing.T) {
	pages := Paginate(makeItems(7), PageSize)
	first := pages[0].Entries
	_ = append(first, Entry{Index: 99})
	assert.Equal(t, 6, pages[1].Entries[0].Index)
}
