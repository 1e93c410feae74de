// Package paginate splits a record's line items into the fixed page layout of an exported document.
//
// The layout is a fixed template: page 1 carries the cost analysis only, item pages follow with
// PageSize items each, and one supplier appendix page listing every item closes the document.
package paginate

import (
	"ledgerdoc/pkg/models"
)

// PageSize is the number of item cards on one item page.
const PageSize = 6

// Entry is an item together with its position in the record.
type Entry struct {
	Index int // Position in Record.Items
	Item  models.LineItem
}

// Key is the item identity used to look up its transcoded image.
func (e Entry) Key() string {
	return e.Item.Key(e.Index)
}

// Page describes one page of the exported document.
type Page struct {
	Index       int // 1-based
	Entries     []Entry
	IsFirstPage bool
	IsAppendix  bool
}

// RendersItems reports whether the page draws its entries (item grid or appendix).
// The first page carries its slice but renders only the cost analysis.
func (p Page) RendersItems() bool {
	return !p.IsFirstPage || p.IsAppendix
}

// ImageRefs returns item key to image reference for every rendered item with an image.
func (p Page) ImageRefs() map[string]string {
	refs := make(map[string]string)
	if !p.RendersItems() {
		return refs
	}
	for _, e := range p.Entries {
		if e.Item.HasImage() {
			refs[e.Key()] = e.Item.ImageURL
		}
	}
	return refs
}

// Items returns the line items of the page in order.
func (p Page) Items() []models.LineItem {
	items := make([]models.LineItem, len(p.Entries))
	for i, e := range p.Entries {
		items[i] = e.Item
	}
	return items
}

// Paginate returns ceil(len(items)/pageSize) item pages followed by one appendix page holding all
// items. Page k holds items [(k-1)*pageSize, k*pageSize). With no items a single empty first page
// is still produced so the cost summary renders. A non-positive pageSize uses PageSize.
func Paginate(items []models.LineItem, pageSize int) []Page {
	if pageSize <= 0 {
		pageSize = PageSize
	}

	entries := make([]Entry, len(items))
	for i, item := range items {
		entries[i] = Entry{Index: i, Item: item}
	}

	itemPages := (len(entries) + pageSize - 1) / pageSize
	if itemPages == 0 {
		itemPages = 1
	}

	pages := make([]Page, 0, itemPages+1)
	for k := 1; k <= itemPages; k++ {
		start := min((k-1)*pageSize, len(entries))
		end := min(k*pageSize, len(entries))
		pages = append(pages, Page{
			Index:       k,
			Entries:     entries[start:end:end],
			IsFirstPage: k == 1,
		})
	}

	pages = append(pages, Page{
		Index:      itemPages + 1,
		Entries:    entries,
		IsAppendix: true,
	})

	return pages
}
