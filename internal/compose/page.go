// Package compose builds the content of one exported page from a record, its client, the issuing
// company profile and the page's transcoded images.
//
// Composition is pure: every value is already loaded and every image already transcoded, and
// all amounts are formatted here so the renderer only places text. A page is one of three kinds:
// the cost analysis (page 1), an item grid, or the supplier appendix.
package compose

import (
	"ledgerdoc/internal/imaging"
)

// Kind selects the body block of a page.
type Kind string

const (
	KindCostAnalysis     Kind = "cost_analysis"
	KindItemGrid         Kind = "item_grid"
	KindSupplierAppendix Kind = "supplier_appendix"
)

// Page is everything a renderer needs to draw one page.
type Page struct {
	Number     int
	TotalPages int
	Kind       Kind

	Header Header
	BillTo BillTo
	Meta   Meta

	CostAnalysis *CostAnalysisBlock // KindCostAnalysis only
	Items        []ItemCard         // KindItemGrid only
	Appendix     []SupplierRow      // KindSupplierAppendix only

	Footer string
}

// Header identifies the issuing company.
type Header struct {
	CompanyName string
	Address     string
	Phone       string
	Email       string
	TaxLabel    string // "TRN" or "CR"
	TaxNumber   string
}

// BillTo is the client block. TRN is only set for UAE clients.
type BillTo struct {
	Name    string
	Address string
	Phone   string
	Email   string
	Country string
	TRN     string
}

// Meta carries the document identity and dates, already formatted.
type Meta struct {
	Title        string
	Number       string
	CreatedAt    string
	PaymentDue   string
	DeliveryDate string
	Status       string
}

// Row is a label/value pair.
type Row struct {
	Label string
	Value string
}

// CostAnalysisBlock is the body of the first page.
type CostAnalysisBlock struct {
	Rows               []Row
	TermsAndConditions string
	Bank               []Row
}

// ItemCard is one item as drawn on item and appendix pages.
type ItemCard struct {
	Key           string
	Name          string
	Description   string
	Image         *imaging.TranscodedImage // nil when unavailable
	OrderQuantity string
	UnitCost      string
	PrintingCost  string
	ShippingCost  string
	TotalCost     string
}

// SupplierRow groups an item card under its supplier on the appendix page.
type SupplierRow struct {
	Supplier string
	Card     ItemCard
}
