package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind distinguishes the record types that can be exported.
type DocumentKind string

const (
	KindPurchaseOrder DocumentKind = "PurchaseOrder"
	KindInvoice       DocumentKind = "Invoice"
)

// Title returns the heading printed on the exported document.
func (k DocumentKind) Title() string {
	if k == KindInvoice {
		return "INVOICE"
	}
	return "PURCHASE ORDER"
}

// ParseDocumentKind maps stored kind strings ("invoice", "purchase_order", ...) onto a DocumentKind.
// Anything unrecognised is a purchase order.
func ParseDocumentKind(s string) DocumentKind {
	normalized := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	if normalized == "invoice" || normalized == "invoices" {
		return KindInvoice
	}
	return KindPurchaseOrder
}

// Status is the lifecycle state of a record.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusPending       Status = "pending"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
	StatusVoid          Status = "void"
)

// ParseStatus normalises a stored status; unknown values fall back to draft.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending
	case StatusPartiallyPaid:
		return StatusPartiallyPaid
	case StatusPaid:
		return StatusPaid
	case StatusVoid:
		return StatusVoid
	default:
		return StatusDraft
	}
}

// Label returns a human readable status ("Partially Paid").
func (s Status) Label() string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Record is a purchase order or invoice being priced and exported.
type Record struct {
	// Core identifiers
	ID       string       // Storage identifier
	CustomID string       // Human-facing document number (optional)
	Kind     DocumentKind // PurchaseOrder or Invoice

	// Parties
	ClientID   string
	ClientName string

	// Money
	Currency               string // ISO 4217 code as stored (may be invalid)
	Items                  []LineItem
	AdditionalShippingCost decimal.Decimal
	AdditionalPrintingCost decimal.Decimal
	NetProfit              decimal.Decimal // Persisted derived value, kept correct by reconciliation
	PaidAmount             decimal.Decimal

	// Status and dates
	Status             Status
	CreatedAt          time.Time
	PaymentDue         time.Time
	DeliveryDate       time.Time
	UpdatedAt          time.Time
	TermsAndConditions string
}

// DocumentNumber returns the custom id when set, otherwise the storage id.
func (r *Record) DocumentNumber() string {
	if strings.TrimSpace(r.CustomID) != "" {
		return r.CustomID
	}
	return r.ID
}

// FileName follows the "<Kind>_<customId-or-id>.pdf" convention callers rely on.
// Characters that are not valid in a file name are replaced with "-".
func (r *Record) FileName() string {
	number := sanitizeFileComponent(r.DocumentNumber())
	if number == "" {
		number = sanitizeFileComponent(r.ID)
	}
	if number == "" {
		number = "document"
	}
	return fmt.Sprintf("%s_%s.pdf", r.Kind, number)
}

func sanitizeFileComponent(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return '-'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '-'
		}
		return r
	}, strings.TrimSpace(s))
	return strings.Trim(cleaned, ". ")
}

// Clone returns a copy whose item slice can be modified independently.
func (r *Record) Clone() *Record {
	c := *r
	if r.Items != nil {
		c.Items = make([]LineItem, len(r.Items))
		copy(c.Items, r.Items)
	}
	return &c
}

// LineItem is one priced/costed product line. Cost-side fields are per unit and multiplied by the
// order quantity; the sell price is multiplied by Quantity.
type LineItem struct {
	ID            string
	Name          string
	Description   string
	OrderQuantity decimal.NullDecimal // Falls back to Quantity when absent
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	PrintingCost  decimal.Decimal
	ShippingCost  decimal.Decimal
	Price         decimal.Decimal
	ImageURL      string
	SupplierName  string
}

// EffectiveOrderQuantity returns the order quantity, falling back to the sell quantity.
func (li LineItem) EffectiveOrderQuantity() decimal.Decimal {
	if li.OrderQuantity.Valid {
		return li.OrderQuantity.Decimal
	}
	return li.Quantity
}

// Key identifies the item within one record; index is its position in Record.Items.
// Stored ids are not guaranteed unique, so the index is always part of the key.
func (li LineItem) Key(index int) string {
	if li.ID != "" {
		return fmt.Sprintf("%s#%d", li.ID, index)
	}
	return fmt.Sprintf("item-%d", index)
}

// HasImage reports whether the item references an image.
func (li LineItem) HasImage() bool {
	return strings.TrimSpace(li.ImageURL) != ""
}
