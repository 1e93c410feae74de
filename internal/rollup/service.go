// Package rollup computes the derived financial values of a purchase order or invoice.
//
// All computations are pure functions over an explicit Record and Client:
//   - cost side: Σ(orderQuantity × unitCost/printingCost/shippingCost) plus lump-sum additional costs
//   - sale side: Σ(price × quantity), with a flat 5% VAT for UAE clients
//   - net profit: grand total minus net total cost, rounded to 2 decimals at the very end
//
// The only stored derived value is the record's net profit. ReconcileNetProfit recomputes it and
// writes it back through an injected persist function when the stored value has drifted. The
// Reconciler wires that routine to the record and client stores.
//
// Monetary values use shopspring/decimal, so nothing is rounded before the final step.
// Missing items, missing numeric fields and a missing country are inputs, not errors:
// they contribute zero (or "no VAT").
package rollup

import (
	"time"

	"github.com/shopspring/decimal"
)

// VATRate is the flat UAE value-added tax applied to the sale subtotal.
var VATRate = decimal.RequireFromString("0.05")

// ProfitPlaces is the number of decimal places the net profit is rounded to.
const ProfitPlaces = 2

// CostBreakdown is the fully loaded cost of fulfilling a record.
type CostBreakdown struct {
	ItemCost     decimal.Decimal
	PrintingCost decimal.Decimal // includes the additional printing cost
	ShippingCost decimal.Decimal // includes the additional shipping cost
	NetTotalCost decimal.Decimal
}

// SaleTotals are the client-facing totals of a record.
type SaleTotals struct {
	Subtotal   decimal.Decimal
	VATAmount  decimal.Decimal
	GrandTotal decimal.Decimal
}

// Summary holds every derived value of a record. It is recomputed on every read.
type Summary struct {
	CostBreakdown
	SaleTotals

	VATApplicable bool
	NetProfit     decimal.Decimal
	PaidAmount    decimal.Decimal
	BalanceDue    decimal.Decimal
	Currency      string
}

// RecomputeEvent is emitted whenever reconciliation overwrote a stored net profit.
type RecomputeEvent struct {
	RecordID     string
	Previous     decimal.Decimal
	Current      decimal.Decimal
	Persisted    bool
	PersistError error
	At           time.Time
}
