package rollup

import (
	"strings"

	"github.com/shopspring/decimal"

	"ledgerdoc/pkg/models"
)

// IsUAECountry reports whether a free-text country names the United Arab Emirates.
func IsUAECountry(country string) bool {
	c := strings.ToLower(country)
	return strings.Contains(c, "emirates") || strings.Contains(c, "uae")
}

// IsVATApplicable reports whether sales to client carry VAT.
func IsVATApplicable(client *models.Client) bool {
	if client == nil {
		return false
	}
	return IsUAECountry(client.Country)
}

// TaxLabelFor returns the tax-id label printed in the document header.
func TaxLabelFor(country string) string {
	if IsUAECountry(country) {
		return "TRN"
	}
	return "CR"
}

// CostSubtotal is Σ(orderQuantity × unitCost).
func CostSubtotal(items []models.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.EffectiveOrderQuantity().Mul(item.UnitCost))
	}
	return total
}

// ComputeCostBreakdown aggregates per-unit costs by order quantity and adds the lump-sum costs.
// The additional costs apply even when there are no items.
func ComputeCostBreakdown(items []models.LineItem, additionalShipping, additionalPrinting decimal.Decimal) CostBreakdown {
	printing := decimal.Zero
	shipping := decimal.Zero
	for _, item := range items {
		qty := item.EffectiveOrderQuantity()
		printing = printing.Add(qty.Mul(item.PrintingCost))
		shipping = shipping.Add(qty.Mul(item.ShippingCost))
	}

	b := CostBreakdown{
		ItemCost:     CostSubtotal(items),
		PrintingCost: printing.Add(additionalPrinting),
		ShippingCost: shipping.Add(additionalShipping),
	}
	b.NetTotalCost = b.ItemCost.Add(b.PrintingCost).Add(b.ShippingCost)
	return b
}

// ComputeSaleTotals is Σ(price × quantity) plus VAT when applicable.
func ComputeSaleTotals(items []models.LineItem, vatApplicable bool) SaleTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(item.Quantity))
	}

	vat := decimal.Zero
	if vatApplicable {
		vat = subtotal.Mul(VATRate)
	}

	return SaleTotals{
		Subtotal:   subtotal,
		VATAmount:  vat,
		GrandTotal: subtotal.Add(vat),
	}
}

// RoundHalfUp rounds v to ProfitPlaces with ties going towards positive infinity,
// so -0.005 becomes 0.00 and 0.005 becomes 0.01.
func RoundHalfUp(v decimal.Decimal) decimal.Decimal {
	return v.Shift(ProfitPlaces).Add(half).Floor().Shift(-ProfitPlaces)
}

var half = decimal.New(5, -1)

// ComputeNetProfit is grand total minus net total cost, rounded to 2 places only at the end.
func ComputeNetProfit(record *models.Record, client *models.Client) decimal.Decimal {
	if record == nil {
		return decimal.Zero
	}
	sale := ComputeSaleTotals(record.Items, IsVATApplicable(client))
	cost := ComputeCostBreakdown(record.Items, record.AdditionalShippingCost, record.AdditionalPrintingCost)
	return RoundHalfUp(sale.GrandTotal.Sub(cost.NetTotalCost))
}

// Summarize computes every derived value of record for display.
func Summarize(record *models.Record, client *models.Client) Summary {
	if record == nil {
		return Summary{}
	}
	vat := IsVATApplicable(client)
	sale := ComputeSaleTotals(record.Items, vat)
	cost := ComputeCostBreakdown(record.Items, record.AdditionalShippingCost, record.AdditionalPrintingCost)

	return Summary{
		CostBreakdown: cost,
		SaleTotals:    sale,
		VATApplicable: vat,
		NetProfit:     RoundHalfUp(sale.GrandTotal.Sub(cost.NetTotalCost)),
		PaidAmount:    record.PaidAmount,
		BalanceDue:    sale.GrandTotal.Sub(record.PaidAmount),
		Currency:      record.Currency,
	}
}
