package models_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdoc/pkg/models"
)

func TestRecordFromMap(t *testing.T) {
	created := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	data := map[string]any{
		"customId":               "PO-1001",
		"kind":                   "invoice",
		"clientId":               "c-1",
		"currency":               "AED",
		"additionalShippingCost": "20",
		"additionalPrintingCost": 10,
		"netProfit":              12.5,
		"status":                 "PARTIALLY_PAID",
		"createdAt":              created,
		"paymentDue":             "2025-04-01",
		"items": []any{
			map[string]any{"name": "Mug", "orderQuantity": 10, "unitCost": "5", "printingCost": 1, "shippingCost": 0.5},
			map[string]any{"name": "Pen", "quantity": 3, "price": "abc"},
		},
	}

	r := models.RecordFromMap("rec-1", data)

	assert.Equal(t, "rec-1", r.ID)
	assert.Equal(t, "PO-1001", r.DocumentNumber())
	assert.Equal(t, models.KindInvoice, r.Kind)
	assert.Equal(t, models.StatusPartiallyPaid, r.Status)
	assert.True(t, r.AdditionalShippingCost.Equal(decimal.NewFromInt(20)))
	assert.True(t, r.AdditionalPrintingCost.Equal(decimal.NewFromInt(10)))
	assert.True(t, r.NetProfit.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, created, r.CreatedAt)
	assert.Equal(t, 2025, r.PaymentDue.Year())
	assert.Equal(t, "Invoice_PO-1001.pdf", r.FileName())

	require.Len(t, r.Items, 2)
	assert.True(t, r.Items[0].EffectiveOrderQuantity().Equal(decimal.NewFromInt(10)))
	assert.True(t, r.Items[0].ShippingCost.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, r.Items[1].Price.IsZero(), "non-numeric price defaults to zero")
	assert.False(t, r.Items[1].OrderQuantity.Valid)
	assert.True(t, r.Items[1].EffectiveOrderQuantity().Equal(decimal.NewFromInt(3)), "falls back to quantity")
}

func TestRecordFromMap_MissingItems(t *testing.T) {
	r := models.RecordFromMap("rec-2", map[string]any{"status": "unknown"})

	assert.NotNil(t, r.Items)
	assert.Empty(t, r.Items)
	assert.Equal(t, models.StatusDraft, r.Status)
	assert.Equal(t, models.KindPurchaseOrder, r.Kind)
	assert.Equal(t, "PurchaseOrder_rec-2.pdf", r.FileName())
}

func TestClientFromMap_TRNAliases(t *testing.T) {
	c := models.ClientFromMap("c-1", map[string]any{"name": "Acme", "country": "UAE", "trnNumber": "100200"})
	assert.Equal(t, "100200", c.TRN)

	c = models.ClientFromMap("c-2", map[string]any{"trn": "42", "trnNumber": "43"})
	assert.Equal(t, "42", c.TRN)
}

func TestCompanyProfileFromMap(t *testing.T) {
	p := models.CompanyProfileFromMap(map[string]any{
		"name": "Fortune Gifts Qatar",
		"bankDetails": map[string]any{
			"bankName": "QNB",
			"iban":     "QA00QNBA",
		},
	})

	assert.Equal(t, "Fortune Gifts Qatar", p.Name)
	assert.Equal(t, "QNB", p.Bank.BankName)
	assert.Equal(t, "QA00QNBA", p.Bank.IBAN)
}

func TestTime(t *testing.T) {
	assert.True(t, models.Time(nil).IsZero())
	assert.True(t, models.Time("not a date").IsZero())
	assert.Equal(t, int64(1700000000), models.Time(map[string]any{"seconds": 1700000000}).Unix())
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Partially Paid", models.StatusPartiallyPaid.Label())
	assert.Equal(t, "Draft", models.ParseStatus("").Label())
}

func TestRecordFileName_SanitizesDocumentNumber(t *testing.T) {
	tests := []struct {
		name   string
		record models.Record
		want   string
	}{
		{name: "slashes", record: models.Record{ID: "abc", CustomID: "PO/2025/001"}, want: "PurchaseOrder_PO-2025-001.pdf"},
		{name: "backslash and colon", record: models.Record{ID: "abc", Kind: models.KindInvoice, CustomID: `INV\7:1`}, want: "Invoice_INV-7-1.pdf"},
		{name: "dots only falls back to id", record: models.Record{ID: "abc", CustomID: ".."}, want: "PurchaseOrder_abc.pdf"},
		{name: "nothing usable", record: models.Record{CustomID: "  "}, want: "PurchaseOrder_document.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := tt.record
			if record.Kind == "" {
				record.Kind = models.KindPurchaseOrder
			}
			assert.Equal(t, tt.want, record.FileName())
		})
	}
}

func TestLineItemKey_UniqueForRepeatedIDs(t *testing.T) {
	a := models.LineItem{ID: "sku-1"}
	b := models.LineItem{ID: "sku-1"}

	assert.NotEqual(t, a.Key(0), b.Key(1))
	assert.Equal(t, "item-3", models.LineItem{}.Key(3))
}
