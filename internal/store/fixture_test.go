package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdoc/pkg/models"
)

const sampleFixture = `
records:
  po-1:
    customId: PO-2025-001
    kind: purchase_order
    clientId: client-1
    clientName: Acme Trading
    currency: AED
    status: partially_paid
    createdAt: "2025-03-04"
    netProfit: 1
    additionalShippingCost: 20
    additionalPrintingCost: "10"
    items:
      - name: Ceramic mug
        orderQuantity: 10
        unitCost: 5
        printingCost: 1
        shippingCost: 0.5
        price: 100
        quantity: 2
        imageUrl: https://cdn.example.com/mug.jpg
        supplierName: Mugs LLC
  inv-9:
    kind: invoice
    currency: US
clients:
  client-1:
    name: Acme Trading
    country: United Arab Emirates
    trnNumber: "100200300"
companyProfiles:
  - name: Fortune Gifts Qatar
    country: Qatar
    crNumber: CR-1
    bankDetails:
      bankName: Doha Bank
      iban: QA00 0001
`

func TestParseFixture(t *testing.T) {
	s, err := ParseFixture([]byte(sampleFixture))
	require.NoError(t, err)
	ctx := context.Background()

	record, err := s.GetRecord(ctx, "po-1")
	require.NoError(t, err)
	assert.Equal(t, "PO-2025-001", record.CustomID)
	assert.Equal(t, models.KindPurchaseOrder, record.Kind)
	assert.Equal(t, models.StatusPartiallyPaid, record.Status)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), record.CreatedAt.UTC())
	assert.Equal(t, "10", record.AdditionalPrintingCost.String())
	require.Len(t, record.Items, 1)
	assert.Equal(t, "10", record.Items[0].EffectiveOrderQuantity().String())
	assert.Equal(t, "Mugs LLC", record.Items[0].SupplierName)

	invoice, err := s.GetRecord(ctx, "inv-9")
	require.NoError(t, err)
	assert.Equal(t, models.KindInvoice, invoice.Kind)
	assert.Empty(t, invoice.Items)

	client, err := s.GetClient(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "100200300", client.TRN)

	assert.Equal(t, []string{"inv-9", "po-1"}, s.RecordIDs())
}

func TestFixtureStore_NotFound(t *testing.T) {
	s, err := ParseFixture([]byte(sampleFixture))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.GetRecord(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetClient(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.UpdateRecord(ctx, "missing", map[string]any{"netProfit": 1.0}), ErrNotFound)
}

func TestFixtureStore_FindCompanyProfile(t *testing.T) {
	s, err := ParseFixture([]byte(sampleFixture))
	require.NoError(t, err)
	ctx := context.Background()

	p, err := s.FindCompanyProfile(ctx, "qatar")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Fortune Gifts Qatar", p.Name)
	assert.Equal(t, "Doha Bank", p.Bank.BankName)

	p, err = s.FindCompanyProfile(ctx, "United Arab Emirates")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFixtureStore_UpdateRecordPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgerdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFixture), 0o644))

	s, err := LoadFixture(path)
	require.NoError(t, err)
	ctx := context.Background()

	updatedAt := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateRecord(ctx, "po-1", map[string]any{
		"netProfit": 115.0,
		"updatedAt": updatedAt,
	}))

	reloaded, err := LoadFixture(path)
	require.NoError(t, err)
	record, err := reloaded.GetRecord(ctx, "po-1")
	require.NoError(t, err)
	assert.Equal(t, "115", record.NetProfit.String())
	assert.True(t, updatedAt.Equal(record.UpdatedAt))
	assert.Equal(t, "Ceramic mug", record.Items[0].Name, "untouched fields survive the rewrite")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFixtureStore_FailedWriteKeepsMemoryUnchanged(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.Mkdir(dir, 0o755))
	path := filepath.Join(dir, "ledgerdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFixture), 0o644))

	s, err := LoadFixture(path)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))
	ctx := context.Background()

	err = s.UpdateRecord(ctx, "po-1", map[string]any{"netProfit": 115.0})
	require.Error(t, err)

	record, err := s.GetRecord(ctx, "po-1")
	require.NoError(t, err)
	assert.Equal(t, "1", record.NetProfit.String(), "stored value still matches the file")
}

func TestLoadFixture_Errors(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = ParseFixture([]byte("records: [unterminated"))
	assert.ErrorIs(t, err, ErrInvalidFixture)
}
