package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdoc/internal/rollup"
	"ledgerdoc/pkg/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-dEf_123/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-dEf_123", id)

	_, err = extractSpreadsheetID("https://example.com/not-a-sheet")
	assert.Error(t, err)
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", columnLetter(1))
	assert.Equal(t, "Z", columnLetter(26))
	assert.Equal(t, "AA", columnLetter(27))
	assert.Equal(t, "R", columnLetter(len(Headers)))
	assert.Equal(t, "A:R", columnRange(len(Headers)))
}

func TestRowValues(t *testing.T) {
	record := &models.Record{
		ID:         "po-1",
		CustomID:   "PO-1",
		Kind:       models.KindPurchaseOrder,
		ClientName: "Stored",
		Currency:   "aed",
		Status:     models.StatusPaid,
		Items: []models.LineItem{{
			Price:    decimal.NewFromInt(100),
			Quantity: decimal.NewFromInt(2),
		}},
	}
	client := &models.Client{Name: "Acme", Country: "UAE"}
	at := time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)

	row := rowValues(RollupResult{Record: record, Client: client, Summary: rollup.Summarize(record, client)}, at)

	require.Len(t, row, len(Headers))
	assert.Equal(t, []interface{}{
		"po-1", "PO-1", "PurchaseOrder", "Acme", "UAE", "AED",
		"0.00", "0.00", "0.00", "0.00",
		"200.00", "10.00", "210.00", "0.00", "210.00", "210.00",
		"Paid", "2025-03-04 09:30:00",
	}, row)
}
