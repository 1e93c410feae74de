package money_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"ledgerdoc/internal/money"
)

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		name string
		code any
		want string
	}{
		{name: "valid upper", code: "AED", want: "AED"},
		{name: "valid lower", code: "qar", want: "QAR"},
		{name: "too short", code: "US", want: "USD"},
		{name: "too long", code: "USDT", want: "USD"},
		{name: "digits", code: "U5D", want: "USD"},
		{name: "nil", code: nil, want: "USD"},
		{name: "non string", code: 840, want: "USD"},
		{name: "empty", code: "", want: "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, money.NormalizeCurrency(tt.code))
		})
	}
}

func TestFormatAmount_FallsBackToUSD(t *testing.T) {
	ten := decimal.NewFromInt(10)

	assert.NotPanics(t, func() {
		assert.Equal(t, "USD 10.00", money.FormatAmount(ten, "US"))
		assert.Equal(t, "USD 10.00", money.FormatAmount(ten, nil))
	})
}

func TestFormatAmount_UnknownCodeRetriesWithUSD(t *testing.T) {
	out, err := money.FormatAmountE(decimal.NewFromInt(10), "ZZZ")

	assert.NoError(t, err)
	assert.Equal(t, "USD 10.00", out)
}

func TestFormatAmount_GroupingAndRounding(t *testing.T) {
	assert.Equal(t, "AED 1,234.50", money.FormatAmount(decimal.RequireFromString("1234.5"), "AED"))
	assert.Equal(t, "QAR 0.01", money.FormatAmount(decimal.RequireFromString("0.005"), "QAR"))
	assert.Equal(t, "USD 200.00", money.FormatFloat(200, "usd"))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, time.March, 4, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, "4 March 2025", money.FormatDate(d))
	assert.Equal(t, "4 March 2025", money.FormatDate(&d))
	assert.Equal(t, "4 March 2025", money.FormatDate("2025-03-04"))
	assert.Equal(t, "", money.FormatDate(""))
	assert.Equal(t, "", money.FormatDate(nil))
	assert.Equal(t, "", money.FormatDate(time.Time{}))
	assert.Equal(t, "", money.FormatDate("soon"))

	var nilTime *time.Time
	assert.Equal(t, "", money.FormatDate(nilTime))
}
