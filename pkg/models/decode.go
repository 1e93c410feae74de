package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Stored documents are loosely typed (numbers saved as strings, missing fields, mixed date encodings).
// The helpers below never fail: anything that cannot be coerced becomes the zero value.

// RecordFromMap builds a Record from a stored document.
func RecordFromMap(id string, data map[string]any) *Record {
	r := &Record{
		ID:                     id,
		CustomID:               str(data, "customId"),
		Kind:                   ParseDocumentKind(str(data, "kind", "type", "documentType")),
		ClientID:               str(data, "clientId"),
		ClientName:             str(data, "clientName"),
		Currency:               strings.TrimSpace(str(data, "currency")),
		AdditionalShippingCost: Decimal(data["additionalShippingCost"]),
		AdditionalPrintingCost: Decimal(data["additionalPrintingCost"]),
		NetProfit:              Decimal(data["netProfit"]),
		PaidAmount:             Decimal(data["paidAmount"]),
		Status:                 ParseStatus(str(data, "status")),
		CreatedAt:              Time(data["createdAt"]),
		PaymentDue:             Time(data["paymentDue"]),
		DeliveryDate:           Time(data["deliveryDate"]),
		UpdatedAt:              Time(data["updatedAt"]),
		TermsAndConditions:     str(data, "termsAndConditions", "terms"),
	}
	if r.ID == "" {
		r.ID = str(data, "id")
	}

	if raw, ok := data["items"]; ok && raw != nil {
		if list, err := cast.ToSliceE(raw); err == nil {
			r.Items = make([]LineItem, 0, len(list))
			for _, entry := range list {
				fields, err := cast.ToStringMapE(entry)
				if err != nil {
					continue
				}
				r.Items = append(r.Items, LineItemFromMap(fields))
			}
		}
	}
	if r.Items == nil {
		r.Items = []LineItem{}
	}

	return r
}

// LineItemFromMap builds a LineItem from a stored item entry.
func LineItemFromMap(data map[string]any) LineItem {
	item := LineItem{
		ID:           str(data, "id", "itemId"),
		Name:         str(data, "name", "productName"),
		Description:  str(data, "description"),
		Quantity:     Decimal(data["quantity"]),
		UnitCost:     Decimal(data["unitCost"]),
		PrintingCost: Decimal(data["printingCost"]),
		ShippingCost: Decimal(data["shippingCost"]),
		Price:        Decimal(data["price"]),
		ImageURL:     strings.TrimSpace(str(data, "imageUrl", "imageURL", "image")),
		SupplierName: str(data, "supplierName", "supplier"),
	}
	if raw, ok := data["orderQuantity"]; ok {
		if d, ok := decimalOK(raw); ok {
			item.OrderQuantity = decimal.NullDecimal{Decimal: d, Valid: true}
		}
	}
	return item
}

// ClientFromMap builds a Client from a stored document.
func ClientFromMap(id string, data map[string]any) *Client {
	return &Client{
		ID:      id,
		Name:    str(data, "name", "clientName"),
		Address: str(data, "address"),
		Phone:   str(data, "phone"),
		Email:   str(data, "email"),
		Country: str(data, "country"),
		TRN:     str(data, "trn", "trnNumber"),
	}
}

// CompanyProfileFromMap builds a CompanyProfile from a stored document.
func CompanyProfileFromMap(data map[string]any) *CompanyProfile {
	profile := &CompanyProfile{
		Name:      str(data, "name", "companyName"),
		Address:   str(data, "address"),
		Phone:     str(data, "phone"),
		Email:     str(data, "email"),
		Country:   str(data, "country"),
		VATNumber: str(data, "vatNumber"),
		CRNumber:  str(data, "crNumber"),
	}
	if bank, err := cast.ToStringMapE(data["bankDetails"]); err == nil {
		profile.Bank = BankDetails{
			BankName:      str(bank, "bankName"),
			AccountName:   str(bank, "accountName"),
			AccountNumber: str(bank, "accountNumber"),
			IBAN:          str(bank, "iban"),
			SWIFT:         str(bank, "swift", "swiftCode"),
		}
	}
	return profile
}

// Decimal coerces a stored numeric value. Absent or non-numeric input yields zero.
func Decimal(v any) decimal.Decimal {
	d, _ := decimalOK(v)
	return d
}

func decimalOK(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return n, true
	case bool:
		return decimal.Zero, false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Time coerces a stored date. Supports time.Time, strings, unix seconds and {seconds: n} maps.
func Time(v any) time.Time {
	if v == nil {
		return time.Time{}
	}
	if m, err := cast.ToStringMapE(v); err == nil {
		for _, key := range []string{"seconds", "_seconds"} {
			if secs, err := cast.ToInt64E(m[key]); err == nil && secs != 0 {
				return time.Unix(secs, 0).UTC()
			}
		}
		return time.Time{}
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// str returns the first non-empty string among keys.
func str(data map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := data[key]
		if !ok || v == nil {
			continue
		}
		if s, err := cast.ToStringE(v); err == nil && s != "" {
			return s
		}
	}
	return ""
}
