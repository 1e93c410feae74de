package models

// Client is the bill-to party of a record.
type Client struct {
	ID      string
	Name    string
	Address string
	Phone   string
	Email   string
	Country string // Free text; VAT applicability is derived from it
	TRN     string // Tax registration number (UAE only)
}

// BankDetails are printed on the cost-analysis page.
type BankDetails struct {
	BankName      string
	AccountName   string
	AccountNumber string
	IBAN          string
	SWIFT         string
}

// CompanyProfile is the issuing company shown in the document header.
type CompanyProfile struct {
	Name      string
	Address   string
	Phone     string
	Email     string
	Country   string
	VATNumber string
	CRNumber  string
	Bank      BankDetails
}
