package compose

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ledgerdoc/internal/imaging"
	"ledgerdoc/internal/money"
	"ledgerdoc/internal/paginate"
	"ledgerdoc/internal/rollup"
	"ledgerdoc/pkg/models"
)

// NoSupplier is printed on the appendix for items without a supplier.
const NoSupplier = "-"

// Input is everything needed to compose one page.
type Input struct {
	Record     *models.Record
	Client     *models.Client
	Profile    *models.CompanyProfile
	Descriptor paginate.Page
	TotalPages int
	Images     map[string]*imaging.TranscodedImage // keyed by item identity
}

// Composer builds page content.
type Composer struct {
	// FooterFormat receives the page number and the total page count.
	FooterFormat string
}

// NewComposer creates a composer with the default "Page x of y" footer.
func NewComposer() *Composer {
	return &Composer{FooterFormat: "Page %d of %d"}
}

// Compose builds the page described by in.Descriptor. A nil client or profile renders empty blocks.
func (c *Composer) Compose(in Input) (*Page, error) {
	if in.Record == nil {
		return nil, ErrMissingRecord
	}
	if in.Descriptor.Index <= 0 {
		return nil, ErrInvalidPage
	}

	total := in.TotalPages
	if total < in.Descriptor.Index {
		total = in.Descriptor.Index
	}

	page := &Page{
		Number:     in.Descriptor.Index,
		TotalPages: total,
		Header:     composeHeader(in.Profile, in.Client),
		BillTo:     composeBillTo(in.Record, in.Client),
		Meta:       composeMeta(in.Record),
	}
	if c.FooterFormat != "" {
		page.Footer = fmt.Sprintf(c.FooterFormat, page.Number, page.TotalPages)
	}

	switch {
	case in.Descriptor.IsAppendix:
		page.Kind = KindSupplierAppendix
		page.Appendix = make([]SupplierRow, 0, len(in.Descriptor.Entries))
		for _, e := range in.Descriptor.Entries {
			page.Appendix = append(page.Appendix, SupplierRow{
				Supplier: supplierName(e.Item),
				Card:     composeCard(e, in.Record.Currency, in.Images),
			})
		}
	case in.Descriptor.IsFirstPage:
		page.Kind = KindCostAnalysis
		page.CostAnalysis = composeCostAnalysis(in.Record, in.Client, in.Profile)
	default:
		page.Kind = KindItemGrid
		page.Items = make([]ItemCard, 0, len(in.Descriptor.Entries))
		for _, e := range in.Descriptor.Entries {
			page.Items = append(page.Items, composeCard(e, in.Record.Currency, in.Images))
		}
	}

	return page, nil
}

func composeHeader(profile *models.CompanyProfile, client *models.Client) Header {
	country := ""
	if client != nil {
		country = client.Country
	}
	h := Header{TaxLabel: rollup.TaxLabelFor(country)}
	if profile == nil {
		return h
	}

	h.CompanyName = profile.Name
	h.Address = profile.Address
	h.Phone = profile.Phone
	h.Email = profile.Email
	if h.TaxLabel == "TRN" {
		h.TaxNumber = profile.VATNumber
	} else {
		h.TaxNumber = profile.CRNumber
	}
	return h
}

func composeBillTo(record *models.Record, client *models.Client) BillTo {
	if client == nil {
		return BillTo{Name: record.ClientName}
	}

	b := BillTo{
		Name:    client.Name,
		Address: client.Address,
		Phone:   client.Phone,
		Email:   client.Email,
		Country: client.Country,
	}
	if b.Name == "" {
		b.Name = record.ClientName
	}
	if rollup.IsUAECountry(client.Country) {
		b.TRN = client.TRN
	}
	return b
}

func composeMeta(record *models.Record) Meta {
	return Meta{
		Title:        record.Kind.Title(),
		Number:       record.DocumentNumber(),
		CreatedAt:    money.FormatDate(record.CreatedAt),
		PaymentDue:   money.FormatDate(record.PaymentDue),
		DeliveryDate: money.FormatDate(record.DeliveryDate),
		Status:       models.ParseStatus(string(record.Status)).Label(),
	}
}

func composeCostAnalysis(record *models.Record, client *models.Client, profile *models.CompanyProfile) *CostAnalysisBlock {
	s := rollup.Summarize(record, client)
	amount := func(v decimal.Decimal) string {
		return money.FormatAmount(v, record.Currency)
	}

	rows := []Row{
		{Label: "Item Cost", Value: amount(s.ItemCost)},
		{Label: "Printing Cost", Value: amount(s.PrintingCost)},
		{Label: "Shipping Cost", Value: amount(s.ShippingCost)},
		{Label: "Net Total Cost", Value: amount(s.NetTotalCost)},
		{Label: "Subtotal", Value: amount(s.Subtotal)},
	}
	if s.VATApplicable {
		rows = append(rows, Row{Label: "VAT (5%)", Value: amount(s.VATAmount)})
	}
	rows = append(rows,
		Row{Label: "Grand Total", Value: amount(s.GrandTotal)},
		Row{Label: "Paid Amount", Value: amount(s.PaidAmount)},
		Row{Label: "Balance Due", Value: amount(s.BalanceDue)},
		Row{Label: "Net Profit", Value: amount(s.NetProfit)},
	)

	block := &CostAnalysisBlock{
		Rows:               rows,
		TermsAndConditions: record.TermsAndConditions,
	}
	if profile != nil {
		block.Bank = bankRows(profile.Bank)
	}
	return block
}

func bankRows(bank models.BankDetails) []Row {
	var rows []Row
	for _, r := range []Row{
		{Label: "Bank", Value: bank.BankName},
		{Label: "Account Name", Value: bank.AccountName},
		{Label: "Account Number", Value: bank.AccountNumber},
		{Label: "IBAN", Value: bank.IBAN},
		{Label: "SWIFT", Value: bank.SWIFT},
	} {
		if r.Value != "" {
			rows = append(rows, r)
		}
	}
	return rows
}

func composeCard(e paginate.Entry, currency string, images map[string]*imaging.TranscodedImage) ItemCard {
	item := e.Item
	qty := item.EffectiveOrderQuantity()
	perUnit := item.UnitCost.Add(item.PrintingCost).Add(item.ShippingCost)

	key := e.Key()
	return ItemCard{
		Key:           key,
		Name:          item.Name,
		Description:   item.Description,
		Image:         images[key],
		OrderQuantity: qty.String(),
		UnitCost:      money.FormatAmount(item.UnitCost, currency),
		PrintingCost:  money.FormatAmount(item.PrintingCost, currency),
		ShippingCost:  money.FormatAmount(item.ShippingCost, currency),
		TotalCost:     money.FormatAmount(qty.Mul(perUnit), currency),
	}
}

func supplierName(item models.LineItem) string {
	if item.SupplierName == "" {
		return NoSupplier
	}
	return item.SupplierName
}
