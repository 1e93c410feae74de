package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ledgerdoc/internal/config"
	"ledgerdoc/internal/logger"
	"ledgerdoc/internal/money"
	"ledgerdoc/internal/rollup"
	"ledgerdoc/internal/sheets"
	"ledgerdoc/pkg/models"
)

var rollupCmd = &cobra.Command{
	Use:   "rollup [record-id...]",
	Short: "Show the computed financial summary of records",
	Long: `Compute the cost breakdown, sale totals, VAT and net profit of one or more
records. Nothing is written back to the store; use "reconcile" for that.

With --sheet the summaries are appended to the worksheet configured by
GOOGLE_SHEET_WORKSHEET of the spreadsheet at GOOGLE_SHEET_URL.`,
	Example: `  # Print the summary of one record
  ledgerdoc rollup po-1001

  # Machine-readable output for several records
  ledgerdoc rollup po-1001 inv-2002 --json

  # Publish summaries to Google Sheets
  ledgerdoc rollup po-1001 inv-2002 --sheet`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRollup,
}

func init() {
	rootCmd.AddCommand(rollupCmd)

	rollupCmd.Flags().Bool("json", false, "Print summaries as JSON")
	rollupCmd.Flags().Bool("sheet", false, "Append summaries to the configured Google Sheet")
	rollupCmd.Flags().Int("timeout", 60, "Timeout in seconds")
}

// rollupView is the JSON shape of one summary; amounts are fixed-point strings.
type rollupView struct {
	RecordID      string `json:"recordId"`
	Number        string `json:"number"`
	Kind          string `json:"kind"`
	Client        string `json:"client"`
	Currency      string `json:"currency"`
	ItemCost      string `json:"itemCost"`
	PrintingCost  string `json:"printingCost"`
	ShippingCost  string `json:"shippingCost"`
	NetTotalCost  string `json:"netTotalCost"`
	Subtotal      string `json:"subtotal"`
	VATApplicable bool   `json:"vatApplicable"`
	VATAmount     string `json:"vatAmount"`
	GrandTotal    string `json:"grandTotal"`
	PaidAmount    string `json:"paidAmount"`
	BalanceDue    string `json:"balanceDue"`
	NetProfit     string `json:"netProfit"`
	StoredProfit  string `json:"storedNetProfit"`
}

func runRollup(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("rollup")

	asJSON, _ := cmd.Flags().GetBool("json")
	toSheet, _ := cmd.Flags().GetBool("sheet")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	if timeoutSecs <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if toSheet && cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required for --sheet")
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return handleStoreError(err, log)
	}
	defer func() {
		if err := b.close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close record store")
		}
	}()

	results := make([]sheets.RollupResult, 0, len(args))
	for _, id := range args {
		record, client, err := loadRecordAndClient(ctx, b, id, log)
		if err != nil {
			return fmt.Errorf("failed to load record %s: %w", id, err)
		}
		results = append(results, sheets.RollupResult{
			Record:  record,
			Client:  client,
			Summary: rollup.Summarize(record, client),
		})
	}

	if asJSON {
		if err := printRollupJSON(results); err != nil {
			return err
		}
	} else {
		printRollupTable(results)
	}

	if toSheet {
		sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		if err := sheetsService.WriteRollups(ctx, results, cfg.GoogleSheetWorksheet); err != nil {
			return fmt.Errorf("failed to publish rollups: %w", err)
		}
		log.Info().
			Int("records", len(results)).
			Str("worksheet", cfg.GoogleSheetWorksheet).
			Msg("Rollups published to Google Sheets")
	}

	return nil
}

// loadRecordAndClient loads a record and, when it can, its client.
// A missing client is not an error: the record is then treated as having no country.
func loadRecordAndClient(ctx context.Context, b *backend, id string, log zerolog.Logger) (*models.Record, *models.Client, error) {
	record, err := b.records.GetRecord(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if record.ClientID == "" {
		return record, nil, nil
	}

	client, err := b.clients.GetClient(ctx, record.ClientID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("record_id", record.ID).
			Str("client_id", record.ClientID).
			Msg("Client not available, computing without VAT")
		return record, nil, nil
	}
	return record, client, nil
}

func toRollupView(r sheets.RollupResult) rollupView {
	s := r.Summary
	fixed := func(v decimal.Decimal) string { return v.StringFixed(money.FractionDigits) }

	clientName := r.Record.ClientName
	if r.Client != nil && r.Client.Name != "" {
		clientName = r.Client.Name
	}
	number := r.Record.CustomID
	if number == "" {
		number = r.Record.ID
	}

	return rollupView{
		RecordID:      r.Record.ID,
		Number:        number,
		Kind:          string(r.Record.Kind),
		Client:        clientName,
		Currency:      money.NormalizeCurrency(r.Record.Currency),
		ItemCost:      fixed(s.ItemCost),
		PrintingCost:  fixed(s.PrintingCost),
		ShippingCost:  fixed(s.ShippingCost),
		NetTotalCost:  fixed(s.NetTotalCost),
		Subtotal:      fixed(s.Subtotal),
		VATApplicable: s.VATApplicable,
		VATAmount:     fixed(s.VATAmount),
		GrandTotal:    fixed(s.GrandTotal),
		PaidAmount:    fixed(s.PaidAmount),
		BalanceDue:    fixed(s.BalanceDue),
		NetProfit:     fixed(s.NetProfit),
		StoredProfit:  fixed(r.Record.NetProfit),
	}
}

func printRollupJSON(results []sheets.RollupResult) error {
	views := make([]rollupView, 0, len(results))
	for _, r := range results {
		views = append(views, toRollupView(r))
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if len(views) == 1 {
		return encoder.Encode(views[0])
	}
	return encoder.Encode(views)
}

func printRollupTable(results []sheets.RollupResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		s := r.Summary
		code := r.Record.Currency
		view := toRollupView(r)

		fmt.Fprintf(w, "%s %s (%s)\t\n", view.Kind, view.Number, view.Client)
		fmt.Fprintf(w, "Item Cost\t%s\t\n", money.FormatAmount(s.ItemCost, code))
		fmt.Fprintf(w, "Printing Cost\t%s\t\n", money.FormatAmount(s.PrintingCost, code))
		fmt.Fprintf(w, "Shipping Cost\t%s\t\n", money.FormatAmount(s.ShippingCost, code))
		fmt.Fprintf(w, "Net Total Cost\t%s\t\n", money.FormatAmount(s.NetTotalCost, code))
		fmt.Fprintf(w, "Subtotal\t%s\t\n", money.FormatAmount(s.Subtotal, code))
		if s.VATApplicable {
			fmt.Fprintf(w, "VAT (5%%)\t%s\t\n", money.FormatAmount(s.VATAmount, code))
		}
		fmt.Fprintf(w, "Grand Total\t%s\t\n", money.FormatAmount(s.GrandTotal, code))
		fmt.Fprintf(w, "Paid Amount\t%s\t\n", money.FormatAmount(s.PaidAmount, code))
		fmt.Fprintf(w, "Balance Due\t%s\t\n", money.FormatAmount(s.BalanceDue, code))
		fmt.Fprintf(w, "Net Profit\t%s\t\n", money.FormatAmount(s.NetProfit, code))
		if !rollup.RoundHalfUp(r.Record.NetProfit).Equal(s.NetProfit) {
			fmt.Fprintf(w, "Stored Net Profit\t%s (stale)\t\n", money.FormatAmount(r.Record.NetProfit, code))
		}
	}
	w.Flush()
}
