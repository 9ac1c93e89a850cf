package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dgitools/internal/config"
	"dgitools/internal/declaration"
	"dgitools/internal/logger"
	"dgitools/internal/penalty"
	"dgitools/pkg/models"
)

var declareCmd = &cobra.Command{
	Use:   "declare",
	Short: "Build a DGI payment-delay declaration from CSV files",
	Long: `Read matched invoice rows (and optionally payment rows) from CSV files,
compute the legal result for every invoice, and write the DGI
payment-delay declaration as CSV: identification header, summary totals
and per-invoice detail lines.

Invoice CSV columns (header row required): invoice_number, supplier,
supplier_ice, issue_date, delivery_date, service_completion_date,
amount_ttc, contractual_delay_days, disputed, credit_note, procedure_690.

Payment CSV columns: invoice_number, payment_date, amount.`,
	Example: `  # Annual declaration
  dgitools declare --invoices invoices.csv --payments payments.csv \
      --company "ACME SARL" --ice 001234567000089 --rc 12345 \
      --year 2023 -o declaration-2023.csv

  # Monthly declaration with a fixed evaluation date
  dgitools declare --invoices invoices.csv --year 2023 --month 11 \
      --as-of 2023-12-01 -o declaration.csv`,
	RunE: runDeclare,
}

func init() {
	rootCmd.AddCommand(declareCmd)

	declareCmd.Flags().String("invoices", "", "Invoices CSV file (required)")
	declareCmd.Flags().String("payments", "", "Payments CSV file (optional)")
	declareCmd.Flags().StringP("output", "o", "declaration.csv", "Output CSV file")
	declareCmd.Flags().String("company", "", "Declaring company name")
	declareCmd.Flags().String("ice", "", "Company ICE")
	declareCmd.Flags().String("rc", "", "Company RC number")
	declareCmd.Flags().String("sector", "", "Activity sector (optional)")
	declareCmd.Flags().Int("year", 0, "Declaration year (required)")
	declareCmd.Flags().Int("month", 0, "Declaration month (0 = annual)")
	declareCmd.Flags().String("as-of", "", "Evaluation date for unpaid invoices (YYYY-MM-DD, default: today)")

	declareCmd.MarkFlagRequired("invoices")
	declareCmd.MarkFlagRequired("year")
}

func runDeclare(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("declare")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	invoicesPath, _ := cmd.Flags().GetString("invoices")
	paymentsPath, _ := cmd.Flags().GetString("payments")
	outputPath, _ := cmd.Flags().GetString("output")
	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")

	company := declaration.Company{}
	company.Name, _ = cmd.Flags().GetString("company")
	company.ICE, _ = cmd.Flags().GetString("ice")
	company.RC, _ = cmd.Flags().GetString("rc")
	company.ActivitySector, _ = cmd.Flags().GetString("sector")

	asOf := time.Now()
	if asOfStr, _ := cmd.Flags().GetString("as-of"); asOfStr != "" {
		asOf, err = time.Parse("2006-01-02", asOfStr)
		if err != nil {
			return fmt.Errorf("invalid as-of date format. Use YYYY-MM-DD: %w", err)
		}
	}
	if month < 0 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12 (or 0 for annual)")
	}

	log.Info().
		Str("invoices", invoicesPath).
		Str("payments", paymentsPath).
		Int("year", year).
		Int("month", month).
		Str("as_of", asOf.Format("2006-01-02")).
		Msg("Building DGI declaration")

	reader := declaration.NewReader()
	invoices, err := reader.ReadInvoices(invoicesPath)
	if err != nil {
		return fmt.Errorf("failed to read invoices: %w", err)
	}

	var payments []models.Payment
	if paymentsPath != "" {
		if payments, err = reader.ReadPayments(paymentsPath); err != nil {
			return fmt.Errorf("failed to read payments: %w", err)
		}
	}
	paymentsByInvoice := declaration.PaymentsByInvoice(payments)

	engine := penalty.New(cfg.GetPenaltyConfig())
	entries := make([]declaration.Entry, 0, len(invoices))
	failed := 0
	for _, inv := range invoices {
		invPayments := paymentsByInvoice[inv.InvoiceNumber]
		result, err := computeInvoice(engine, inv, invPayments, asOf)
		if err != nil {
			// A row with unusable data must not sink the whole
			// declaration; it is reported and skipped.
			log.Error().
				Err(err).
				Str("invoice", inv.InvoiceNumber).
				Msg("Skipping invoice: computation failed")
			failed++
			continue
		}
		entries = append(entries, declaration.Entry{
			Invoice:  inv,
			Payments: invPayments,
			Result:   result,
		})
	}

	decl := declaration.Build(company, year, month, time.Now(), entries)
	if err := declaration.NewWriter().WriteFile(decl, outputPath); err != nil {
		return fmt.Errorf("failed to write declaration: %w", err)
	}

	log.Info().
		Int("declared", len(entries)).
		Int("failed", failed).
		Str("total_penalty", decl.TotalPenalty.StringFixed(2)).
		Str("total_suspended", decl.TotalPenaltySuspended.StringFixed(2)).
		Str("output", outputPath).
		Msg("Declaration complete")

	fmt.Printf("Declaration written to %s (%d invoices, %d skipped)\n", outputPath, len(entries), failed)
	return nil
}

// computeInvoice maps an invoice row and its matched payments onto the
// engine input and runs the legal computation.
func computeInvoice(engine *penalty.Engine, inv models.Invoice, payments []models.Payment, asOf time.Time) (*penalty.Result, error) {
	totalPaid, lastPayment := models.TotalPaid(payments)

	return engine.Compute(penalty.Input{
		InvoiceID:             inv.ID,
		DeliveryDate:          inv.DeliveryDate,
		ServiceCompletionDate: inv.ServiceCompletionDate,
		AmountTTC:             inv.AmountTTC,
		PaymentDate:           lastPayment,
		AmountPaid:            totalPaid,
		ContractualDelayDays:  inv.ContractualDelayDays,
		IsDisputed:            inv.IsDisputed,
		IsCreditNote:          inv.IsCreditNote,
		IsProcedure690:        inv.IsProcedure690,
		EvaluationDate:        asOf,
	})
}
