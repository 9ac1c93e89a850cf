package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"dgitools/internal/config"
	"dgitools/internal/logger"
	"dgitools/internal/penalty"
)

var penaltyCmd = &cobra.Command{
	Use:   "penalty",
	Short: "Compute the legal delay and penalty for a single invoice",
	Long: `Compute the complete legal result for one invoice under Article 78-2/78-3:
anchor date, statutory due date, days and calendar months overdue, tiered
penalty rate and amount, and the suspension status for disputed invoices.

The output is always JSON and includes the full calculation breakdown
(per-month rates and formula strings) for audit display.

Relevant environment variables (all optional):
  PENALTY_BASE_RATE         - Rate for the first month (default 0.03)
  PENALTY_MONTHLY_INCREMENT - Additional rate per month (default 0.0085)
  DEFAULT_DELAY_DAYS        - Legal default delay (default 60)
  LEGAL_MAX_DELAY_DAYS      - Contractual delay ceiling (default 120)
  USE_BUSINESS_CALENDAR     - Shift due dates off weekends/holidays (default true)
  ISLAMIC_HOLIDAYS          - Comma-separated movable holidays (YYYY-MM-DD)`,
	Example: `  # Paid one month late on the default 60-day delay
  dgitools penalty --delivery-date 2023-07-20 --amount-ttc 10000 \
      --payment-date 2023-09-25 --amount-paid 10000

  # Unpaid invoice evaluated as of a fixed date
  dgitools penalty --delivery-date 2023-07-20 --amount-ttc 10000 \
      --as-of 2023-12-01

  # Contractual 120-day term, disputed invoice, result to file
  dgitools penalty --delivery-date 2023-07-20 --amount-ttc 10000 \
      --contractual-delay 120 --disputed -o result.json`,
	RunE: runPenalty,
}

func init() {
	rootCmd.AddCommand(penaltyCmd)

	penaltyCmd.Flags().String("invoice-id", "", "Invoice identifier carried into the result")
	penaltyCmd.Flags().String("delivery-date", "", "Delivery date (YYYY-MM-DD)")
	penaltyCmd.Flags().String("service-completion-date", "", "Service completion date for public-sector works (YYYY-MM-DD)")
	penaltyCmd.Flags().String("amount-ttc", "0", "Invoice total including tax (MAD)")
	penaltyCmd.Flags().String("payment-date", "", "Actual payment date (YYYY-MM-DD, empty if unpaid)")
	penaltyCmd.Flags().String("amount-paid", "0", "Amount settled so far (MAD)")
	penaltyCmd.Flags().Int("contractual-delay", 0, "Contractual payment term in days (0 = legal default)")
	penaltyCmd.Flags().Bool("disputed", false, "Invoice under judicial dispute (suspends the penalty)")
	penaltyCmd.Flags().Bool("credit-note", false, "Invoice is a credit note (avoir)")
	penaltyCmd.Flags().Bool("procedure-690", false, "Supplier under Article 690 procedure")
	penaltyCmd.Flags().String("as-of", "", "Evaluation date for unpaid invoices (YYYY-MM-DD, default: today)")
	penaltyCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runPenalty(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("penalty")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	input, err := penaltyInputFromFlags(cmd)
	if err != nil {
		return err
	}

	log.Info().
		Str("invoice_id", input.InvoiceID).
		Str("amount_ttc", input.AmountTTC.String()).
		Str("evaluation_date", input.EvaluationDate.Format("2006-01-02")).
		Msg("Computing legal result")

	engine := penalty.New(cfg.GetPenaltyConfig())
	result, err := engine.Compute(input)
	if err != nil {
		log.Error().Err(err).Msg("Legal computation failed")
		return err
	}

	log.Info().
		Str("due_date", result.LegalDueDate.Format("2006-01-02")).
		Int("months_of_delay", result.MonthsOfDelay).
		Str("penalty_amount", result.PenaltyAmount.String()).
		Bool("suspended", result.PenaltySuspended).
		Msg("Legal result computed")

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Info().Str("path", outputPath).Msg("Result written")
	return nil
}

func penaltyInputFromFlags(cmd *cobra.Command) (penalty.Input, error) {
	var in penalty.Input

	in.InvoiceID, _ = cmd.Flags().GetString("invoice-id")

	deliveryStr, _ := cmd.Flags().GetString("delivery-date")
	if deliveryStr != "" {
		d, err := time.Parse("2006-01-02", deliveryStr)
		if err != nil {
			return in, fmt.Errorf("invalid delivery date format. Use YYYY-MM-DD: %w", err)
		}
		in.DeliveryDate = d
	}

	completionStr, _ := cmd.Flags().GetString("service-completion-date")
	if completionStr != "" {
		d, err := time.Parse("2006-01-02", completionStr)
		if err != nil {
			return in, fmt.Errorf("invalid service completion date format. Use YYYY-MM-DD: %w", err)
		}
		in.ServiceCompletionDate = &d
	}

	amountStr, _ := cmd.Flags().GetString("amount-ttc")
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return in, fmt.Errorf("invalid amount-ttc: %w", err)
	}
	in.AmountTTC = amount

	paymentStr, _ := cmd.Flags().GetString("payment-date")
	if paymentStr != "" {
		d, err := time.Parse("2006-01-02", paymentStr)
		if err != nil {
			return in, fmt.Errorf("invalid payment date format. Use YYYY-MM-DD: %w", err)
		}
		in.PaymentDate = &d
	}

	paidStr, _ := cmd.Flags().GetString("amount-paid")
	paid, err := decimal.NewFromString(paidStr)
	if err != nil {
		return in, fmt.Errorf("invalid amount-paid: %w", err)
	}
	in.AmountPaid = paid

	in.ContractualDelayDays, _ = cmd.Flags().GetInt("contractual-delay")
	in.IsDisputed, _ = cmd.Flags().GetBool("disputed")
	in.IsCreditNote, _ = cmd.Flags().GetBool("credit-note")
	in.IsProcedure690, _ = cmd.Flags().GetBool("procedure-690")

	asOfStr, _ := cmd.Flags().GetString("as-of")
	if asOfStr == "" {
		in.EvaluationDate = time.Now()
	} else {
		d, err := time.Parse("2006-01-02", asOfStr)
		if err != nil {
			return in, fmt.Errorf("invalid as-of date format. Use YYYY-MM-DD: %w", err)
		}
		in.EvaluationDate = d
	}

	return in, nil
}
