package declaration

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"dgitools/internal/logger"
	"dgitools/pkg/models"
)

// dateLayout is the calendar-date format used throughout the CSV files.
const dateLayout = "2006-01-02"

// Reader parses invoice and payment CSV files produced by the upstream
// extraction/matching pipeline.
type Reader struct {
	log zerolog.Logger
}

// NewReader creates a CSV reader.
func NewReader() *Reader {
	return &Reader{log: logger.WithComponent("declaration-reader")}
}

// Invoice CSV columns (header row required, order free):
//
//	invoice_number          Human-readable invoice number
//	supplier                Supplier legal name
//	supplier_ice            Supplier ICE (optional)
//	issue_date              YYYY-MM-DD (optional)
//	delivery_date           YYYY-MM-DD, legal anchor
//	service_completion_date YYYY-MM-DD, public-sector anchor (optional)
//	amount_ttc              Invoice total incl. tax, MAD
//	contractual_delay_days  Written payment term in days (optional)
//	disputed                true/false (optional)
//	credit_note             true/false (optional)
//	procedure_690           true/false (optional)
func (r *Reader) ReadInvoices(path string) ([]models.Invoice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open invoices file: %w", err)
	}
	defer f.Close()
	return r.parseInvoices(f)
}

func (r *Reader) parseInvoices(src io.Reader) ([]models.Invoice, error) {
	cr := csv.NewReader(src)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read invoices header: %w", err)
	}
	cols, err := indexColumns(header, "invoice_number", "delivery_date", "amount_ttc")
	if err != nil {
		return nil, err
	}

	var invoices []models.Invoice
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invoices line %d: %w", line, err)
		}

		inv := models.Invoice{
			InvoiceNumber: cols.get(record, "invoice_number"),
			SupplierName:  cols.get(record, "supplier"),
			SupplierICE:   cols.get(record, "supplier_ice"),
		}
		if inv.InvoiceNumber == "" {
			inv.ID = uuid.NewString()
			r.log.Warn().Int("line", line).Str("row_id", inv.ID).
				Msg("Invoice number missing, generated row ID")
		} else {
			inv.ID = inv.InvoiceNumber
		}

		if inv.IssueDate, err = parseDate(cols.get(record, "issue_date")); err != nil {
			return nil, fmt.Errorf("invoices line %d: issue_date: %w", line, err)
		}
		if inv.DeliveryDate, err = parseDate(cols.get(record, "delivery_date")); err != nil {
			return nil, fmt.Errorf("invoices line %d: delivery_date: %w", line, err)
		}
		if v := cols.get(record, "service_completion_date"); v != "" {
			d, err := parseDate(v)
			if err != nil {
				return nil, fmt.Errorf("invoices line %d: service_completion_date: %w", line, err)
			}
			inv.ServiceCompletionDate = &d
		}

		if inv.AmountTTC, err = parseAmount(cols.get(record, "amount_ttc")); err != nil {
			return nil, fmt.Errorf("invoices line %d: amount_ttc: %w", line, err)
		}
		if v := cols.get(record, "contractual_delay_days"); v != "" {
			if inv.ContractualDelayDays, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("invoices line %d: contractual_delay_days: %w", line, err)
			}
		}

		inv.IsDisputed = parseBool(cols.get(record, "disputed"))
		inv.IsCreditNote = parseBool(cols.get(record, "credit_note"))
		inv.IsProcedure690 = parseBool(cols.get(record, "procedure_690"))

		invoices = append(invoices, inv)
	}

	r.log.Info().Int("count", len(invoices)).Msg("Invoices loaded")
	return invoices, nil
}

// Payment CSV columns (header row required):
//
//	invoice_number  Invoice this payment settles
//	payment_date    YYYY-MM-DD
//	amount          Amount paid, MAD
func (r *Reader) ReadPayments(path string) ([]models.Payment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payments file: %w", err)
	}
	defer f.Close()
	return r.parsePayments(f)
}

func (r *Reader) parsePayments(src io.Reader) ([]models.Payment, error) {
	cr := csv.NewReader(src)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read payments header: %w", err)
	}
	cols, err := indexColumns(header, "invoice_number", "payment_date", "amount")
	if err != nil {
		return nil, err
	}

	var payments []models.Payment
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("payments line %d: %w", line, err)
		}

		p := models.Payment{InvoiceNumber: cols.get(record, "invoice_number")}
		if p.Date, err = parseDate(cols.get(record, "payment_date")); err != nil {
			return nil, fmt.Errorf("payments line %d: payment_date: %w", line, err)
		}
		if p.Amount, err = parseAmount(cols.get(record, "amount")); err != nil {
			return nil, fmt.Errorf("payments line %d: amount: %w", line, err)
		}
		payments = append(payments, p)
	}

	r.log.Info().Int("count", len(payments)).Msg("Payments loaded")
	return payments, nil
}

// PaymentsByInvoice groups payments under their invoice number.
func PaymentsByInvoice(payments []models.Payment) map[string][]models.Payment {
	grouped := make(map[string][]models.Payment)
	for _, p := range payments {
		grouped[p.InvoiceNumber] = append(grouped[p.InvoiceNumber], p)
	}
	return grouped
}

// columnIndex maps lower-cased header names to record positions.
type columnIndex map[string]int

func indexColumns(header []string, required ...string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return idx, nil
}

func (c columnIndex) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, v)
}

func parseAmount(v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	// Accept both "1234.56" and the French "1 234,56".
	v = strings.ReplaceAll(v, " ", "")
	v = strings.ReplaceAll(v, ",", ".")
	return decimal.NewFromString(v)
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "oui":
		return true
	}
	return false
}
