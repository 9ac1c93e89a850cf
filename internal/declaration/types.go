// Package declaration imports matched invoice/payment rows and exports
// the Moroccan DGI payment-delay declaration as CSV.
//
// Upstream extraction and reconciliation services produce the rows; this
// package only parses them, pairs them with computed legal results and
// formats the declaration the way the official form lays it out.
package declaration

import (
	"time"

	"github.com/shopspring/decimal"

	"dgitools/internal/penalty"
	"dgitools/pkg/models"
)

// Company identifies the declaring company on the declaration header.
type Company struct {
	Name           string // Legal name
	ICE            string // Identifiant Commun de l'Entreprise
	RC             string // Registre de Commerce number
	ActivitySector string // Optional activity sector label
}

// Entry pairs one invoice with its payments and its computed legal result.
type Entry struct {
	Invoice  models.Invoice
	Payments []models.Payment
	Result   *penalty.Result
}

// Declaration is a complete payment-delay declaration for one period.
type Declaration struct {
	Company    Company
	Year       int
	Month      int // 0 for an annual declaration
	ExportedAt time.Time
	Entries    []Entry

	// Financial totals (MAD)
	TotalInvoiced         decimal.Decimal
	TotalPaid             decimal.Decimal
	TotalUnpaid           decimal.Decimal
	TotalPenalty          decimal.Decimal
	TotalPenaltySuspended decimal.Decimal

	// Compliance counts
	InvoicesOnTime  int
	InvoicesDelayed int
	InvoicesUnpaid  int
	RequiringReview int
	TotalAlerts     int
}

// Build assembles a Declaration from computed entries, rolling up the
// financial and compliance totals.
func Build(company Company, year, month int, exportedAt time.Time, entries []Entry) *Declaration {
	d := &Declaration{
		Company:               company,
		Year:                  year,
		Month:                 month,
		ExportedAt:            exportedAt,
		Entries:               entries,
		TotalInvoiced:         decimal.Zero,
		TotalPaid:             decimal.Zero,
		TotalUnpaid:           decimal.Zero,
		TotalPenalty:          decimal.Zero,
		TotalPenaltySuspended: decimal.Zero,
	}

	for _, e := range entries {
		r := e.Result
		d.TotalInvoiced = d.TotalInvoiced.Add(r.AmountTTC)
		d.TotalPaid = d.TotalPaid.Add(r.AmountPaid)
		d.TotalUnpaid = d.TotalUnpaid.Add(r.UnpaidAmount)

		if r.PenaltySuspended {
			d.TotalPenaltySuspended = d.TotalPenaltySuspended.Add(r.Breakdown.ComputedAmount)
		} else {
			d.TotalPenalty = d.TotalPenalty.Add(r.PenaltyAmount)
		}

		switch {
		case r.UnpaidAmount.IsPositive():
			d.InvoicesUnpaid++
		case r.MonthsOfDelay > 0:
			d.InvoicesDelayed++
		default:
			d.InvoicesOnTime++
		}

		d.TotalAlerts += len(r.Alerts)
		if r.RequiresReview {
			d.RequiringReview++
		}
	}
	return d
}
