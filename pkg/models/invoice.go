package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a supplier invoice as consumed by the compliance pipeline.
// It arrives already extracted and matched by the upstream services; this
// tool only derives legal results from it.
type Invoice struct {
	// Core identifiers
	ID            string // Unique row identifier (generated if absent)
	InvoiceNumber string // Human-readable invoice number

	// Supplier
	SupplierName string // Supplier legal name
	SupplierICE  string // Supplier ICE (Identifiant Commun de l'Entreprise)

	// Dates
	IssueDate             time.Time  // Date invoice was issued
	DeliveryDate          time.Time  // Delivery of goods/services (legal anchor)
	ServiceCompletionDate *time.Time // Completion date for public-sector works (overrides anchor)

	// Amounts in MAD
	AmountTTC decimal.Decimal // Total including tax

	// Contractual terms
	ContractualDelayDays int // Written payment term in days, 0 if none

	// Legal situation
	IsDisputed     bool // Under judicial dispute
	IsCreditNote   bool // Avoir
	IsProcedure690 bool // Supplier under collective procedure
}

// Payment is a settled amount matched to an invoice by the upstream
// reconciliation service.
type Payment struct {
	InvoiceNumber string          // Invoice this payment settles
	Date          time.Time       // Value date of the payment
	Amount        decimal.Decimal // Amount paid in MAD
}

// TotalPaid sums the payments for one invoice and returns the latest
// payment date. A nil date means unpaid.
func TotalPaid(payments []Payment) (decimal.Decimal, *time.Time) {
	total := decimal.Zero
	var last *time.Time
	for i := range payments {
		total = total.Add(payments[i].Amount)
		if last == nil || payments[i].Date.After(*last) {
			d := payments[i].Date
			last = &d
		}
	}
	return total, last
}
