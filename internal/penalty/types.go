package penalty

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the legal status of an invoice with respect to the penalty
// regime of Article 78-3.
type Status string

const (
	// StatusNormal applies to a standard invoice with no special legal situation.
	StatusNormal Status = "NORMAL"

	// StatusDisputed marks an invoice under judicial dispute (litige).
	// The penalty is computed but its application is suspended until a
	// final court decision.
	StatusDisputed Status = "DISPUTED"

	// StatusCreditNote marks a credit note (avoir). Credit notes are not
	// subject to late-payment penalties at all.
	StatusCreditNote Status = "CREDIT_NOTE"

	// StatusProcedure690 marks a supplier under an Article 690 collective
	// procedure (sauvegarde, redressement or liquidation). Payment is
	// forbidden and the penalty is suspended for the duration.
	StatusProcedure690 Status = "PROCEDURE_690"
)

// AlertSeverity classifies compliance alerts attached to a result.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "INFO"
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityError    AlertSeverity = "ERROR"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// AlertCode identifies the kind of compliance alert.
type AlertCode string

const (
	AlertPartialPayment        AlertCode = "PARTIAL_PAYMENT_DETECTED"
	AlertExcessiveDelay        AlertCode = "EXCESSIVE_DELAY"
	AlertDisputedInvoice       AlertCode = "DISPUTED_INVOICE"
	AlertCreditNote            AlertCode = "CREDIT_NOTE"
	AlertProcedure690          AlertCode = "PROCEDURE_690"
	AlertPaymentBeforeDelivery AlertCode = "PAYMENT_BEFORE_DELIVERY"
)

// Alert is a compliance or data-quality notice produced during computation.
type Alert struct {
	Code     AlertCode     `json:"code"`
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
	Field    string        `json:"field,omitempty"`
}

// Config holds the statutory parameters of the penalty computation.
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	// BaseRate is the penalty rate for the first month of delay,
	// expressed as a fraction (0.03 = 3%).
	BaseRate decimal.Decimal

	// MonthlyIncrement is the additional rate per month of delay after
	// the first, expressed as a fraction (0.0085 = 0.85%).
	MonthlyIncrement decimal.Decimal

	// DefaultDelayDays is the legal payment delay applied when no
	// contractual delay is stipulated (Article 78-2: 60 days).
	DefaultDelayDays int

	// LegalMaxDelayDays is the ceiling on contractual delays
	// (Article 78-2: 120 days). A contractual delay above this value is
	// rejected, never clamped.
	LegalMaxDelayDays int

	// Calendar, when non-nil, shifts a due date that lands on a weekend
	// or Moroccan holiday to the next business day. A nil calendar keeps
	// the raw calendar-day due date.
	Calendar *BusinessCalendar
}

// DefaultConfig returns the statutory defaults of Law 69-21.
func DefaultConfig() Config {
	return Config{
		BaseRate:          decimal.New(3, -2),  // 3%
		MonthlyIncrement:  decimal.New(85, -4), // 0.85%
		DefaultDelayDays:  60,
		LegalMaxDelayDays: 120,
	}
}

// Input is one invoice/payment pair submitted for legal computation.
// All dates are calendar dates; time-of-day is ignored.
type Input struct {
	// InvoiceID is carried through to the result for reference only.
	InvoiceID string `json:"invoice_id"`

	// DeliveryDate is the default anchor for the legal delay.
	// A zero value means the date is unknown.
	DeliveryDate time.Time `json:"delivery_date"`

	// ServiceCompletionDate, when set, replaces DeliveryDate as the
	// anchor (public-establishment works and services: the delay runs
	// from completion of the work, not delivery of the invoice).
	ServiceCompletionDate *time.Time `json:"service_completion_date,omitempty"`

	// AmountTTC is the invoice total including tax, in MAD. Must be >= 0.
	AmountTTC decimal.Decimal `json:"amount_ttc"`

	// PaymentDate is the actual payment date, nil while unpaid.
	PaymentDate *time.Time `json:"payment_date,omitempty"`

	// AmountPaid is the amount settled so far. Must be >= 0.
	AmountPaid decimal.Decimal `json:"amount_paid"`

	// ContractualDelayDays is a written contractual payment term in
	// days. Zero means no contractual term (the legal default applies).
	ContractualDelayDays int `json:"contractual_delay_days,omitempty"`

	// IsDisputed suspends the penalty (litige judiciaire).
	IsDisputed bool `json:"is_disputed,omitempty"`

	// IsCreditNote marks an avoir; no penalty applies.
	IsCreditNote bool `json:"is_credit_note,omitempty"`

	// IsProcedure690 marks a supplier under collective procedure;
	// the penalty is suspended.
	IsProcedure690 bool `json:"is_procedure_690,omitempty"`

	// EvaluationDate is the "as of" date used as reference while any
	// amount remains unpaid. Callers normally pass time.Now(); it is
	// explicit so the computation stays deterministic and testable.
	EvaluationDate time.Time `json:"evaluation_date"`
}

// MonthRate is one line of the per-month rate breakdown.
type MonthRate struct {
	// Month is the 1-based month index of the delay.
	Month int `json:"month"`

	// Rate is the incremental rate contributed by this month
	// (base rate for month 1, the monthly increment afterwards).
	Rate decimal.Decimal `json:"rate"`

	// Applied reports whether this month is actually counted.
	Applied bool `json:"is_applied"`
}

// Breakdown is the audit trail of a penalty computation. It always
// reflects the computed (pre-suspension) values so that a suspended
// penalty remains visible.
type Breakdown struct {
	BaseRate         decimal.Decimal `json:"base_rate"`
	MonthlyIncrement decimal.Decimal `json:"monthly_increment"`

	// Months enumerates months 1..MonthsOfDelay with their incremental
	// rates. Empty when there is no delay.
	Months []MonthRate `json:"months"`

	// ComputedAmount is the penalty before the suspension gate, rounded
	// to 2 decimals.
	ComputedAmount decimal.Decimal `json:"computed_amount"`

	// Human-readable formulas for each step, for audit and UI display.
	DelayFormula  string `json:"delay_formula"`
	RateFormula   string `json:"rate_formula"`
	AmountFormula string `json:"amount_formula"`
	StatusFormula string `json:"status_formula"`
}

// Result is the complete legal computation for one invoice. It is fully
// derived from the Input and a Config: identical inputs always produce an
// identical result, and results for unpaid invoices go stale as the
// evaluation date moves, so they must be recomputed on every read.
type Result struct {
	InvoiceID string `json:"invoice_id"`
	Status    Status `json:"legal_status"`

	// Dates and delays (Article 78-2).
	AnchorDate       time.Time `json:"anchor_date"`
	LegalDueDate     time.Time `json:"legal_due_date"`
	AppliedDelayDays int       `json:"applied_legal_delay_days"`

	// ReferenceDate is the date the delay was measured against: the
	// payment date for a fully paid invoice, the evaluation date
	// otherwise.
	ReferenceDate time.Time `json:"reference_date"`
	DaysOverdue   int       `json:"days_overdue"`
	MonthsOfDelay int       `json:"months_of_delay"`

	// Penalty (Article 78-3). PenaltyAmount is the applicable amount:
	// zero when suspended. The pre-suspension value stays available in
	// Breakdown.ComputedAmount.
	PenaltyRate      decimal.Decimal `json:"penalty_rate"`
	PenaltyAmount    decimal.Decimal `json:"penalty_amount"`
	PenaltySuspended bool            `json:"penalty_suspended"`

	// Amounts in MAD.
	AmountTTC    decimal.Decimal `json:"invoice_amount_ttc"`
	AmountPaid   decimal.Decimal `json:"paid_amount"`
	UnpaidAmount decimal.Decimal `json:"unpaid_amount"`

	Breakdown Breakdown `json:"calculation_breakdown"`

	Alerts []Alert  `json:"alerts,omitempty"`
	Notes  []string `json:"computation_notes,omitempty"`

	// RequiresReview is set when any alert of severity WARNING or above
	// was raised.
	RequiresReview bool `json:"requires_manual_review"`
}
