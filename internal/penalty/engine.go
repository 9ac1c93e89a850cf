// Package penalty implements the legal delay and penalty computation of
// Moroccan payment-delay law (Article 78-2/78-3, Law 69-21).
//
// The computation is a pure function of an Input and a Config: it does no
// I/O, holds no state, and may be invoked concurrently without
// coordination. Identical inputs always produce identical results. A
// result for an invoice with an outstanding amount depends on the
// injected evaluation date and must therefore be recomputed on every
// read, never cached across time.
//
// Legal rules implemented:
//   - Anchor date: delivery date, or service-completion date for
//     public-establishment works and services (Article 78-2).
//   - Applied delay: contractual term if stipulated, else 60 days;
//     contractual terms above 120 days are rejected.
//   - Month counting: "tout mois entamé est décompté entièrement",
//     any started calendar month counts as a full month of delay.
//   - Tiered rate: base rate for the first month, plus a fixed
//     increment per additional month (Article 78-3).
//   - Suspension: disputed invoices and Article 690 procedures suspend
//     the applicable penalty while keeping the computed value visible.
package penalty

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Engine computes legal results for invoices under a fixed Config.
type Engine struct {
	cfg Config
}

// New creates an Engine with the given configuration.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// NewDefault creates an Engine with the statutory defaults.
func NewDefault() *Engine {
	return New(DefaultConfig())
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// DaysOverdue returns the number of calendar days between the due date
// and the reference date, floored at zero.
func DaysOverdue(dueDate, referenceDate time.Time) int {
	days := int(dateOnly(referenceDate).Sub(dateOnly(dueDate)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// MonthsOfDelay counts months of delay under the DGI rule "tout mois
// entamé est décompté entièrement": every calendar-month boundary
// crossed between the due date and the reference date counts, plus one
// more month when the reference day-of-month has passed the due
// day-of-month, with a minimum of one month for any delay at all.
//
//	due 18 Sep, ref 25 Sep → 1 (same month, any delay counts)
//	due 18 Sep, ref 18 Oct → 1 (one boundary, day 18 not passed)
//	due 18 Sep, ref 19 Oct → 2 (one boundary, day 19 past 18)
//	due 18 Sep, ref 15 Nov → 2 (two boundaries, day 15 before 18)
//
// Payment exactly on the due date starts no month and yields zero.
func MonthsOfDelay(dueDate, referenceDate time.Time) int {
	due, ref := dateOnly(dueDate), dateOnly(referenceDate)
	if !ref.After(due) {
		return 0
	}
	transitions := (ref.Year()-due.Year())*12 + int(ref.Month()) - int(due.Month())
	if ref.Day() > due.Day() {
		transitions++
	}
	if transitions < 1 {
		return 1
	}
	return transitions
}

// RateFor returns the tiered penalty rate for the given months of delay:
// zero for no delay, else base + (months-1) × increment, as a fraction
// with 4-decimal precision.
func RateFor(months int, baseRate, monthlyIncrement decimal.Decimal) decimal.Decimal {
	if months <= 0 {
		return decimal.Zero
	}
	rate := baseRate.Add(monthlyIncrement.Mul(decimal.NewFromInt(int64(months - 1))))
	return rate.Round(4)
}

// monthBreakdown enumerates months 1..months with their incremental
// rates: the base rate for month 1, the monthly increment afterwards.
// The incremental rates sum to the total penalty rate.
func monthBreakdown(months int, baseRate, monthlyIncrement decimal.Decimal) []MonthRate {
	if months <= 0 {
		return nil
	}
	rows := make([]MonthRate, 0, months)
	for m := 1; m <= months; m++ {
		r := baseRate
		if m > 1 {
			r = monthlyIncrement
		}
		rows = append(rows, MonthRate{Month: m, Rate: r, Applied: true})
	}
	return rows
}

// Compute runs the full legal pipeline for one invoice: status
// determination, anchor and due-date resolution, overdue measurement,
// tiered penalty computation and the suspension gate. It returns a
// validation error and no partial result when the input is unusable.
func (e *Engine) Compute(in Input) (*Result, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	status, alerts, notes := DetermineStatus(in)

	anchor, err := ResolveAnchor(in.ServiceCompletionDate, in.DeliveryDate)
	if err != nil {
		return nil, NewComputationError("ResolveAnchor", err, "invoice "+in.InvoiceID)
	}

	delay, err := AppliedDelay(in.ContractualDelayDays, e.cfg.DefaultDelayDays, e.cfg.LegalMaxDelayDays)
	if err != nil {
		return nil, NewComputationError("AppliedDelay", err, "invoice "+in.InvoiceID)
	}
	if in.ContractualDelayDays == 0 {
		notes = append(notes, fmt.Sprintf(
			"Aucun délai contractuel stipulé. Application du délai légal par défaut: %d jours.", delay))
	} else {
		notes = append(notes, fmt.Sprintf(
			"Délai contractuel appliqué: %d jours (≤ maximum légal de %d jours).",
			delay, e.cfg.LegalMaxDelayDays))
	}

	dueDate := DueDate(anchor, delay, e.cfg.Calendar)
	rawDue := dateOnly(anchor).AddDate(0, 0, delay)
	if dueDate.Equal(rawDue) {
		notes = append(notes, fmt.Sprintf("Date d'échéance calculée: %s (%s + %d jours).",
			fmtDate(dueDate), fmtDate(anchor), delay))
	} else {
		notes = append(notes, fmt.Sprintf(
			"Date d'échéance ajustée: %s (weekend/férié) → %s (jour ouvrable suivant).",
			fmtDate(rawDue), fmtDate(dueDate)))
	}

	unpaid := in.AmountTTC.Sub(in.AmountPaid)
	if unpaid.IsNegative() {
		unpaid = decimal.Zero
	}

	// Reference date: the payment date once fully settled; otherwise the
	// outstanding amount keeps accruing against the evaluation date.
	fullyPaid := in.PaymentDate != nil && unpaid.IsZero()
	referenceDate := dateOnly(in.EvaluationDate)
	if fullyPaid {
		referenceDate = dateOnly(*in.PaymentDate)
	}

	daysOverdue := DaysOverdue(dueDate, referenceDate)
	months := MonthsOfDelay(dueDate, referenceDate)
	rate := RateFor(months, e.cfg.BaseRate, e.cfg.MonthlyIncrement)

	// The penalty base is the amount that was unpaid during the delay:
	// the outstanding amount, or the full TTC amount for an invoice paid
	// late but in full.
	penaltyBase := unpaid
	switch {
	case months > 0 && unpaid.IsZero() && in.AmountTTC.IsPositive():
		penaltyBase = in.AmountTTC
		notes = append(notes, fmt.Sprintf(
			"Paiement tardif mais complet: pénalités calculées sur le montant facture (%s MAD) pour %d mois de retard.",
			in.AmountTTC.StringFixed(2), months))
	case months > 0 && unpaid.IsPositive() && unpaid.LessThan(in.AmountTTC):
		notes = append(notes, fmt.Sprintf(
			"Paiement partiel: pénalités calculées sur le montant impayé (%s MAD) jusqu'au %s.",
			unpaid.StringFixed(2), fmtDate(referenceDate)))
	}

	computed := penaltyBase.Mul(rate).Round(2)
	applicable, suspended := ApplySuspension(status, computed)

	alerts = append(alerts, paymentAlerts(in, unpaid, daysOverdue)...)

	result := &Result{
		InvoiceID:        in.InvoiceID,
		Status:           status,
		AnchorDate:       anchor,
		LegalDueDate:     dueDate,
		AppliedDelayDays: delay,
		ReferenceDate:    referenceDate,
		DaysOverdue:      daysOverdue,
		MonthsOfDelay:    months,
		PenaltyRate:      rate,
		PenaltyAmount:    applicable,
		PenaltySuspended: suspended,
		AmountTTC:        in.AmountTTC.Round(2),
		AmountPaid:       in.AmountPaid.Round(2),
		UnpaidAmount:     unpaid.Round(2),
		Alerts:           alerts,
		Notes:            notes,
		RequiresReview:   requiresReview(alerts),
	}
	result.Breakdown = e.buildBreakdown(months, rate, penaltyBase, computed, applicable, daysOverdue, status, suspended)
	result.Notes = append(result.Notes, result.Breakdown.RateFormula, result.Breakdown.AmountFormula, result.Breakdown.StatusFormula)
	return result, nil
}

func (e *Engine) buildBreakdown(months int, rate, penaltyBase, computed, applicable decimal.Decimal,
	daysOverdue int, status Status, suspended bool) Breakdown {

	b := Breakdown{
		BaseRate:         e.cfg.BaseRate,
		MonthlyIncrement: e.cfg.MonthlyIncrement,
		Months:           monthBreakdown(months, e.cfg.BaseRate, e.cfg.MonthlyIncrement),
		ComputedAmount:   computed,
		DelayFormula: fmt.Sprintf("%d jours → %d mois (tout mois entamé compte)",
			daysOverdue, months),
	}
	if months > 0 {
		b.RateFormula = fmt.Sprintf("%s%% + (%d × %s%%) = %s%%",
			fmtPct(e.cfg.BaseRate), months-1, fmtPct(e.cfg.MonthlyIncrement), fmtPct(rate))
		b.AmountFormula = fmt.Sprintf("%s MAD × %s%% = %s MAD",
			penaltyBase.StringFixed(2), fmtPct(rate), computed.StringFixed(2))
	} else {
		b.RateFormula = "Aucun retard. Taux de pénalité = 0%."
		b.AmountFormula = "Pas de pénalité."
	}
	if suspended {
		b.StatusFormula = fmt.Sprintf("Statut %s: pénalité suspendue (%s MAD calculée, non appliquée)",
			status, computed.StringFixed(2))
	} else {
		b.StatusFormula = fmt.Sprintf("Statut %s: pénalité applicable = %s MAD",
			status, applicable.StringFixed(2))
	}
	return b
}

// paymentAlerts raises data-quality and compliance alerts that do not
// change the computation itself.
func paymentAlerts(in Input, unpaid decimal.Decimal, daysOverdue int) []Alert {
	var alerts []Alert

	if unpaid.IsPositive() && unpaid.LessThan(in.AmountTTC) {
		alerts = append(alerts, Alert{
			Code:     AlertPartialPayment,
			Severity: SeverityInfo,
			Message: fmt.Sprintf("Paiement partiel détecté: %s MAD restant sur %s MAD.",
				unpaid.StringFixed(2), in.AmountTTC.StringFixed(2)),
			Field: "amount_paid",
		})
	}

	if daysOverdue > 180 {
		sev := SeverityWarning
		if unpaid.IsPositive() {
			sev = SeverityError
		}
		alerts = append(alerts, Alert{
			Code:     AlertExcessiveDelay,
			Severity: sev,
			Message:  fmt.Sprintf("Retard excessif: %d jours. Vérification urgente recommandée.", daysOverdue),
			Field:    "payment_date",
		})
	}

	if in.PaymentDate != nil && !in.DeliveryDate.IsZero() &&
		dateOnly(*in.PaymentDate).Before(dateOnly(in.DeliveryDate)) {
		alerts = append(alerts, Alert{
			Code:     AlertPaymentBeforeDelivery,
			Severity: SeverityError,
			Message: fmt.Sprintf("Incohérence temporelle: paiement (%s) avant livraison (%s).",
				fmtDate(*in.PaymentDate), fmtDate(in.DeliveryDate)),
			Field: "payment_date",
		})
	}

	return alerts
}

func requiresReview(alerts []Alert) bool {
	for _, a := range alerts {
		switch a.Severity {
		case SeverityWarning, SeverityError, SeverityCritical:
			return true
		}
	}
	return false
}

func validateInput(in Input) error {
	if in.AmountTTC.IsNegative() {
		return NewValidationError("amount_ttc", in.AmountTTC, ErrNegativeAmount,
			"invoice amount must not be negative (declare credit notes via is_credit_note)")
	}
	if in.AmountPaid.IsNegative() {
		return NewValidationError("amount_paid", in.AmountPaid, ErrNegativeAmount,
			"paid amount must not be negative")
	}
	if in.EvaluationDate.IsZero() {
		return NewValidationError("evaluation_date", nil, ErrMissingEvaluationDate,
			"pass the current date explicitly (the engine never reads the clock)")
	}
	return nil
}

// fmtPct renders a fractional rate as a percentage string (0.0385 → "3.85").
func fmtPct(rate decimal.Decimal) string {
	return rate.Shift(2).String()
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}
