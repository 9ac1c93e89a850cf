package penalty

import (
	"github.com/shopspring/decimal"
)

// DetermineStatus resolves the legal status of an invoice. Precedence
// follows the strength of the legal effect: a credit note escapes the
// penalty regime entirely, an Article 690 procedure forbids payment
// outright, and a judicial dispute suspends the penalty until judgment.
func DetermineStatus(in Input) (Status, []Alert, []string) {
	var alerts []Alert
	var notes []string

	if in.IsCreditNote {
		alerts = append(alerts, Alert{
			Code:     AlertCreditNote,
			Severity: SeverityInfo,
			Message:  "Avoir (credit note). Pas de pénalité applicable.",
			Field:    "is_credit_note",
		})
		notes = append(notes, "Statut: AVOIR - Aucune pénalité de retard applicable.")
		return StatusCreditNote, alerts, notes
	}

	if in.IsProcedure690 {
		alerts = append(alerts, Alert{
			Code:     AlertProcedure690,
			Severity: SeverityWarning,
			Message: "Fournisseur sous procédure Article 690 (sauvegarde/redressement/liquidation). " +
				"Paiement interdit. Pénalité bloquée.",
			Field: "is_procedure_690",
		})
		notes = append(notes, "Statut: PROCÉDURE 690 - Paiement interdit, calcul de pénalité suspendu.")
		return StatusProcedure690, alerts, notes
	}

	if in.IsDisputed {
		alerts = append(alerts, Alert{
			Code:     AlertDisputedInvoice,
			Severity: SeverityWarning,
			Message: "Facture contestée (litige judiciaire). " +
				"Calcul de pénalité suspendu jusqu'à décision de justice.",
			Field: "is_disputed",
		})
		notes = append(notes, "Statut: LITIGE - Pénalité suspendue jusqu'à jugement définitif.")
		return StatusDisputed, alerts, notes
	}

	notes = append(notes, "Statut: NORMAL - Facture standard sans statut juridique particulier.")
	return StatusNormal, alerts, notes
}

// ApplySuspension is the suspension gate: it maps the computed penalty
// to the applicable one according to the legal status. The computed
// amount is never discarded: disputed invoices still show what the
// penalty would be if the dispute resolves against the debtor, only the
// applicable amount is zeroed.
func ApplySuspension(status Status, computedAmount decimal.Decimal) (applicable decimal.Decimal, suspended bool) {
	switch status {
	case StatusCreditNote:
		// Credit notes are outside the penalty regime: annulled, not suspended.
		return decimal.Zero, false
	case StatusProcedure690, StatusDisputed:
		return decimal.Zero, true
	default:
		return computedAmount, false
	}
}
