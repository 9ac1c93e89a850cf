package declaration

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"dgitools/internal/logger"
)

// Writer renders a Declaration in the layout of the official DGI
// payment-delay form: an identification header, a summary block and a
// per-invoice detail table.
type Writer struct {
	log zerolog.Logger
}

// NewWriter creates a declaration writer.
func NewWriter() *Writer {
	return &Writer{log: logger.WithComponent("declaration-writer")}
}

// WriteFile writes the declaration CSV to path.
func (w *Writer) WriteFile(d *Declaration, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create declaration file: %w", err)
	}
	defer f.Close()

	if err := w.Write(d, f); err != nil {
		return err
	}

	w.log.Info().
		Str("path", path).
		Int("invoices", len(d.Entries)).
		Str("total_penalty", d.TotalPenalty.StringFixed(2)).
		Msg("Declaration exported")
	return nil
}

// Write renders the declaration to out.
func (w *Writer) Write(d *Declaration, out io.Writer) error {
	cw := csv.NewWriter(out)

	head := [][]string{
		{"DÉCLARATION DES DÉLAIS DE PAIEMENT"},
		{"Entreprise", d.Company.Name},
		{"ICE", d.Company.ICE},
		{"RC", d.Company.RC},
		{"Année", strconv.Itoa(d.Year)},
	}
	if d.Month > 0 {
		head = append(head, []string{"Mois", strconv.Itoa(d.Month)})
	}
	if d.Company.ActivitySector != "" {
		head = append(head, []string{"Secteur", d.Company.ActivitySector})
	}
	head = append(head,
		[]string{"Date d'export", d.ExportedAt.Format("2006-01-02 15:04:05")},
		[]string{},
	)

	summary := [][]string{
		{"RÉSUMÉ"},
		{"Nombre total de factures", strconv.Itoa(len(d.Entries))},
		{"Montant total facturé (MAD)", d.TotalInvoiced.StringFixed(2)},
		{"Montant total payé (MAD)", d.TotalPaid.StringFixed(2)},
		{"Montant total impayé (MAD)", d.TotalUnpaid.StringFixed(2)},
		{"Total pénalités (MAD)", d.TotalPenalty.StringFixed(2)},
		{"Total pénalités suspendues (MAD)", d.TotalPenaltySuspended.StringFixed(2)},
		{"Factures payées à temps", strconv.Itoa(d.InvoicesOnTime)},
		{"Factures payées en retard", strconv.Itoa(d.InvoicesDelayed)},
		{"Factures impayées", strconv.Itoa(d.InvoicesUnpaid)},
		{"Factures nécessitant validation", strconv.Itoa(d.RequiringReview)},
		{"Nombre total d'alertes", strconv.Itoa(d.TotalAlerts)},
		{},
	}

	detailHeader := []string{
		"N° facture", "Fournisseur", "ICE",
		"Date livraison", "Date échéance", "Date référence",
		"Montant TTC", "Montant payé", "Montant impayé",
		"Jours de retard", "Mois de retard",
		"Taux pénalité (%)", "Pénalité (MAD)", "Pénalité suspendue",
		"Statut", "Alertes",
	}

	for _, row := range head {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write declaration header: %w", err)
		}
	}
	for _, row := range summary {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write declaration summary: %w", err)
		}
	}
	if err := cw.Write([]string{"DÉTAIL DES FACTURES"}); err != nil {
		return err
	}
	if err := cw.Write(detailHeader); err != nil {
		return err
	}
	for _, e := range d.Entries {
		if err := cw.Write(detailRow(e)); err != nil {
			return fmt.Errorf("failed to write invoice %s: %w", e.Invoice.InvoiceNumber, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func detailRow(e Entry) []string {
	r := e.Result

	deliveryDate := ""
	if !e.Invoice.DeliveryDate.IsZero() {
		deliveryDate = e.Invoice.DeliveryDate.Format(dateLayout)
	}

	suspended := "Non"
	penalty := r.PenaltyAmount
	if r.PenaltySuspended {
		suspended = "Oui"
		// Show the computed value so a suspended penalty stays visible.
		penalty = r.Breakdown.ComputedAmount
	}

	return []string{
		e.Invoice.InvoiceNumber,
		e.Invoice.SupplierName,
		e.Invoice.SupplierICE,
		deliveryDate,
		r.LegalDueDate.Format(dateLayout),
		r.ReferenceDate.Format(dateLayout),
		r.AmountTTC.StringFixed(2),
		r.AmountPaid.StringFixed(2),
		r.UnpaidAmount.StringFixed(2),
		strconv.Itoa(r.DaysOverdue),
		strconv.Itoa(r.MonthsOfDelay),
		r.PenaltyRate.Shift(2).StringFixed(2),
		penalty.StringFixed(2),
		suspended,
		string(r.Status),
		strconv.Itoa(len(r.Alerts)),
	}
}
