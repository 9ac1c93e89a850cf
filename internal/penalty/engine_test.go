package penalty

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// --- Test helpers ---

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// testEngine uses the statutory defaults without a business calendar so
// date arithmetic stays raw calendar days.
func testEngine() *Engine {
	cfg := DefaultConfig()
	cfg.Calendar = nil
	return New(cfg)
}

// --- Month counting ("tout mois entamé est décompté entièrement") ---

func TestMonthsOfDelay(t *testing.T) {
	due := date(2023, time.September, 18)

	tests := []struct {
		name string
		ref  time.Time
		want int
	}{
		{"before due date", date(2023, time.September, 10), 0},
		{"exactly on due date", due, 0},
		{"one day late same month", date(2023, time.September, 19), 1},
		{"one week late same month", date(2023, time.September, 25), 1},
		{"next month same day", date(2023, time.October, 18), 1},
		{"next month one day past", date(2023, time.October, 19), 2},
		{"two boundaries day before", date(2023, time.November, 15), 2},
		{"two boundaries day past", date(2023, time.November, 20), 3},
		{"year boundary", date(2024, time.January, 10), 4},
		{"year boundary day past", date(2024, time.January, 20), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsOfDelay(due, tt.ref); got != tt.want {
				t.Errorf("MonthsOfDelay(%s, %s) = %d, want %d",
					due.Format("2006-01-02"), tt.ref.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestDaysOverdue(t *testing.T) {
	due := date(2023, time.September, 18)

	tests := []struct {
		name string
		ref  time.Time
		want int
	}{
		{"early", date(2023, time.September, 10), 0},
		{"on due date", due, 0},
		{"one day", date(2023, time.September, 19), 1},
		{"one week", date(2023, time.September, 25), 7},
		{"across months", date(2023, time.November, 15), 58},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysOverdue(due, tt.ref); got != tt.want {
				t.Errorf("DaysOverdue = %d, want %d", got, tt.want)
			}
		})
	}
}

// Months of delay are zero exactly when days overdue are zero.
func TestMonthsZeroIffDaysZero(t *testing.T) {
	due := date(2023, time.September, 18)
	for d := -40; d <= 400; d++ {
		ref := due.AddDate(0, 0, d)
		days := DaysOverdue(due, ref)
		months := MonthsOfDelay(due, ref)
		if (days == 0) != (months == 0) {
			t.Fatalf("offset %d: daysOverdue=%d monthsOfDelay=%d violate zero equivalence", d, days, months)
		}
	}
}

// --- Tiered rate ---

func TestRateFor(t *testing.T) {
	base, inc := dec("0.03"), dec("0.0085")

	tests := []struct {
		months int
		want   string
	}{
		{0, "0"},
		{1, "0.03"},
		{2, "0.0385"},
		{3, "0.047"},
		{6, "0.0725"},
		{12, "0.1235"},
	}

	for _, tt := range tests {
		got := RateFor(tt.months, base, inc)
		if !got.Equal(dec(tt.want)) {
			t.Errorf("RateFor(%d) = %s, want %s", tt.months, got, tt.want)
		}
	}
}

func TestRateMonotonicInMonths(t *testing.T) {
	base, inc := dec("0.03"), dec("0.0085")
	prev := decimal.Zero
	for m := 1; m <= 36; m++ {
		rate := RateFor(m, base, inc)
		if rate.LessThan(prev) {
			t.Fatalf("rate decreased at month %d: %s < %s", m, rate, prev)
		}
		prev = rate
	}
}

// --- Full pipeline scenarios ---

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		name          string
		input         Input
		wantDueDate   time.Time
		wantDelayDays int
		wantMonths    int
		wantRate      string
		wantAmount    string
		wantSuspended bool
	}{
		{
			name: "default 60-day delay, one month late",
			input: Input{
				DeliveryDate:   date(2023, time.July, 20),
				AmountTTC:      dec("10000"),
				PaymentDate:    datePtr(2023, time.September, 25),
				AmountPaid:     dec("10000"),
				EvaluationDate: date(2023, time.December, 1),
			},
			wantDueDate:   date(2023, time.September, 18),
			wantDelayDays: 60,
			wantMonths:    1,
			wantRate:      "0.03",
			wantAmount:    "300",
			wantSuspended: false,
		},
		{
			name: "two months late",
			input: Input{
				DeliveryDate:   date(2023, time.July, 20),
				AmountTTC:      dec("10000"),
				PaymentDate:    datePtr(2023, time.November, 15),
				AmountPaid:     dec("10000"),
				EvaluationDate: date(2023, time.December, 1),
			},
			wantDueDate:   date(2023, time.September, 18),
			wantDelayDays: 60,
			wantMonths:    2,
			wantRate:      "0.0385",
			wantAmount:    "385",
			wantSuspended: false,
		},
		{
			name: "contractual 120-day term, three months late",
			input: Input{
				DeliveryDate:         date(2023, time.July, 20),
				ContractualDelayDays: 120,
				AmountTTC:            dec("10000"),
				PaymentDate:          datePtr(2024, time.February, 17),
				AmountPaid:           dec("10000"),
				EvaluationDate:       date(2024, time.March, 1),
			},
			wantDueDate:   date(2023, time.November, 17),
			wantDelayDays: 120,
			wantMonths:    3,
			wantRate:      "0.047",
			wantAmount:    "470",
			wantSuspended: false,
		},
		{
			name: "early payment",
			input: Input{
				DeliveryDate:   date(2023, time.July, 20),
				AmountTTC:      dec("10000"),
				PaymentDate:    datePtr(2023, time.September, 10),
				AmountPaid:     dec("10000"),
				EvaluationDate: date(2023, time.December, 1),
			},
			wantDueDate:   date(2023, time.September, 18),
			wantDelayDays: 60,
			wantMonths:    0,
			wantRate:      "0",
			wantAmount:    "0",
			wantSuspended: false,
		},
		{
			name: "disputed invoice suspends the penalty",
			input: Input{
				DeliveryDate:   date(2023, time.July, 20),
				AmountTTC:      dec("10000"),
				PaymentDate:    datePtr(2023, time.September, 25),
				AmountPaid:     dec("10000"),
				IsDisputed:     true,
				EvaluationDate: date(2023, time.December, 1),
			},
			wantDueDate:   date(2023, time.September, 18),
			wantDelayDays: 60,
			wantMonths:    1,
			wantRate:      "0.03",
			wantAmount:    "0",
			wantSuspended: true,
		},
		{
			name: "payment exactly on due date",
			input: Input{
				DeliveryDate:   date(2023, time.July, 20),
				AmountTTC:      dec("10000"),
				PaymentDate:    datePtr(2023, time.September, 18),
				AmountPaid:     dec("10000"),
				EvaluationDate: date(2023, time.December, 1),
			},
			wantDueDate:   date(2023, time.September, 18),
			wantDelayDays: 60,
			wantMonths:    0,
			wantRate:      "0",
			wantAmount:    "0",
			wantSuspended: false,
		},
	}

	engine := testEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Compute(tt.input)
			if err != nil {
				t.Fatalf("Compute() error: %v", err)
			}
			if !result.LegalDueDate.Equal(tt.wantDueDate) {
				t.Errorf("due date = %s, want %s",
					result.LegalDueDate.Format("2006-01-02"), tt.wantDueDate.Format("2006-01-02"))
			}
			if result.AppliedDelayDays != tt.wantDelayDays {
				t.Errorf("applied delay = %d, want %d", result.AppliedDelayDays, tt.wantDelayDays)
			}
			if result.MonthsOfDelay != tt.wantMonths {
				t.Errorf("months of delay = %d, want %d", result.MonthsOfDelay, tt.wantMonths)
			}
			if !result.PenaltyRate.Equal(dec(tt.wantRate)) {
				t.Errorf("penalty rate = %s, want %s", result.PenaltyRate, tt.wantRate)
			}
			if !result.PenaltyAmount.Equal(dec(tt.wantAmount)) {
				t.Errorf("penalty amount = %s, want %s", result.PenaltyAmount, tt.wantAmount)
			}
			if result.PenaltySuspended != tt.wantSuspended {
				t.Errorf("suspended = %v, want %v", result.PenaltySuspended, tt.wantSuspended)
			}
		})
	}
}

// A suspended penalty keeps its computed value visible in the breakdown.
func TestSuspendedPenaltyStaysVisible(t *testing.T) {
	result, err := testEngine().Compute(Input{
		DeliveryDate:   date(2023, time.July, 20),
		AmountTTC:      dec("10000"),
		PaymentDate:    datePtr(2023, time.September, 25),
		AmountPaid:     dec("10000"),
		IsDisputed:     true,
		EvaluationDate: date(2023, time.December, 1),
	})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if !result.PenaltySuspended {
		t.Fatal("expected suspended penalty")
	}
	if !result.PenaltyAmount.IsZero() {
		t.Errorf("applicable amount = %s, want 0", result.PenaltyAmount)
	}
	if !result.Breakdown.ComputedAmount.Equal(dec("300")) {
		t.Errorf("computed amount = %s, want 300", result.Breakdown.ComputedAmount)
	}
	if result.Status != StatusDisputed {
		t.Errorf("status = %s, want %s", result.Status, StatusDisputed)
	}
}

// Unpaid invoices accrue against the injected evaluation date.
func TestComputeUnpaidUsesEvaluationDate(t *testing.T) {
	input := Input{
		DeliveryDate:   date(2023, time.July, 20),
		AmountTTC:      dec("10000"),
		EvaluationDate: date(2023, time.November, 15), // due 2023-09-18
	}
	result, err := testEngine().Compute(input)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if result.MonthsOfDelay != 2 {
		t.Errorf("months of delay = %d, want 2", result.MonthsOfDelay)
	}
	if !result.ReferenceDate.Equal(date(2023, time.November, 15)) {
		t.Errorf("reference date = %s, want evaluation date", result.ReferenceDate.Format("2006-01-02"))
	}
	if !result.PenaltyAmount.Equal(dec("385")) {
		t.Errorf("penalty amount = %s, want 385", result.PenaltyAmount)
	}

	// Same invoice, later evaluation date: the result must change.
	input.EvaluationDate = date(2023, time.November, 20)
	later, err := testEngine().Compute(input)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if later.MonthsOfDelay != 3 {
		t.Errorf("months of delay at later evaluation = %d, want 3", later.MonthsOfDelay)
	}
}

// A partial payment leaves the outstanding amount accruing to the
// evaluation date, with the penalty based on the unpaid portion.
func TestComputePartialPayment(t *testing.T) {
	result, err := testEngine().Compute(Input{
		DeliveryDate:   date(2023, time.July, 20),
		AmountTTC:      dec("10000"),
		PaymentDate:    datePtr(2023, time.September, 25),
		AmountPaid:     dec("4000"),
		EvaluationDate: date(2023, time.November, 15),
	})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if !result.UnpaidAmount.Equal(dec("6000")) {
		t.Errorf("unpaid = %s, want 6000", result.UnpaidAmount)
	}
	if !result.ReferenceDate.Equal(date(2023, time.November, 15)) {
		t.Errorf("reference date = %s, want evaluation date", result.ReferenceDate.Format("2006-01-02"))
	}
	if result.MonthsOfDelay != 2 {
		t.Errorf("months of delay = %d, want 2", result.MonthsOfDelay)
	}
	// 6000 × 3.85%
	if !result.PenaltyAmount.Equal(dec("231")) {
		t.Errorf("penalty amount = %s, want 231", result.PenaltyAmount)
	}

	found := false
	for _, a := range result.Alerts {
		if a.Code == AlertPartialPayment {
			found = true
		}
	}
	if !found {
		t.Error("expected a partial payment alert")
	}
}

// An invoice paid late but in full takes the penalty on the full TTC
// amount, the amount that was unpaid during the delay.
func TestComputeLateFullPaymentBase(t *testing.T) {
	result, err := testEngine().Compute(Input{
		DeliveryDate:   date(2023, time.July, 20),
		AmountTTC:      dec("10000"),
		PaymentDate:    datePtr(2023, time.September, 25),
		AmountPaid:     dec("10000"),
		EvaluationDate: date(2023, time.December, 1),
	})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if !result.UnpaidAmount.IsZero() {
		t.Errorf("unpaid = %s, want 0", result.UnpaidAmount)
	}
	if !result.PenaltyAmount.Equal(dec("300")) {
		t.Errorf("penalty amount = %s, want 300 (3%% of full TTC)", result.PenaltyAmount)
	}
}

// Service completion date overrides delivery as the anchor.
func TestComputePublicSectorAnchor(t *testing.T) {
	result, err := testEngine().Compute(Input{
		DeliveryDate:          date(2023, time.July, 20),
		ServiceCompletionDate: datePtr(2023, time.August, 1),
		AmountTTC:             dec("5000"),
		EvaluationDate:        date(2023, time.September, 1),
	})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if !result.AnchorDate.Equal(date(2023, time.August, 1)) {
		t.Errorf("anchor = %s, want service completion date", result.AnchorDate.Format("2006-01-02"))
	}
	if !result.LegalDueDate.Equal(date(2023, time.September, 30)) {
		t.Errorf("due date = %s, want 2023-09-30", result.LegalDueDate.Format("2006-01-02"))
	}
}

func TestComputeBreakdown(t *testing.T) {
	result, err := testEngine().Compute(Input{
		DeliveryDate:   date(2023, time.July, 20),
		AmountTTC:      dec("10000"),
		PaymentDate:    datePtr(2023, time.November, 20),
		AmountPaid:     dec("10000"),
		EvaluationDate: date(2023, time.December, 1),
	})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if result.MonthsOfDelay != 3 {
		t.Fatalf("months of delay = %d, want 3", result.MonthsOfDelay)
	}

	b := result.Breakdown
	if len(b.Months) != 3 {
		t.Fatalf("breakdown months = %d, want 3", len(b.Months))
	}
	// Incremental rates: base for month 1, the increment afterwards,
	// summing to the total rate.
	if !b.Months[0].Rate.Equal(dec("0.03")) {
		t.Errorf("month 1 rate = %s, want 0.03", b.Months[0].Rate)
	}
	sum := decimal.Zero
	for i, m := range b.Months {
		if m.Month != i+1 {
			t.Errorf("month index = %d, want %d", m.Month, i+1)
		}
		if !m.Applied {
			t.Errorf("month %d not marked applied", m.Month)
		}
		if i > 0 && !m.Rate.Equal(dec("0.0085")) {
			t.Errorf("month %d rate = %s, want 0.0085", m.Month, m.Rate)
		}
		sum = sum.Add(m.Rate)
	}
	if !sum.Equal(result.PenaltyRate) {
		t.Errorf("breakdown rates sum to %s, want %s", sum, result.PenaltyRate)
	}
	if b.RateFormula == "" || b.AmountFormula == "" || b.DelayFormula == "" {
		t.Error("expected non-empty formula strings")
	}
}

// No delay means an empty breakdown.
func TestComputeNoDelayEmptyBreakdown(t *testing.T) {
	result, err := testEngine().Compute(Input{
		DeliveryDate:   date(2023, time.July, 20),
		AmountTTC:      dec("10000"),
		PaymentDate:    datePtr(2023, time.September, 10),
		AmountPaid:     dec("10000"),
		EvaluationDate: date(2023, time.December, 1),
	})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if len(result.Breakdown.Months) != 0 {
		t.Errorf("breakdown months = %d, want 0", len(result.Breakdown.Months))
	}
	if !result.Breakdown.ComputedAmount.IsZero() {
		t.Errorf("computed amount = %s, want 0", result.Breakdown.ComputedAmount)
	}
}

// Identical inputs produce identical results.
func TestComputeIdempotent(t *testing.T) {
	input := Input{
		InvoiceID:      "FAC-2023-001",
		DeliveryDate:   date(2023, time.July, 20),
		AmountTTC:      dec("12345.67"),
		AmountPaid:     dec("5000"),
		EvaluationDate: date(2023, time.December, 1),
	}
	engine := testEngine()

	first, err := engine.Compute(input)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	second, err := engine.Compute(input)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}

	if !first.PenaltyAmount.Equal(second.PenaltyAmount) ||
		first.MonthsOfDelay != second.MonthsOfDelay ||
		first.DaysOverdue != second.DaysOverdue ||
		!first.LegalDueDate.Equal(second.LegalDueDate) ||
		!first.PenaltyRate.Equal(second.PenaltyRate) {
		t.Errorf("repeated computation diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestComputeValidation(t *testing.T) {
	valid := Input{
		DeliveryDate:   date(2023, time.July, 20),
		AmountTTC:      dec("100"),
		EvaluationDate: date(2023, time.December, 1),
	}

	tests := []struct {
		name    string
		mutate  func(*Input)
		wantErr error
	}{
		{"negative invoice amount", func(in *Input) { in.AmountTTC = dec("-100") }, ErrNegativeAmount},
		{"negative paid amount", func(in *Input) { in.AmountPaid = dec("-1") }, ErrNegativeAmount},
		{"missing evaluation date", func(in *Input) { in.EvaluationDate = time.Time{} }, ErrMissingEvaluationDate},
		{"missing anchor", func(in *Input) { in.DeliveryDate = time.Time{} }, ErrMissingAnchor},
		{"contractual delay above legal max", func(in *Input) { in.ContractualDelayDays = 150 }, ErrDelayExceedsLegalMax},
		{"negative contractual delay", func(in *Input) { in.ContractualDelayDays = -10 }, ErrNegativeDelay},
	}

	engine := testEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := engine.Compute(in)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// Overpayment is a caller data-quality concern; the engine floors the
// unpaid amount at zero instead of failing.
func TestComputeOverpaymentFloorsUnpaid(t *testing.T) {
	result, err := testEngine().Compute(Input{
		DeliveryDate:   date(2023, time.July, 20),
		AmountTTC:      dec("100"),
		PaymentDate:    datePtr(2023, time.September, 10),
		AmountPaid:     dec("150"),
		EvaluationDate: date(2023, time.December, 1),
	})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if !result.UnpaidAmount.IsZero() {
		t.Errorf("unpaid = %s, want 0", result.UnpaidAmount)
	}
}

// An excessive delay raises an alert and flags the result for review.
func TestComputeExcessiveDelayAlert(t *testing.T) {
	result, err := testEngine().Compute(Input{
		DeliveryDate:   date(2023, time.January, 10),
		AmountTTC:      dec("10000"),
		EvaluationDate: date(2023, time.December, 20), // well past due + 180
	})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	var alert *Alert
	for i := range result.Alerts {
		if result.Alerts[i].Code == AlertExcessiveDelay {
			alert = &result.Alerts[i]
		}
	}
	if alert == nil {
		t.Fatal("expected an excessive delay alert")
	}
	if alert.Severity != SeverityError {
		t.Errorf("severity = %s, want %s for an unpaid invoice", alert.Severity, SeverityError)
	}
	if !result.RequiresReview {
		t.Error("expected the result to require manual review")
	}
}
