package penalty

import "time"

// ResolveAnchor determines the date the legal payment delay is counted
// from (Article 78-2). The service-completion date takes precedence when
// present: for public-establishment works and services the delay runs
// from completion of the work, not from invoice delivery. Otherwise the
// delivery date anchors the delay.
func ResolveAnchor(serviceCompletion *time.Time, delivery time.Time) (time.Time, error) {
	if serviceCompletion != nil && !serviceCompletion.IsZero() {
		return dateOnly(*serviceCompletion), nil
	}
	if !delivery.IsZero() {
		return dateOnly(delivery), nil
	}
	return time.Time{}, NewValidationError(
		"delivery_date", nil, ErrMissingAnchor,
		"either delivery_date or service_completion_date is required")
}

// AppliedDelay resolves the payment delay to apply. A stipulated
// contractual delay wins over the legal default; zero means no
// contractual term. Delays outside [1, maxDays] are rejected rather than
// clamped: whether an out-of-range contract term should be truncated is
// a product decision the engine does not guess at.
func AppliedDelay(contractualDays, defaultDays, maxDays int) (int, error) {
	if contractualDays < 0 {
		return 0, NewValidationError(
			"contractual_delay_days", contractualDays, ErrNegativeDelay,
			"contractual delay must not be negative")
	}
	if contractualDays == 0 {
		return defaultDays, nil
	}
	if contractualDays > maxDays {
		return 0, NewValidationError(
			"contractual_delay_days", contractualDays, ErrDelayExceedsLegalMax,
			"contractual delay exceeds the legal maximum of Article 78-2")
	}
	return contractualDays, nil
}

// DueDate computes the legal due date: anchor plus the applied delay in
// calendar days. When a calendar is given, a due date landing on a
// weekend or holiday shifts to the next business day.
func DueDate(anchor time.Time, delayDays int, cal *BusinessCalendar) time.Time {
	due := dateOnly(anchor).AddDate(0, 0, delayDays)
	if cal != nil {
		due = cal.NextBusinessDay(due)
	}
	return due
}
