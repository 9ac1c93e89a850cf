package penalty

import "time"

// monthDay keys the fixed-holiday table.
type monthDay struct {
	month time.Month
	day   int
}

// fixedHolidays are the Moroccan public holidays on the Gregorian
// calendar. Islamic holidays follow the lunar calendar and must be
// supplied per year via NewMoroccanCalendar.
var fixedHolidays = map[monthDay]string{
	{time.January, 1}:   "Nouvel An",
	{time.January, 11}:  "Manifeste de l'indépendance",
	{time.May, 1}:       "Fête du Travail",
	{time.July, 30}:     "Fête du Trône",
	{time.August, 14}:   "Journée de l'oued Ed-Dahab",
	{time.August, 20}:   "Révolution du Roi et du Peuple",
	{time.August, 21}:   "Fête de la Jeunesse",
	{time.November, 6}:  "Marche Verte",
	{time.November, 18}: "Fête de l'Indépendance",
}

// BusinessCalendar answers business-day questions for Morocco: weekends
// are Saturday and Sunday, fixed holidays come from the table above, and
// movable Islamic holidays (Aïd Al-Fitr, Aïd Al-Adha, 1er Moharram,
// Aïd Al-Mawlid) are provided by the caller for the years in scope.
type BusinessCalendar struct {
	islamicHolidays map[time.Time]struct{}
}

// NewMoroccanCalendar builds a calendar with the given Islamic holiday
// dates. Passing none is valid; only weekends and fixed holidays are
// then considered.
func NewMoroccanCalendar(islamicHolidays ...time.Time) *BusinessCalendar {
	set := make(map[time.Time]struct{}, len(islamicHolidays))
	for _, d := range islamicHolidays {
		set[dateOnly(d)] = struct{}{}
	}
	return &BusinessCalendar{islamicHolidays: set}
}

// IsWeekend reports whether d falls on a Saturday or Sunday.
func (c *BusinessCalendar) IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsFixedHoliday reports whether d is a fixed Moroccan public holiday.
func (c *BusinessCalendar) IsFixedHoliday(d time.Time) bool {
	_, ok := fixedHolidays[monthDay{d.Month(), d.Day()}]
	return ok
}

// IsIslamicHoliday reports whether d is one of the configured Islamic holidays.
func (c *BusinessCalendar) IsIslamicHoliday(d time.Time) bool {
	_, ok := c.islamicHolidays[dateOnly(d)]
	return ok
}

// IsBusinessDay reports whether d is a working day.
func (c *BusinessCalendar) IsBusinessDay(d time.Time) bool {
	return !c.IsWeekend(d) && !c.IsFixedHoliday(d) && !c.IsIslamicHoliday(d)
}

// NextBusinessDay returns d itself when it is a business day, otherwise
// the first business day after it.
func (c *BusinessCalendar) NextBusinessDay(d time.Time) time.Time {
	cur := dateOnly(d)
	for i := 0; i < 30 && !c.IsBusinessDay(cur); i++ {
		cur = cur.AddDate(0, 0, 1)
	}
	// The 30-day bound only trips on a pathological holiday set; fall
	// back to skipping weekends alone.
	for c.IsWeekend(cur) {
		cur = cur.AddDate(0, 0, 1)
	}
	return cur
}

// AddBusinessDays adds n working days to start, skipping weekends and
// holidays.
func (c *BusinessCalendar) AddBusinessDays(start time.Time, n int) time.Time {
	cur := dateOnly(start)
	for added := 0; added < n; {
		cur = cur.AddDate(0, 0, 1)
		if c.IsBusinessDay(cur) {
			added++
		}
	}
	return cur
}

// HolidayName returns the name of the fixed holiday on d, if any.
func (c *BusinessCalendar) HolidayName(d time.Time) (string, bool) {
	name, ok := fixedHolidays[monthDay{d.Month(), d.Day()}]
	return name, ok
}

// dateOnly truncates a timestamp to a UTC calendar date. All engine
// date arithmetic goes through this so time-of-day and zone never leak
// into day counts.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
