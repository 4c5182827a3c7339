/*
calculator.go - Next-due-date arithmetic

PURPOSE:
  Pure functions mapping (hire date, today) to the next allowance and
  promotion due dates. Deterministic: same inputs, same output, no clock
  access.

RULES:
  Allowance: annually on the hire-date month/day. The anniversary in
  today's year if it has not passed yet (a due date equal to today is not
  yet due and is returned as-is), otherwise next year's.

  Promotion: every 4 years from the hire date. With
  years = today.year - hire.year, the next cycle boundary is the smallest
  multiple of 4 strictly greater than years, i.e.
  ceil((years+1)/4)*4, applied to the hire year.

  Both rules are anniversary-only: they deliberately ignore
  last_allowance_date, last_promotion_date and current_grade. Off-cycle
  processing therefore does not reset the cycle. Known limitation, kept
  on purpose; see DESIGN.md.
*/
package entitlement

import "github.com/warp/personnel-engine/hr"

// NextAllowanceDate returns the next annual allowance anniversary on or
// after today. Fails when the hire date is missing.
func NextAllowanceDate(hire, today hr.Date) (hr.Date, error) {
	if hire.IsZero() {
		return hr.Date{}, hr.ErrMissingHiringDate
	}
	next := hire.WithYear(today.Year())
	if next.Before(today) {
		next = hire.WithYear(today.Year() + 1)
	}
	return next, nil
}

// NextPromotionDate returns the next four-year promotion anniversary
// strictly after the current elapsed-years count. Fails when the hire date
// is missing.
func NextPromotionDate(hire, today hr.Date) (hr.Date, error) {
	if hire.IsZero() {
		return hr.Date{}, hr.ErrMissingHiringDate
	}
	years := today.Year() - hire.Year()
	// Smallest multiple of 4 strictly greater than years.
	period := ((years + 1 + 3) / 4) * 4
	return hire.WithYear(hire.Year() + period), nil
}
