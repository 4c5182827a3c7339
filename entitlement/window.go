/*
window.go - Due-window filter

PURPOSE:
  Decides whether a computed due date warrants a notification right now.
  Promotions carry a longer horizon than allowances because the paperwork
  takes longer.
*/
package entitlement

import "github.com/warp/personnel-engine/hr"

// Look-ahead horizons, in months from today.
const (
	AllowanceLeadMonths  = 1
	PromotionLeadMonths  = 2
	RetirementLeadMonths = 2
)

// DateWithinRange reports start <= d <= end (both boundaries inclusive).
func DateWithinRange(d, start, end hr.Date) bool {
	return d.AfterOrEqual(start) && d.BeforeOrEqual(end)
}

// Horizon returns the end of the look-ahead window for this kind.
func (k Kind) Horizon(today hr.Date) hr.Date {
	switch k {
	case KindPromotion:
		return today.AddMonths(PromotionLeadMonths)
	case KindRetirement:
		return today.AddMonths(RetirementLeadMonths)
	default:
		return today.AddMonths(AllowanceLeadMonths)
	}
}

// DueNow reports whether a due date falls inside [today, horizon] for this
// kind.
func (k Kind) DueNow(due, today hr.Date) bool {
	return DateWithinRange(due, today, k.Horizon(today))
}
