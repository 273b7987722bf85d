package pricing

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// RefundCalculation содержит результат расчёта возврата при отмене бронирования.
type RefundCalculation struct {
	Policy           CancellationPolicy `json:"policy"`
	DaysUntilCheckIn int                `json:"days_until_check_in"`
	RefundPercentage int                `json:"refund_percentage"`
	RefundAmount     Money              `json:"refund_amount"`
	PenaltyAmount    Money              `json:"penalty_amount"`
	IsEligible       bool               `json:"is_eligible"`
	Reason           string             `json:"reason"`
}

// CalculateRefund рассчитывает возврат гостю по политике отмены на момент now.
func CalculateRefund(totalPaid Money, checkIn time.Time, policy CancellationPolicy, now time.Time) (RefundCalculation, error) {
	if totalPaid < 0 {
		return RefundCalculation{}, invalidArgument("total paid must not be negative, got %d", totalPaid)
	}
	if totalPaid > MaxAmount {
		return RefundCalculation{}, invalidArgument("amount exceeds %d", MaxAmount)
	}
	if checkIn.IsZero() || now.IsZero() {
		return RefundCalculation{}, invalidArgument("check-in and current time must be set")
	}
	if !policy.Valid() {
		return RefundCalculation{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, string(policy))
	}

	days := daysUntil(checkIn, now)
	res := RefundCalculation{
		Policy:           policy,
		DaysUntilCheckIn: days,
	}

	switch {
	case !policy.Refundable():
		res.Reason = "Non-refundable policy: no refund"
	case days < 0:
		res.Reason = fmt.Sprintf("Check-in has already passed under %s policy: no refund", policy)
	default:
		res.RefundPercentage = policy.refundPercentage(days)
		res.Reason = fmt.Sprintf("Cancelled %s before check-in under %s policy: %s",
			pluralDays(days), policy, describePercentage(res.RefundPercentage))
	}

	res.RefundAmount = applyPercent(totalPaid, res.RefundPercentage)
	res.PenaltyAmount = totalPaid - res.RefundAmount
	res.IsEligible = res.RefundPercentage > 0 && policy.Refundable()

	return res, nil
}

// daysUntil возвращает floor((checkIn - now) / 1 день).
func daysUntil(checkIn, now time.Time) int {
	d := checkIn.Sub(now)
	days := int(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func describePercentage(p int) string {
	if p == 0 {
		return "no refund"
	}
	return fmt.Sprintf("%d%% refund", p)
}
