package pricing

import "time"

// Engine объединяет ставки и правила выплат платформы. Не содержит изменяемого состояния.
type Engine struct {
	Rates   FeeRates
	Payouts PayoutRules
}

// NewEngine создаёт движок с указанными ставками и правилами выплат.
func NewEngine(rates FeeRates, payouts PayoutRules) (*Engine, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	if payouts.ReleaseHour < 0 || payouts.ReleaseHour > 23 {
		return nil, invalidArgument("release hour %d out of range", payouts.ReleaseHour)
	}
	return &Engine{Rates: rates, Payouts: payouts}, nil
}

// Breakdown рассчитывает стоимость по ставкам движка.
func (e *Engine) Breakdown(basePrice Money, nights int, cleaningFee Money) (PriceBreakdown, error) {
	return ComputeBreakdown(basePrice, nights, cleaningFee, e.Rates)
}

// Refund рассчитывает возврат на момент now.
func (e *Engine) Refund(totalPaid Money, checkIn time.Time, policy CancellationPolicy, now time.Time) (RefundCalculation, error) {
	return CalculateRefund(totalPaid, checkIn, policy, now)
}

// CheckInTime возвращает момент заезда: дата заезда в час освобождения выплат.
func (e *Engine) CheckInTime(checkInDate time.Time) time.Time {
	return e.Payouts.ReleaseDate(checkInDate)
}

// Payout строит график выплаты по бронированию на момент now.
func (e *Engine) Payout(bookingID int64, checkInDate time.Time, amount Money, cancelled bool, now time.Time) (PayoutSchedule, error) {
	return e.Payouts.Schedule(bookingID, checkInDate, amount, cancelled, now)
}
