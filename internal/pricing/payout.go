package pricing

import "time"

// PayoutStatus описывает состояние выплаты хозяину по бронированию.
type PayoutStatus string

const (
	PayoutHeld           PayoutStatus = "held"
	PayoutPendingRelease PayoutStatus = "pending_release"
	PayoutReleased       PayoutStatus = "released"
	PayoutCancelled      PayoutStatus = "cancelled"
)

// DefaultReleaseHour — локальный час дня заезда, в который средства освобождаются из эскроу.
const DefaultReleaseHour = 15

// PayoutRules задаёт время освобождения выплат.
type PayoutRules struct {
	ReleaseHour int
	// Location — часовой пояс платформы; nil означает часовой пояс самой даты заезда.
	Location *time.Location
}

// DefaultPayoutRules возвращает правила выплат по умолчанию.
func DefaultPayoutRules() PayoutRules {
	return PayoutRules{ReleaseHour: DefaultReleaseHour}
}

// PayoutState содержит вычисленный статус выплаты.
type PayoutState struct {
	Status           PayoutStatus `json:"status"`
	ReleaseDate      time.Time    `json:"release_date"`
	DaysUntilRelease int          `json:"days_until_release"`
}

// PayoutSchedule описывает выплату хозяину по одному бронированию.
type PayoutSchedule struct {
	BookingID        int64        `json:"booking_id"`
	CheckInDate      time.Time    `json:"check_in_date"`
	Amount           Money        `json:"amount"`
	ReleaseDate      time.Time    `json:"release_date"`
	Status           PayoutStatus `json:"status"`
	DaysUntilRelease int          `json:"days_until_release"`
}

// ReleaseDate возвращает момент освобождения средств: календарная дата заезда в ReleaseHour по местному времени.
func (r PayoutRules) ReleaseDate(checkInDate time.Time) time.Time {
	loc := r.Location
	if loc == nil {
		loc = checkInDate.Location()
	}
	y, m, d := checkInDate.Date()
	return time.Date(y, m, d, r.ReleaseHour, 0, 0, 0, loc)
}

// ComputePayoutStatus вычисляет статус выплаты на момент now. Состояние не хранится и пересчитывается при каждом чтении.
func (r PayoutRules) ComputePayoutStatus(checkInDate, now time.Time) (PayoutState, error) {
	if checkInDate.IsZero() || now.IsZero() {
		return PayoutState{}, invalidArgument("check-in and current time must be set")
	}
	if r.ReleaseHour < 0 || r.ReleaseHour > 23 {
		return PayoutState{}, invalidArgument("release hour %d out of range", r.ReleaseHour)
	}

	release := r.ReleaseDate(checkInDate)
	remaining := release.Sub(now)

	state := PayoutState{
		ReleaseDate:      release,
		DaysUntilRelease: ceilDays(remaining),
	}

	switch {
	case remaining <= 0:
		state.Status = PayoutReleased
	case remaining <= day:
		state.Status = PayoutPendingRelease
	default:
		state.Status = PayoutHeld
	}

	return state, nil
}

// Schedule строит график выплаты по бронированию. Для отменённых бронирований сумма равна нулю.
func (r PayoutRules) Schedule(bookingID int64, checkInDate time.Time, amount Money, cancelled bool, now time.Time) (PayoutSchedule, error) {
	if amount < 0 {
		return PayoutSchedule{}, invalidArgument("payout amount must not be negative, got %d", amount)
	}

	state, err := r.ComputePayoutStatus(checkInDate, now)
	if err != nil {
		return PayoutSchedule{}, err
	}

	ps := PayoutSchedule{
		BookingID:        bookingID,
		CheckInDate:      checkInDate,
		Amount:           amount,
		ReleaseDate:      state.ReleaseDate,
		Status:           state.Status,
		DaysUntilRelease: state.DaysUntilRelease,
	}
	if cancelled {
		ps.Status = PayoutCancelled
		ps.Amount = 0
	}

	return ps, nil
}

// PayoutSummary содержит суммы выплат по статусам.
type PayoutSummary struct {
	Held           Money `json:"held"`
	PendingRelease Money `json:"pending_release"`
	Released       Money `json:"released"`
	Cancelled      int   `json:"cancelled_count"`
}

// Summarize агрегирует выплаты по статусам.
func Summarize(schedules []PayoutSchedule) PayoutSummary {
	var s PayoutSummary
	for _, ps := range schedules {
		switch ps.Status {
		case PayoutHeld:
			s.Held += ps.Amount
		case PayoutPendingRelease:
			s.PendingRelease += ps.Amount
		case PayoutReleased:
			s.Released += ps.Amount
		case PayoutCancelled:
			s.Cancelled++
		}
	}
	return s
}

// ceilDays возвращает ceil(d / 1 день) со знаком.
func ceilDays(d time.Duration) int {
	days := int(d / day)
	if d > 0 && d%day != 0 {
		days++
	}
	return days
}
