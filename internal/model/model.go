// Package model содержит доменные сущности сервиса бронирования жилья.
package model

import (
	"time"

	"github.com/mmeshcher/rental-pricing/internal/pricing"
)

// Listing описывает объект размещения хозяина.
type Listing struct {
	ID           int64                      `json:"id"`
	HostID       int64                      `json:"host_id"`
	Title        string                     `json:"title"`
	NightlyPrice pricing.Money              `json:"nightly_price"`
	CleaningFee  pricing.Money              `json:"cleaning_fee"`
	Policy       pricing.CancellationPolicy `json:"cancellation_policy"`
	CreatedAt    time.Time                  `json:"created_at"`
}

// BookingStatus описывает статус бронирования.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking описывает подтверждённое бронирование и зафиксированный расчёт стоимости.
type Booking struct {
	ID           int64
	ListingID    int64
	GuestID      int64
	HostID       int64
	CheckIn      time.Time
	CheckOut     time.Time
	Policy       pricing.CancellationPolicy
	Breakdown    pricing.PriceBreakdown
	TotalPaid    pricing.Money
	Status       BookingStatus
	RefundAmount *pricing.Money
	CancelledAt  *time.Time
	CreatedAt    time.Time
}

// Quote описывает выданное гостю ценовое предложение с ограниченным сроком жизни.
type Quote struct {
	ID        string                     `json:"id"`
	ListingID int64                      `json:"listing_id"`
	HostID    int64                      `json:"host_id"`
	GuestID   int64                      `json:"guest_id"`
	CheckIn   time.Time                  `json:"check_in"`
	CheckOut  time.Time                  `json:"check_out"`
	Policy    pricing.CancellationPolicy `json:"cancellation_policy"`
	Breakdown pricing.PriceBreakdown     `json:"breakdown"`
	ExpiresAt time.Time                  `json:"expires_at"`
}

// Cancellation описывает факт отмены бронирования с рассчитанным возвратом.
type Cancellation struct {
	BookingID   int64
	Refund      pricing.RefundCalculation
	CancelledAt time.Time
}

// HostPayouts содержит график выплат хозяина и итоги по статусам.
type HostPayouts struct {
	Payouts []pricing.PayoutSchedule `json:"payouts"`
	Summary pricing.PayoutSummary    `json:"summary"`
}
