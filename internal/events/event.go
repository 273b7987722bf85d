package events

import (
	"time"

	"github.com/mmeshcher/rental-pricing/internal/pricing"
)

// BookingCreated публикуется после подтверждения бронирования.
type BookingCreated struct {
	BookingID    int64         `json:"booking_id"`
	ListingID    int64         `json:"listing_id"`
	GuestID      int64         `json:"guest_id"`
	HostID       int64         `json:"host_id"`
	CheckIn      string        `json:"check_in"`
	CheckOut     string        `json:"check_out"`
	GuestTotal   pricing.Money `json:"guest_total"`
	HostEarnings pricing.Money `json:"host_earnings"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

// BookingCancelled публикуется после отмены бронирования.
type BookingCancelled struct {
	BookingID  int64                     `json:"booking_id"`
	GuestID    int64                     `json:"guest_id"`
	HostID     int64                     `json:"host_id"`
	Refund     pricing.RefundCalculation `json:"refund"`
	OccurredAt time.Time                 `json:"occurred_at"`
}
