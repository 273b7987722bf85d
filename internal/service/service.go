// Package service реализует бизнес-логику бронирований: предложения цены, бронирование, отмену и выплаты хозяевам.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/rental-pricing/internal/events"
	"github.com/mmeshcher/rental-pricing/internal/model"
	"github.com/mmeshcher/rental-pricing/internal/pricing"
	"github.com/mmeshcher/rental-pricing/internal/relay"
	"github.com/mmeshcher/rental-pricing/internal/validation"
)

var (
	// ErrForbidden возвращается, если пользователь не участвует в бронировании.
	ErrForbidden = errors.New("forbidden")
	// ErrStayStarted возвращается при попытке отменить бронирование после заезда.
	ErrStayStarted = errors.New("stay has already started")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateListing(ctx context.Context, l model.Listing) (int64, error)
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
	CreateBooking(ctx context.Context, b model.Booking) (int64, error)
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	CancelBooking(ctx context.Context, c model.Cancellation) error
	ListBookingsByHost(ctx context.Context, hostID int64) ([]model.Booking, error)
	ListBookingsByGuest(ctx context.Context, guestID int64) ([]model.Booking, error)
}

// QuoteStore описывает хранилище ценовых предложений.
type QuoteStore interface {
	Save(ctx context.Context, q model.Quote) error
	Get(ctx context.Context, id string) (*model.Quote, error)
	Delete(ctx context.Context, id string) error
}

// EventPublisher описывает публикацию доменных событий.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body any) error
}

// Notifier описывает отправку уведомлений в комнаты сервиса сообщений.
type Notifier interface {
	Notify(ctx context.Context, ev relay.Event) error
}

// Options задаёт необязательные зависимости сервиса.
type Options struct {
	Publisher EventPublisher
	Notifier  Notifier
	Logger    *zap.Logger
	QuoteTTL  time.Duration
	Now       func() time.Time
}

// Service содержит бизнес-логику сервиса бронирований.
type Service struct {
	repo      Repository
	quotes    QuoteStore
	engine    *pricing.Engine
	publisher EventPublisher
	notifier  Notifier
	logger    *zap.Logger
	quoteTTL  time.Duration
	now       func() time.Time
}

// NewService создаёт сервис с указанными репозиторием, хранилищем предложений и движком расчёта.
func NewService(repo Repository, quotes QuoteStore, engine *pricing.Engine, opts Options) *Service {
	s := &Service{
		repo:      repo,
		quotes:    quotes,
		engine:    engine,
		publisher: opts.Publisher,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		quoteTTL:  opts.QuoteTTL,
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.quoteTTL <= 0 {
		s.quoteTTL = 15 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// ListingInput содержит данные нового объекта размещения.
type ListingInput struct {
	Title        string
	NightlyPrice pricing.Money
	CleaningFee  pricing.Money
	Policy       string
}

// CreateListing создаёт объект размещения хозяина.
func (s *Service) CreateListing(ctx context.Context, hostID int64, in ListingInput) (*model.Listing, error) {
	policy, err := pricing.ParsePolicy(in.Policy)
	if err != nil {
		return nil, err
	}
	if !validation.IsValidTitle(in.Title) {
		return nil, fmt.Errorf("%w: title is required", pricing.ErrInvalidArgument)
	}
	if in.NightlyPrice <= 0 || in.NightlyPrice > pricing.MaxAmount {
		return nil, fmt.Errorf("%w: nightly price must be positive", pricing.ErrInvalidArgument)
	}
	if in.CleaningFee < 0 || in.CleaningFee > pricing.MaxAmount {
		return nil, fmt.Errorf("%w: cleaning fee must not be negative", pricing.ErrInvalidArgument)
	}

	// Одна ночь без уборки должна покрывать комиссии хозяина.
	if _, err := s.engine.Breakdown(in.NightlyPrice, 1, 0); err != nil {
		return nil, err
	}

	l := model.Listing{
		HostID:       hostID,
		Title:        in.Title,
		NightlyPrice: in.NightlyPrice,
		CleaningFee:  in.CleaningFee,
		Policy:       policy,
	}

	id, err := s.repo.CreateListing(ctx, l)
	if err != nil {
		return nil, err
	}
	l.ID = id
	l.CreatedAt = s.now()

	return &l, nil
}

// GetListing возвращает объект размещения.
func (s *Service) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	return s.repo.GetListing(ctx, id)
}

// QuoteStay рассчитывает стоимость проживания и сохраняет предложение на время QuoteTTL.
func (s *Service) QuoteStay(ctx context.Context, guestID, listingID int64, stay validation.Stay) (*model.Quote, error) {
	now := s.now()
	if !s.engine.CheckInTime(stay.CheckIn).After(now) {
		return nil, fmt.Errorf("%w: check-in is in the past", pricing.ErrInvalidArgument)
	}

	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.engine.Breakdown(listing.NightlyPrice, stay.Nights(), listing.CleaningFee)
	if err != nil {
		return nil, err
	}

	q := model.Quote{
		ID:        uuid.NewString(),
		ListingID: listing.ID,
		HostID:    listing.HostID,
		GuestID:   guestID,
		CheckIn:   stay.CheckIn,
		CheckOut:  stay.CheckOut,
		Policy:    listing.Policy,
		Breakdown: breakdown,
		ExpiresAt: now.Add(s.quoteTTL),
	}

	if err := s.quotes.Save(ctx, q); err != nil {
		return nil, err
	}

	return &q, nil
}

// BookQuote подтверждает бронирование по ранее выданному предложению.
func (s *Service) BookQuote(ctx context.Context, guestID int64, quoteID string) (*model.Booking, error) {
	q, err := s.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if q.GuestID != guestID {
		return nil, ErrForbidden
	}

	now := s.now()
	if !s.engine.CheckInTime(q.CheckIn).After(now) {
		return nil, fmt.Errorf("%w: check-in is in the past", pricing.ErrInvalidArgument)
	}

	b := model.Booking{
		ListingID: q.ListingID,
		GuestID:   guestID,
		HostID:    q.HostID,
		CheckIn:   q.CheckIn,
		CheckOut:  q.CheckOut,
		Policy:    q.Policy,
		Breakdown: q.Breakdown,
		TotalPaid: q.Breakdown.GuestTotal,
		Status:    model.BookingStatusConfirmed,
		CreatedAt: now,
	}

	id, err := s.repo.CreateBooking(ctx, b)
	if err != nil {
		return nil, err
	}
	b.ID = id

	if err := s.quotes.Delete(ctx, quoteID); err != nil {
		s.logger.Warn("delete used quote", zap.Error(err), zap.String("quote_id", quoteID))
	}

	ev := events.BookingCreated{
		BookingID:    b.ID,
		ListingID:    b.ListingID,
		GuestID:      b.GuestID,
		HostID:       b.HostID,
		CheckIn:      b.CheckIn.Format(validation.DateLayout),
		CheckOut:     b.CheckOut.Format(validation.DateLayout),
		GuestTotal:   b.Breakdown.GuestTotal,
		HostEarnings: b.Breakdown.HostEarnings,
		OccurredAt:   now,
	}
	s.announce(ctx, b.ID, events.RoutingBookingCreated, ev)

	return &b, nil
}

// GetBooking возвращает бронирование, если пользователь является его гостем или хозяином.
func (s *Service) GetBooking(ctx context.Context, userID, bookingID int64) (*model.Booking, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.GuestID != userID && b.HostID != userID {
		return nil, ErrForbidden
	}
	return b, nil
}

// ListGuestBookings возвращает бронирования гостя.
func (s *Service) ListGuestBookings(ctx context.Context, guestID int64) ([]model.Booking, error) {
	return s.repo.ListBookingsByGuest(ctx, guestID)
}

// PreviewRefund рассчитывает возврат, который гость получит при отмене прямо сейчас.
func (s *Service) PreviewRefund(ctx context.Context, guestID, bookingID int64) (*pricing.RefundCalculation, error) {
	b, err := s.guestBooking(ctx, guestID, bookingID)
	if err != nil {
		return nil, err
	}

	refund, err := s.refundFor(b, s.now())
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

// CancelBooking отменяет бронирование гостя и фиксирует возврат по политике отмены.
func (s *Service) CancelBooking(ctx context.Context, guestID, bookingID int64) (*pricing.RefundCalculation, error) {
	b, err := s.guestBooking(ctx, guestID, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	// После заезда выплата хозяину уже не может быть отозвана.
	if !s.engine.CheckInTime(b.CheckIn).After(now) {
		return nil, ErrStayStarted
	}

	refund, err := s.refundFor(b, now)
	if err != nil {
		return nil, err
	}

	err = s.repo.CancelBooking(ctx, model.Cancellation{
		BookingID:   b.ID,
		Refund:      refund,
		CancelledAt: now,
	})
	if err != nil {
		return nil, err
	}

	ev := events.BookingCancelled{
		BookingID:  b.ID,
		GuestID:    b.GuestID,
		HostID:     b.HostID,
		Refund:     refund,
		OccurredAt: now,
	}
	s.announce(ctx, b.ID, events.RoutingBookingCancelled, ev)

	return &refund, nil
}

func (s *Service) guestBooking(ctx context.Context, guestID, bookingID int64) (*model.Booking, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.GuestID != guestID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) refundFor(b *model.Booking, now time.Time) (pricing.RefundCalculation, error) {
	return s.engine.Refund(b.TotalPaid, s.engine.CheckInTime(b.CheckIn), b.Policy, now)
}

// HostPayouts пересчитывает график выплат хозяина на текущий момент.
func (s *Service) HostPayouts(ctx context.Context, hostID int64) (*model.HostPayouts, error) {
	bookings, err := s.repo.ListBookingsByHost(ctx, hostID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	res := &model.HostPayouts{Payouts: make([]pricing.PayoutSchedule, 0, len(bookings))}
	for _, b := range bookings {
		ps, err := s.engine.Payout(b.ID, b.CheckIn, b.Breakdown.HostEarnings, b.Status == model.BookingStatusCancelled, now)
		if err != nil {
			return nil, fmt.Errorf("payout for booking %d: %w", b.ID, err)
		}
		res.Payouts = append(res.Payouts, ps)
	}
	res.Summary = pricing.Summarize(res.Payouts)

	return res, nil
}

// announce публикует событие и уведомляет комнату бронирования. Ошибки доставки только логируются.
func (s *Service) announce(ctx context.Context, bookingID int64, routingKey string, body any) {
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.ExchangeBookings, routingKey, body); err != nil {
			s.logger.Error("publish booking event", zap.Error(err),
				zap.Int64("booking_id", bookingID), zap.String("routing_key", routingKey))
		}
	}

	if s.notifier != nil {
		ev := relay.Event{Room: relay.BookingRoom(bookingID), Event: routingKey, Payload: body}
		if err := s.notifier.Notify(ctx, ev); err != nil {
			s.logger.Warn("notify booking room", zap.Error(err), zap.Int64("booking_id", bookingID))
		}
	}
}
