// Package handler содержит HTTP-обработчики API сервиса бронирований.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/rental-pricing/internal/middleware"
	"github.com/mmeshcher/rental-pricing/internal/model"
	"github.com/mmeshcher/rental-pricing/internal/pricing"
	"github.com/mmeshcher/rental-pricing/internal/service"
	"github.com/mmeshcher/rental-pricing/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	CreateListing(ctx context.Context, hostID int64, in service.ListingInput) (*model.Listing, error)
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
	QuoteStay(ctx context.Context, guestID, listingID int64, stay validation.Stay) (*model.Quote, error)
	BookQuote(ctx context.Context, guestID int64, quoteID string) (*model.Booking, error)
	GetBooking(ctx context.Context, userID, bookingID int64) (*model.Booking, error)
	ListGuestBookings(ctx context.Context, guestID int64) ([]model.Booking, error)
	PreviewRefund(ctx context.Context, guestID, bookingID int64) (*pricing.RefundCalculation, error)
	CancelBooking(ctx context.Context, guestID, bookingID int64) (*pricing.RefundCalculation, error)
	HostPayouts(ctx context.Context, hostID int64) (*model.HostPayouts, error)
}

// Handler реализует HTTP-обработчики API сервиса бронирований.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	auth.OnUnauthorized(writeUnauthorized)
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type policyResponse struct {
	Name       pricing.CancellationPolicy `json:"name"`
	Refundable bool                       `json:"refundable"`
	Tiers      []pricing.RefundTier       `json:"tiers"`
}

// GetPolicies возвращает поддерживаемые политики отмены с таблицами возврата.
func (h *Handler) GetPolicies(w http.ResponseWriter, r *http.Request) {
	policies := pricing.Policies()
	resp := make([]policyResponse, 0, len(policies))
	for _, p := range policies {
		tiers := p.Tiers()
		if tiers == nil {
			tiers = []pricing.RefundTier{}
		}
		resp = append(resp, policyResponse{Name: p, Refundable: p.Refundable(), Tiers: tiers})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetListing возвращает объект размещения.
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid listing id")
		return
	}

	l, err := h.service.GetListing(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "get listing error", zap.Int64("listingID", id))
		return
	}

	writeJSON(w, http.StatusOK, l)
}

type createListingRequest struct {
	Title        string `json:"title"`
	NightlyPrice int64  `json:"nightly_price"`
	CleaningFee  int64  `json:"cleaning_fee"`
	Policy       string `json:"cancellation_policy"`
}

// CreateListing создаёт объект размещения текущего хозяина.
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	hostID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r)
		return
	}

	var req createListingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "malformed request body")
		return
	}

	l, err := h.service.CreateListing(r.Context(), hostID, service.ListingInput{
		Title:        req.Title,
		NightlyPrice: pricing.Money(req.NightlyPrice),
		CleaningFee:  pricing.Money(req.CleaningFee),
		Policy:       req.Policy,
	})
	if err != nil {
		h.writeServiceError(w, err, "create listing error", zap.Int64("hostID", hostID))
		return
	}

	writeJSON(w, http.StatusCreated, l)
}

type quoteRequest struct {
	ListingID int64  `json:"listing_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
}

type quoteResponse struct {
	QuoteID      string                     `json:"quote_id"`
	ListingID    int64                      `json:"listing_id"`
	CheckIn      string                     `json:"check_in"`
	CheckOut     string                     `json:"check_out"`
	Policy       pricing.CancellationPolicy `json:"cancellation_policy"`
	Breakdown    pricing.PriceBreakdown     `json:"breakdown"`
	DisplayTotal string                     `json:"display_total"`
	ExpiresAt    string                     `json:"expires_at"`
}

// CreateQuote рассчитывает стоимость проживания и выдаёт предложение с ограниченным сроком действия.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	guestID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r)
		return
	}

	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "malformed request body")
		return
	}
	if req.ListingID <= 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "listing_id is required")
		return
	}

	stay, err := validation.ParseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		h.writeServiceError(w, err, "parse stay error")
		return
	}

	q, err := h.service.QuoteStay(r.Context(), guestID, req.ListingID, stay)
	if err != nil {
		h.writeServiceError(w, err, "quote stay error", zap.Int64("listingID", req.ListingID))
		return
	}

	writeJSON(w, http.StatusCreated, quoteResponse{
		QuoteID:      q.ID,
		ListingID:    q.ListingID,
		CheckIn:      q.CheckIn.Format(validation.DateLayout),
		CheckOut:     q.CheckOut.Format(validation.DateLayout),
		Policy:       q.Policy,
		Breakdown:    q.Breakdown,
		DisplayTotal: pricing.FormatAED(q.Breakdown.GuestTotal),
		ExpiresAt:    q.ExpiresAt.Format(time.RFC3339),
	})
}

type bookRequest struct {
	QuoteID string `json:"quote_id"`
}

type bookingResponse struct {
	ID           int64                      `json:"id"`
	ListingID    int64                      `json:"listing_id"`
	GuestID      int64                      `json:"guest_id"`
	HostID       int64                      `json:"host_id"`
	CheckIn      string                     `json:"check_in"`
	CheckOut     string                     `json:"check_out"`
	Policy       pricing.CancellationPolicy `json:"cancellation_policy"`
	Breakdown    pricing.PriceBreakdown     `json:"breakdown"`
	TotalPaid    pricing.Money              `json:"total_paid"`
	Status       model.BookingStatus        `json:"status"`
	RefundAmount *pricing.Money             `json:"refund_amount,omitempty"`
	CancelledAt  string                     `json:"cancelled_at,omitempty"`
	CreatedAt    string                     `json:"created_at"`
}

func toBookingResponse(b *model.Booking) bookingResponse {
	resp := bookingResponse{
		ID:           b.ID,
		ListingID:    b.ListingID,
		GuestID:      b.GuestID,
		HostID:       b.HostID,
		CheckIn:      b.CheckIn.Format(validation.DateLayout),
		CheckOut:     b.CheckOut.Format(validation.DateLayout),
		Policy:       b.Policy,
		Breakdown:    b.Breakdown,
		TotalPaid:    b.TotalPaid,
		Status:       b.Status,
		RefundAmount: b.RefundAmount,
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
	}
	if b.CancelledAt != nil {
		resp.CancelledAt = b.CancelledAt.Format(time.RFC3339)
	}
	return resp
}

// CreateBooking подтверждает бронирование по предложению.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	guestID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r)
		return
	}

	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "malformed request body")
		return
	}
	if req.QuoteID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "quote_id is required")
		return
	}

	b, err := h.service.BookQuote(r.Context(), guestID, req.QuoteID)
	if err != nil {
		h.writeServiceError(w, err, "book quote error", zap.Int64("guestID", guestID), zap.String("quoteID", req.QuoteID))
		return
	}

	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

// ListBookings возвращает бронирования текущего гостя.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	guestID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r)
		return
	}

	bookings, err := h.service.ListGuestBookings(r.Context(), guestID)
	if err != nil {
		h.writeServiceError(w, err, "list bookings error", zap.Int64("guestID", guestID))
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetBooking возвращает бронирование гостю или хозяину.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid booking id")
		return
	}

	b, err := h.service.GetBooking(r.Context(), userID, id)
	if err != nil {
		h.writeServiceError(w, err, "get booking error", zap.Int64("bookingID", id))
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// GetRefundPreview возвращает сумму возврата при отмене в текущий момент.
func (h *Handler) GetRefundPreview(w http.ResponseWriter, r *http.Request) {
	guestID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid booking id")
		return
	}

	refund, err := h.service.PreviewRefund(r.Context(), guestID, id)
	if err != nil {
		h.writeServiceError(w, err, "preview refund error", zap.Int64("bookingID", id))
		return
	}

	writeJSON(w, http.StatusOK, refund)
}

// CancelBooking отменяет бронирование текущего гостя.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	guestID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid booking id")
		return
	}

	refund, err := h.service.CancelBooking(r.Context(), guestID, id)
	if err != nil {
		h.writeServiceError(w, err, "cancel booking error", zap.Int64("bookingID", id))
		return
	}

	h.logger.Info("booking cancelled",
		zap.Int64("bookingID", id),
		zap.Int("refundPercentage", refund.RefundPercentage),
		zap.Int64("refundAmount", int64(refund.RefundAmount)),
	)
	writeJSON(w, http.StatusOK, refund)
}

// GetPayouts возвращает график выплат текущего хозяина, пересчитанный на момент запроса.
func (h *Handler) GetPayouts(w http.ResponseWriter, r *http.Request) {
	hostID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r)
		return
	}

	payouts, err := h.service.HostPayouts(r.Context(), hostID)
	if err != nil {
		h.writeServiceError(w, err, "host payouts error", zap.Int64("hostID", hostID))
		return
	}

	writeJSON(w, http.StatusOK, payouts)
}
