// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/rental-pricing/internal/model"
	"github.com/mmeshcher/rental-pricing/internal/pricing"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrListingNotFound возвращается, если объект размещения не найден.
	ErrListingNotFound = errors.New("listing not found")
	// ErrBookingNotFound возвращается, если бронирование не найдено.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrDatesUnavailable возвращается, если даты пересекаются с действующим бронированием.
	ErrDatesUnavailable = errors.New("dates are not available")
	// ErrBookingNotActive возвращается при попытке отменить уже отменённое бронирование.
	ErrBookingNotActive = errors.New("booking is not active")
)

var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет транзакцию при конфликтах сериализации, дедлоках и обрывах соединения.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i <= len(retryDelays); i++ {
		err = fn()
		if err == nil || !isRetryable(err) || i == len(retryDelays) {
			return err
		}

		timer := time.NewTimer(retryDelays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}

	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateListing сохраняет объект размещения и возвращает его идентификатор.
func (r *PostgresRepository) CreateListing(ctx context.Context, l model.Listing) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO listings (host_id, title, nightly_price, cleaning_fee, cancellation_policy)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		l.HostID, l.Title, int64(l.NightlyPrice), int64(l.CleaningFee), string(l.Policy),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return 0, fmt.Errorf("%w: %s", pricing.ErrInvalidArgument, pgErr.ConstraintName)
		}
		return 0, fmt.Errorf("create listing: %w", err)
	}
	return id, nil
}

// GetListing возвращает объект размещения по идентификатору.
func (r *PostgresRepository) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	var (
		l        model.Listing
		price    int64
		cleaning int64
		policy   string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, host_id, title, nightly_price, cleaning_fee, cancellation_policy, created_at
		 FROM listings WHERE id = $1`,
		id,
	).Scan(&l.ID, &l.HostID, &l.Title, &price, &cleaning, &policy, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}

	l.NightlyPrice = pricing.Money(price)
	l.CleaningFee = pricing.Money(cleaning)
	l.Policy = pricing.CancellationPolicy(policy)

	return &l, nil
}

// CreateBooking сохраняет бронирование. Строка объекта блокируется, чтобы параллельные бронирования не пересеклись по датам.
func (r *PostgresRepository) CreateBooking(ctx context.Context, b model.Booking) (int64, error) {
	var id int64
	err := withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var dummy int
		err = tx.QueryRow(ctx, `SELECT 1 FROM listings WHERE id = $1 FOR UPDATE`, b.ListingID).Scan(&dummy)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrListingNotFound
			}
			return fmt.Errorf("lock listing for update: %w", err)
		}

		var overlapping bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (
			    SELECT 1 FROM bookings
			    WHERE listing_id = $1 AND status = $2 AND check_in < $4 AND check_out > $3
			 )`,
			b.ListingID, string(model.BookingStatusConfirmed), b.CheckIn, b.CheckOut,
		).Scan(&overlapping)
		if err != nil {
			return fmt.Errorf("check overlapping bookings: %w", err)
		}
		if overlapping {
			return ErrDatesUnavailable
		}

		bd := b.Breakdown
		err = tx.QueryRow(ctx,
			`INSERT INTO bookings (
			    listing_id, guest_id, host_id, check_in, check_out, cancellation_policy,
			    base_price, nights, subtotal, cleaning_fee, service_fee, vat_amount,
			    platform_commission, processing_fee, guest_total, host_earnings, total_paid, status
			 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			 RETURNING id`,
			b.ListingID, b.GuestID, b.HostID, b.CheckIn, b.CheckOut, string(b.Policy),
			int64(bd.BasePrice), bd.Nights, int64(bd.Subtotal), int64(bd.CleaningFee), int64(bd.ServiceFee), int64(bd.VATAmount),
			int64(bd.PlatformCommission), int64(bd.ProcessingFee), int64(bd.GuestTotal), int64(bd.HostEarnings),
			int64(b.TotalPaid), string(model.BookingStatusConfirmed),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

const bookingColumns = `id, listing_id, guest_id, host_id, check_in, check_out, cancellation_policy,
	base_price, nights, subtotal, cleaning_fee, service_fee, vat_amount,
	platform_commission, processing_fee, guest_total, host_earnings, total_paid,
	status, refund_amount, cancelled_at, created_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b        model.Booking
		policy   string
		status   string
		amounts  [10]int64
		refund   *int64
		canceled *time.Time
	)

	err := row.Scan(
		&b.ID, &b.ListingID, &b.GuestID, &b.HostID, &b.CheckIn, &b.CheckOut, &policy,
		&amounts[0], &b.Breakdown.Nights, &amounts[1], &amounts[2], &amounts[3], &amounts[4],
		&amounts[5], &amounts[6], &amounts[7], &amounts[8], &amounts[9],
		&status, &refund, &canceled, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Policy = pricing.CancellationPolicy(policy)
	b.Status = model.BookingStatus(status)
	b.Breakdown.BasePrice = pricing.Money(amounts[0])
	b.Breakdown.Subtotal = pricing.Money(amounts[1])
	b.Breakdown.CleaningFee = pricing.Money(amounts[2])
	b.Breakdown.ServiceFee = pricing.Money(amounts[3])
	b.Breakdown.VATAmount = pricing.Money(amounts[4])
	b.Breakdown.PlatformCommission = pricing.Money(amounts[5])
	b.Breakdown.ProcessingFee = pricing.Money(amounts[6])
	b.Breakdown.GuestTotal = pricing.Money(amounts[7])
	b.Breakdown.HostEarnings = pricing.Money(amounts[8])
	b.TotalPaid = pricing.Money(amounts[9])
	if refund != nil {
		v := pricing.Money(*refund)
		b.RefundAmount = &v
	}
	b.CancelledAt = canceled

	return &b, nil
}

// GetBooking возвращает бронирование по идентификатору.
func (r *PostgresRepository) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// CancelBooking фиксирует отмену бронирования и рассчитанный возврат.
func (r *PostgresRepository) CancelBooking(ctx context.Context, c model.Cancellation) error {
	return withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var status string
		err = tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, c.BookingID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("lock booking for update: %w", err)
		}

		if model.BookingStatus(status) != model.BookingStatusConfirmed {
			return ErrBookingNotActive
		}

		_, err = tx.Exec(ctx,
			`UPDATE bookings
			 SET status = $2, refund_amount = $3, refund_percentage = $4, refund_reason = $5, cancelled_at = $6
			 WHERE id = $1`,
			c.BookingID, string(model.BookingStatusCancelled),
			int64(c.Refund.RefundAmount), c.Refund.RefundPercentage, c.Refund.Reason, c.CancelledAt,
		)
		if err != nil {
			return fmt.Errorf("update booking: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// ListBookingsByHost возвращает бронирования объектов хозяина, отсортированные по дате заезда.
func (r *PostgresRepository) ListBookingsByHost(ctx context.Context, hostID int64) ([]model.Booking, error) {
	return r.listBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE host_id = $1 ORDER BY check_in, id`,
		hostID,
	)
}

// ListBookingsByGuest возвращает бронирования гостя, начиная с последних.
func (r *PostgresRepository) ListBookingsByGuest(ctx context.Context, guestID int64) ([]model.Booking, error) {
	return r.listBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE guest_id = $1 ORDER BY created_at DESC, id DESC`,
		guestID,
	)
}

func (r *PostgresRepository) listBookings(ctx context.Context, query string, args ...any) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}
	defer rows.Close()

	var res []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		res = append(res, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
