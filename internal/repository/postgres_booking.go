package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

type PostgresBookingLedger struct {
	db *pgxpool.Pool
}

func NewPostgresBookingLedger(db *pgxpool.Pool) *PostgresBookingLedger {
	return &PostgresBookingLedger{
		db: db,
	}
}

// Append records a booking. The unique payment_token constraint turns a second
// append for the same payment into ErrDuplicateBooking.
func (p *PostgresBookingLedger) Append(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (movie_id, seats_count, total_price, currency, booked_at, payment_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := p.db.QueryRow(
		ctx,
		query,
		booking.MovieID,
		booking.SeatsCount,
		booking.TotalPrice,
		booking.Currency,
		booking.BookedAt,
		booking.PaymentToken,
	).Scan(&booking.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrDuplicateBooking
		}

		return err
	}

	return nil
}

func (p *PostgresBookingLedger) GetByPaymentToken(ctx context.Context, token string) (*domain.Booking, error) {
	query := `
		SELECT id, movie_id, seats_count, total_price, currency, booked_at, payment_token
		FROM bookings
		WHERE payment_token = $1
	`

	var booking domain.Booking

	err := p.db.QueryRow(ctx, query, token).Scan(
		&booking.ID,
		&booking.MovieID,
		&booking.SeatsCount,
		&booking.TotalPrice,
		&booking.Currency,
		&booking.BookedAt,
		&booking.PaymentToken,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &booking, nil
}
