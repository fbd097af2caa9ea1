package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

type PostgresSeatRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatRepository(db *pgxpool.Pool) *PostgresSeatRepository {
	return &PostgresSeatRepository{
		db: db,
	}
}

const seatColumns = `id, movie_id, seat_number, status, COALESCE(hold_session, ''), hold_expires_at,
	COALESCE(booking_token, ''), version`

func scanSeat(row pgx.Row, seat *domain.Seat) error {
	return row.Scan(
		&seat.ID,
		&seat.MovieID,
		&seat.SeatNumber,
		&seat.Status,
		&seat.HoldSession,
		&seat.HoldExpiresAt,
		&seat.BookingToken,
		&seat.Version,
	)
}

func (p *PostgresSeatRepository) GetSeats(ctx context.Context, movieID int) ([]domain.Seat, error) {
	query := `SELECT ` + seatColumns + `
		FROM seats
		WHERE movie_id = $1
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, query, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)

	for rows.Next() {
		var seat domain.Seat

		err = scanSeat(rows, &seat)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

func (p *PostgresSeatRepository) GetSeat(ctx context.Context, seatID int) (*domain.Seat, error) {
	query := `SELECT ` + seatColumns + `
		FROM seats
		WHERE id = $1
	`

	var seat domain.Seat

	err := scanSeat(p.db.QueryRow(ctx, query, seatID), &seat)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &seat, nil
}

// CompareAndSet is a single conditional UPDATE; Postgres row locking makes the
// status and version check atomic with the write.
func (p *PostgresSeatRepository) CompareAndSet(
	ctx context.Context,
	observed domain.Seat,
	next domain.SeatState) (bool, error) {

	err := domain.CheckTransition(observed, next)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE seats
		SET status = $1,
			hold_session = NULLIF($2, ''),
			hold_expires_at = $3,
			booking_token = NULLIF($4, ''),
			version = version + 1,
			updated_at = NOW()
		WHERE id = $5 AND status = $6 AND version = $7
	`

	tag, err := p.db.Exec(
		ctx,
		query,
		next.Status,
		next.HoldSession,
		next.HoldExpiresAt,
		next.BookingToken,
		observed.ID,
		observed.Status,
		observed.Version,
	)
	if err != nil {
		return false, err
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool

	err = p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM seats WHERE id = $1)`, observed.ID).Scan(&exists)
	if err != nil {
		return false, err
	}

	if !exists {
		return false, domain.ErrRecordNotFound
	}

	return false, nil
}
