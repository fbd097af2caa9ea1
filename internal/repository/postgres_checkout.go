package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

type PostgresCheckoutRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCheckoutRepository(db *pgxpool.Pool) *PostgresCheckoutRepository {
	return &PostgresCheckoutRepository{
		db: db,
	}
}

func (p *PostgresCheckoutRepository) Create(ctx context.Context, checkout *domain.Checkout) error {
	query := `
		INSERT INTO checkouts (
			token,
			session_id,
			movie_id,
			seat_ids,
			unit_price,
			amount,
			currency,
			status,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := p.db.Exec(
		ctx,
		query,
		checkout.Token,
		checkout.SessionID,
		checkout.MovieID,
		checkout.SeatIDs,
		checkout.UnitPrice,
		checkout.Amount,
		checkout.Currency,
		checkout.Status,
		checkout.CreatedAt,
	)

	return err
}

func (p *PostgresCheckoutRepository) AttachHandle(ctx context.Context, token, handle string) error {
	query := `
		UPDATE checkouts
		SET handle = $1, updated_at = NOW()
		WHERE token = $2
	`

	tag, err := p.db.Exec(ctx, query, handle, token)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

// checkoutColumns is shared by every checkout read; handle stays NULL until the
// gateway session is recorded.
const checkoutColumns = `
	token,
	session_id,
	movie_id,
	seat_ids,
	unit_price,
	amount,
	currency,
	COALESCE(handle, ''),
	status,
	claimed_at,
	created_at,
	updated_at
`

func scanCheckout(row pgx.Row, checkout *domain.Checkout) error {
	return row.Scan(
		&checkout.Token,
		&checkout.SessionID,
		&checkout.MovieID,
		&checkout.SeatIDs,
		&checkout.UnitPrice,
		&checkout.Amount,
		&checkout.Currency,
		&checkout.Handle,
		&checkout.Status,
		&checkout.ClaimedAt,
		&checkout.CreatedAt,
		&checkout.UpdatedAt,
	)
}

func (p *PostgresCheckoutRepository) getOne(ctx context.Context, where string, arg any) (*domain.Checkout, error) {
	query := `SELECT ` + checkoutColumns + ` FROM checkouts WHERE ` + where

	var checkout domain.Checkout

	err := scanCheckout(p.db.QueryRow(ctx, query, arg), &checkout)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &checkout, nil
}

func (p *PostgresCheckoutRepository) GetByHandle(ctx context.Context, handle string) (*domain.Checkout, error) {
	return p.getOne(ctx, `handle = $1`, handle)
}

func (p *PostgresCheckoutRepository) GetByToken(ctx context.Context, token string) (*domain.Checkout, error) {
	return p.getOne(ctx, `token = $1`, token)
}

func (p *PostgresCheckoutRepository) ListOpenForSession(ctx context.Context, sessionID string) ([]domain.Checkout, error) {
	query := `SELECT ` + checkoutColumns + `
		FROM checkouts
		WHERE session_id = $1 AND status IN ('pending', 'processing')
		ORDER BY created_at`

	rows, err := p.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var open []domain.Checkout

	for rows.Next() {
		var checkout domain.Checkout

		err = scanCheckout(rows, &checkout)
		if err != nil {
			return nil, err
		}

		open = append(open, checkout)
	}

	return open, rows.Err()
}

func (p *PostgresCheckoutRepository) Claim(ctx context.Context, token string, now, staleBefore time.Time) (bool, error) {
	query := `
		UPDATE checkouts
		SET status = 'processing', claimed_at = $1, updated_at = NOW()
		WHERE token = $2
			AND (status = 'pending' OR (status = 'processing' AND claimed_at < $3))
	`

	tag, err := p.db.Exec(ctx, query, now, token, staleBefore)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (p *PostgresCheckoutRepository) UpdateStatus(
	ctx context.Context,
	token string,
	status domain.CheckoutStatus,
	from ...domain.CheckoutStatus) (bool, error) {

	query := `
		UPDATE checkouts
		SET status = $1, updated_at = NOW()
		WHERE token = $2 AND (cardinality($3::text[]) = 0 OR status = ANY($3::text[]))
	`

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	tag, err := p.db.Exec(ctx, query, status, token, allowed)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (p *PostgresCheckoutRepository) CancelPendingForSession(ctx context.Context, sessionID string) error {
	query := `
		UPDATE checkouts
		SET status = 'cancelled', updated_at = NOW()
		WHERE session_id = $1 AND status = 'pending'
	`

	_, err := p.db.Exec(ctx, query, sessionID)
	return err
}
