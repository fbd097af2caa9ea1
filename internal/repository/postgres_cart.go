package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresCartStore struct {
	db *pgxpool.Pool
}

func NewPostgresCartStore(db *pgxpool.Pool) *PostgresCartStore {
	return &PostgresCartStore{
		db: db,
	}
}

func (p *PostgresCartStore) Add(ctx context.Context, sessionID string, seatID int) error {
	query := `
		INSERT INTO session_cart_items (session_id, seat_id)
		VALUES ($1, $2)
		ON CONFLICT (session_id, seat_id) DO NOTHING
	`

	_, err := p.db.Exec(ctx, query, sessionID, seatID)
	return err
}

func (p *PostgresCartStore) Remove(ctx context.Context, sessionID string, seatIDs ...int) error {
	query := `
		DELETE FROM session_cart_items
		WHERE session_id = $1 AND seat_id = ANY($2)
	`

	_, err := p.db.Exec(ctx, query, sessionID, seatIDs)
	return err
}

func (p *PostgresCartStore) Members(ctx context.Context, sessionID string) ([]int, error) {
	query := `
		SELECT seat_id
		FROM session_cart_items
		WHERE session_id = $1
		ORDER BY seat_id
	`

	rows, err := p.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (p *PostgresCartStore) Clear(ctx context.Context, sessionID string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM session_cart_items WHERE session_id = $1`, sessionID)
	return err
}
