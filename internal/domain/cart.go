package domain

import "context"

// CartStore keeps the seat ids a session believes it holds. It is a view
// scoping aid; seat status in the SeatStore stays the source of truth.
type CartStore interface {
	Add(ctx context.Context, sessionID string, seatID int) error
	Remove(ctx context.Context, sessionID string, seatIDs ...int) error
	Members(ctx context.Context, sessionID string) ([]int, error)
	Clear(ctx context.Context, sessionID string) error
}

type Quote struct {
	SeatCount  int
	UnitPrice  int64
	TotalPrice int64
}

func NewQuote(seatCount int, unitPrice int64) Quote {
	return Quote{
		SeatCount:  seatCount,
		UnitPrice:  unitPrice,
		TotalPrice: int64(seatCount) * unitPrice,
	}
}
