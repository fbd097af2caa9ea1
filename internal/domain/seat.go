package domain

import (
	"context"
	"time"
)

type SeatStatus string

const (
	SeatFree   SeatStatus = "free"
	SeatHeld   SeatStatus = "held"
	SeatBooked SeatStatus = "booked"
)

type Seat struct {
	ID            int
	MovieID       int
	SeatNumber    string
	Status        SeatStatus
	HoldSession   string
	HoldExpiresAt *time.Time
	BookingToken  string
	Version       int
}

// HoldExpired reports whether the seat carries a hold that lapsed before now.
// An expired hold is logically free even before a sweep writes it back.
func (s Seat) HoldExpired(now time.Time) bool {
	return s.Status == SeatHeld && s.HoldExpiresAt != nil && now.After(*s.HoldExpiresAt)
}

// HeldBy reports whether session owns a live hold on the seat at now.
func (s Seat) HeldBy(session string, now time.Time) bool {
	return s.Status == SeatHeld && s.HoldSession == session && !s.HoldExpired(now)
}

// SeatState is the mutable part of a seat written by a compare-and-set.
type SeatState struct {
	Status        SeatStatus
	HoldSession   string
	HoldExpiresAt *time.Time
	BookingToken  string
}

func FreeState() SeatState {
	return SeatState{Status: SeatFree}
}

func HeldState(session string, expiresAt time.Time) SeatState {
	return SeatState{Status: SeatHeld, HoldSession: session, HoldExpiresAt: &expiresAt}
}

func BookedState(paymentToken string) SeatState {
	return SeatState{Status: SeatBooked, BookingToken: paymentToken}
}

// Valid checks the per-status field invariants of a seat state.
func (s SeatState) Valid() bool {
	switch s.Status {
	case SeatFree:
		return s.HoldSession == "" && s.HoldExpiresAt == nil && s.BookingToken == ""
	case SeatHeld:
		return s.HoldSession != "" && s.HoldExpiresAt != nil && s.BookingToken == ""
	case SeatBooked:
		return s.HoldSession == "" && s.HoldExpiresAt == nil && s.BookingToken != ""
	default:
		return false
	}
}

// CanTransition lists the seat lifecycle edges. Booked is terminal.
func CanTransition(from, to SeatStatus) bool {
	switch from {
	case SeatFree:
		return to == SeatHeld
	case SeatHeld:
		return to == SeatHeld || to == SeatFree || to == SeatBooked
	default:
		return false
	}
}

// CheckTransition validates a compare-and-set request before it reaches storage.
func CheckTransition(observed Seat, next SeatState) error {
	if !next.Valid() || !CanTransition(observed.Status, next.Status) {
		return ErrInvalidTransition
	}

	return nil
}

// Apply returns the seat as it looks after a successful compare-and-set.
func (s Seat) Apply(next SeatState) Seat {
	s.Status = next.Status
	s.HoldSession = next.HoldSession
	s.HoldExpiresAt = next.HoldExpiresAt
	s.BookingToken = next.BookingToken
	s.Version++

	return s
}

type SeatStore interface {
	GetSeats(ctx context.Context, movieID int) ([]Seat, error)
	GetSeat(ctx context.Context, seatID int) (*Seat, error)
	// CompareAndSet writes next only if the stored seat still has the status and
	// version of observed. A lost race returns false with a nil error.
	CompareAndSet(ctx context.Context, observed Seat, next SeatState) (bool, error)
}
