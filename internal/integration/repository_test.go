package integration_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-booking-engine/internal/domain"
	"github.com/metinatakli/seat-booking-engine/internal/repository"
	"github.com/stretchr/testify/suite"
)

type RepositoryTestSuite struct {
	BaseSuite
	ctx     context.Context
	movieID int
	seatIDs []int
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	suite.Run(t, new(RepositoryTestSuite))
}

func (s *RepositoryTestSuite) SetupTest() {
	s.BaseSuite.SetupTest()
	s.ctx = context.Background()
	s.movieID, s.seatIDs = seedMovie(s.T(), s.app.DB)
}

func (s *RepositoryTestSuite) createCheckout(seatIDs ...int) *domain.Checkout {
	checkout := &domain.Checkout{
		Token:     uuid.NewString(),
		SessionID: "session-a",
		MovieID:   s.movieID,
		SeatIDs:   seatIDs,
		UnitPrice: 200,
		Amount:    int64(len(seatIDs)) * 200,
		Currency:  "inr",
		Status:    domain.CheckoutPending,
		CreatedAt: time.Now(),
	}

	repo := repository.NewPostgresCheckoutRepository(s.app.DB)
	s.Require().NoError(repo.Create(s.ctx, checkout))
	s.Require().NoError(repo.AttachHandle(s.ctx, checkout.Token, "cs_"+checkout.Token))
	checkout.Handle = "cs_" + checkout.Token

	return checkout
}

func (s *RepositoryTestSuite) TestSeatCompareAndSet() {
	repo := repository.NewPostgresSeatRepository(s.app.DB)

	seat, err := repo.GetSeat(s.ctx, s.seatIDs[0])
	s.Require().NoError(err)
	s.Equal(domain.SeatFree, seat.Status)
	s.Equal(1, seat.Version)

	expiresAt := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Microsecond)

	ok, err := repo.CompareAndSet(s.ctx, *seat, domain.HeldState("session-a", expiresAt))
	s.Require().NoError(err)
	s.True(ok)

	// The stale observation loses.
	ok, err = repo.CompareAndSet(s.ctx, *seat, domain.HeldState("session-b", expiresAt))
	s.Require().NoError(err)
	s.False(ok)

	held, err := repo.GetSeat(s.ctx, s.seatIDs[0])
	s.Require().NoError(err)
	s.Equal(domain.SeatHeld, held.Status)
	s.Equal("session-a", held.HoldSession)
	s.Equal(2, held.Version)
	s.Require().NotNil(held.HoldExpiresAt)
	s.True(expiresAt.Equal(*held.HoldExpiresAt))

	ok, err = repo.CompareAndSet(s.ctx, *held, domain.BookedState("token-1"))
	s.Require().NoError(err)
	s.True(ok)

	booked, err := repo.GetSeat(s.ctx, s.seatIDs[0])
	s.Require().NoError(err)
	s.Equal("token-1", booked.BookingToken)
	s.Empty(booked.HoldSession)
	s.Nil(booked.HoldExpiresAt)

	_, err = repo.CompareAndSet(s.ctx, *booked, domain.FreeState())
	s.ErrorIs(err, domain.ErrInvalidTransition)

	_, err = repo.CompareAndSet(s.ctx, domain.Seat{ID: 999, Status: domain.SeatFree, Version: 1}, domain.HeldState("x", expiresAt))
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *RepositoryTestSuite) TestSeatCompareAndSetConcurrent() {
	repo := repository.NewPostgresSeatRepository(s.app.DB)

	seat, err := repo.GetSeat(s.ctx, s.seatIDs[1])
	s.Require().NoError(err)

	const workers = 20

	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			next := domain.HeldState(uuid.NewString(), time.Now().Add(time.Minute))
			ok, err := repo.CompareAndSet(s.ctx, *seat, next)
			if err != nil {
				s.T().Errorf("worker %d: %v", i, err)
				return
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}

func (s *RepositoryTestSuite) TestGetSeats() {
	repo := repository.NewPostgresSeatRepository(s.app.DB)

	seats, err := repo.GetSeats(s.ctx, s.movieID)
	s.Require().NoError(err)
	s.Require().Len(seats, len(TestSeatNumbers))

	for i, seat := range seats {
		s.Equal(s.seatIDs[i], seat.ID)
		s.Equal(TestSeatNumbers[i], seat.SeatNumber)
	}

	_, err = repo.GetSeat(s.ctx, 999)
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *RepositoryTestSuite) TestCheckoutClaim() {
	repo := repository.NewPostgresCheckoutRepository(s.app.DB)
	checkout := s.createCheckout(s.seatIDs[0], s.seatIDs[1])

	stored, err := repo.GetByHandle(s.ctx, checkout.Handle)
	s.Require().NoError(err)
	s.Equal(checkout.SeatIDs, stored.SeatIDs)
	s.Equal(domain.CheckoutPending, stored.Status)

	now := time.Now()
	lease := 2 * time.Minute

	won, err := repo.Claim(s.ctx, checkout.Token, now, now.Add(-lease))
	s.Require().NoError(err)
	s.True(won)

	won, err = repo.Claim(s.ctx, checkout.Token, now.Add(time.Minute), now.Add(time.Minute-lease))
	s.Require().NoError(err)
	s.False(won, "live claim must not be taken over")

	later := now.Add(lease + time.Second)
	won, err = repo.Claim(s.ctx, checkout.Token, later, later.Add(-lease))
	s.Require().NoError(err)
	s.True(won, "stale claim is resumable")

	updated, err := repo.UpdateStatus(s.ctx, checkout.Token, domain.CheckoutCompleted, domain.CheckoutProcessing)
	s.Require().NoError(err)
	s.True(updated)

	updated, err = repo.UpdateStatus(s.ctx, checkout.Token, domain.CheckoutCancelled, domain.CheckoutPending)
	s.Require().NoError(err)
	s.False(updated)

	_, err = repo.GetByHandle(s.ctx, "cs_unknown")
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *RepositoryTestSuite) TestCancelPendingForSession() {
	repo := repository.NewPostgresCheckoutRepository(s.app.DB)

	pending := s.createCheckout(s.seatIDs[0])
	claimed := s.createCheckout(s.seatIDs[1])

	_, err := repo.Claim(s.ctx, claimed.Token, time.Now(), time.Now().Add(-time.Minute))
	s.Require().NoError(err)

	s.Require().NoError(repo.CancelPendingForSession(s.ctx, "session-a"))

	got, err := repo.GetByHandle(s.ctx, pending.Handle)
	s.Require().NoError(err)
	s.Equal(domain.CheckoutCancelled, got.Status)

	got, err = repo.GetByHandle(s.ctx, claimed.Handle)
	s.Require().NoError(err)
	s.Equal(domain.CheckoutProcessing, got.Status)
}

func (s *RepositoryTestSuite) TestCheckoutLookupByToken() {
	repo := repository.NewPostgresCheckoutRepository(s.app.DB)

	withoutHandle := &domain.Checkout{
		Token:     uuid.NewString(),
		SessionID: "session-a",
		MovieID:   s.movieID,
		SeatIDs:   []int{s.seatIDs[2]},
		UnitPrice: 200,
		Amount:    200,
		Currency:  "inr",
		Status:    domain.CheckoutPending,
		CreatedAt: time.Now(),
	}
	s.Require().NoError(repo.Create(s.ctx, withoutHandle))

	got, err := repo.GetByToken(s.ctx, withoutHandle.Token)
	s.Require().NoError(err)
	s.Empty(got.Handle)
	s.Equal(withoutHandle.SeatIDs, got.SeatIDs)

	_, err = repo.GetByToken(s.ctx, "missing")
	s.ErrorIs(err, domain.ErrRecordNotFound)

	pending := s.createCheckout(s.seatIDs[0])
	claimed := s.createCheckout(s.seatIDs[1])
	_, err = repo.Claim(s.ctx, claimed.Token, time.Now(), time.Now().Add(-time.Minute))
	s.Require().NoError(err)

	cancelled := s.createCheckout(s.seatIDs[3])
	_, err = repo.UpdateStatus(s.ctx, cancelled.Token, domain.CheckoutCancelled, domain.CheckoutPending)
	s.Require().NoError(err)

	open, err := repo.ListOpenForSession(s.ctx, "session-a")
	s.Require().NoError(err)

	tokens := make([]string, len(open))
	for i, c := range open {
		tokens[i] = c.Token
	}
	s.ElementsMatch([]string{withoutHandle.Token, pending.Token, claimed.Token}, tokens)

	open, err = repo.ListOpenForSession(s.ctx, "session-b")
	s.Require().NoError(err)
	s.Empty(open)
}

func (s *RepositoryTestSuite) TestLedgerRejectsDuplicatePayment() {
	ledger := repository.NewPostgresBookingLedger(s.app.DB)
	checkout := s.createCheckout(s.seatIDs[0])

	booking := &domain.Booking{
		MovieID:      s.movieID,
		SeatsCount:   1,
		TotalPrice:   200,
		Currency:     "inr",
		BookedAt:     time.Now().UTC().Truncate(time.Microsecond),
		PaymentToken: checkout.Token,
	}

	s.Require().NoError(ledger.Append(s.ctx, booking))
	s.NotZero(booking.ID)

	duplicate := *booking
	duplicate.ID = 0
	s.ErrorIs(ledger.Append(s.ctx, &duplicate), domain.ErrDuplicateBooking)

	stored, err := ledger.GetByPaymentToken(s.ctx, checkout.Token)
	s.Require().NoError(err)
	s.Equal(booking.ID, stored.ID)

	_, err = ledger.GetByPaymentToken(s.ctx, "missing")
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *RepositoryTestSuite) TestCartStores() {
	stores := map[string]domain.CartStore{
		"postgres": repository.NewPostgresCartStore(s.app.DB),
		"redis":    repository.NewRedisCartStore(s.app.Redis, time.Minute),
	}

	for name, store := range stores {
		s.Run(name, func() {
			session := uuid.NewString()

			for _, id := range s.seatIDs[:3] {
				s.Require().NoError(store.Add(s.ctx, session, id))
			}
			// Adding twice is a no-op.
			s.Require().NoError(store.Add(s.ctx, session, s.seatIDs[0]))

			members, err := store.Members(s.ctx, session)
			s.Require().NoError(err)
			s.ElementsMatch(s.seatIDs[:3], members)

			s.Require().NoError(store.Remove(s.ctx, session, s.seatIDs[0], s.seatIDs[1]))

			members, err = store.Members(s.ctx, session)
			s.Require().NoError(err)
			s.Equal([]int{s.seatIDs[2]}, members)

			s.Require().NoError(store.Clear(s.ctx, session))

			members, err = store.Members(s.ctx, session)
			s.Require().NoError(err)
			s.Empty(members)
		})
	}
}

func (s *RepositoryTestSuite) TestMovieRepository() {
	repo := repository.NewPostgresMovieRepository(s.app.DB)

	movie, err := repo.GetById(s.ctx, s.movieID)
	s.Require().NoError(err)
	s.Equal(TestMovieTitle, movie.Title)
	s.Equal(TestMovieGenre, movie.Genre)

	_, err = repo.GetById(s.ctx, 999)
	s.ErrorIs(err, domain.ErrRecordNotFound)
}
