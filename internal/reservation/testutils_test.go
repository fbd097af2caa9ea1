package reservation

import (
	"io"
	"log/slog"
	"time"

	"github.com/metinatakli/seat-booking-engine/internal/clock"
	"github.com/metinatakli/seat-booking-engine/internal/domain"
	"github.com/metinatakli/seat-booking-engine/internal/mocks"
)

const (
	testMovieID  = 1
	otherMovieID = 2
	sessionA     = "session-a"
	sessionB     = "session-b"
	testPrice    = int64(200)
)

var testStart = time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	clock     *clock.Fake
	seats     *mocks.InMemorySeatStore
	carts     *mocks.InMemoryCartStore
	checkouts *mocks.InMemoryCheckoutRepo
	ledger    *mocks.InMemoryLedger
	gateway   *mocks.MockPaymentProvider
	holds     *HoldManager
	cart      *Cart
	checkout  *Checkout
}

func newFixture() *fixture {
	f := &fixture{
		clock:     clock.NewFake(testStart),
		seats:     mocks.NewInMemorySeatStore(),
		carts:     mocks.NewInMemoryCartStore(),
		checkouts: mocks.NewInMemoryCheckoutRepo(),
		ledger:    mocks.NewInMemoryLedger(),
		gateway:   new(mocks.MockPaymentProvider),
	}

	logger := discardLogger()

	f.holds = NewHoldManager(f.seats, f.clock, logger)
	f.cart = NewCart(f.carts, f.holds, logger)
	f.checkout = NewCheckout(CheckoutDeps{
		Seats:     f.seats,
		Holds:     f.holds,
		Cart:      f.cart,
		Checkouts: f.checkouts,
		Ledger:    f.ledger,
		Movies: mocks.StaticMovies(
			domain.Movie{ID: testMovieID, Title: "Interstellar"},
			domain.Movie{ID: otherMovieID, Title: "Inception"},
		),
		Gateway: f.gateway,
		Clock:   f.clock,
		Logger:  logger,
	}, CheckoutConfig{UnitPrice: testPrice, Currency: "inr"})

	return f
}
