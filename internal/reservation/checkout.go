package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-booking-engine/internal/clock"
	"github.com/metinatakli/seat-booking-engine/internal/domain"
	"github.com/metinatakli/seat-booking-engine/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultUnitPrice  int64 = 200
	DefaultCurrency         = "inr"
	DefaultClaimLease       = 2 * time.Minute
)

var tracer = otel.Tracer("github.com/metinatakli/seat-booking-engine/internal/reservation")

type CheckoutConfig struct {
	UnitPrice  int64
	Currency   string
	ClaimLease time.Duration
}

// Checkout turns a session's holds into a paid booking. The gateway is called
// without any seat write in flight; payment confirmation re-validates every
// seat instead of trusting the cart snapshot taken at checkout start.
type Checkout struct {
	seats     domain.SeatStore
	holds     *HoldManager
	cart      *Cart
	checkouts domain.CheckoutRepository
	ledger    domain.BookingLedger
	movies    domain.MovieRepository
	gateway   domain.PaymentGateway
	clock     clock.Clock
	logger    *slog.Logger
	cfg       CheckoutConfig
}

type CheckoutDeps struct {
	Seats     domain.SeatStore
	Holds     *HoldManager
	Cart      *Cart
	Checkouts domain.CheckoutRepository
	Ledger    domain.BookingLedger
	Movies    domain.MovieRepository
	Gateway   domain.PaymentGateway
	Clock     clock.Clock
	Logger    *slog.Logger
}

func NewCheckout(deps CheckoutDeps, cfg CheckoutConfig) *Checkout {
	if cfg.UnitPrice <= 0 {
		cfg.UnitPrice = DefaultUnitPrice
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = DefaultClaimLease
	}

	return &Checkout{
		seats:     deps.Seats,
		holds:     deps.Holds,
		cart:      deps.Cart,
		checkouts: deps.Checkouts,
		ledger:    deps.Ledger,
		movies:    deps.Movies,
		gateway:   deps.Gateway,
		clock:     deps.Clock,
		logger:    deps.Logger,
		cfg:       cfg,
	}
}

type FinalizeResult struct {
	PaymentToken string
	Booking      *domain.Booking
	Confirmation *domain.BookingConfirmed
	Finalized    []int
	Dropped      []int
	Replayed     bool
}

func (c *Checkout) UnitPrice() int64 {
	return c.cfg.UnitPrice
}

func (c *Checkout) Currency() string {
	return c.cfg.Currency
}

func (c *Checkout) Quote(ctx context.Context, sessionID string) (domain.Quote, error) {
	seats, err := c.cart.List(ctx, sessionID)
	if err != nil {
		return domain.Quote{}, err
	}

	return domain.NewQuote(len(seats), c.cfg.UnitPrice), nil
}

// BeginCheckout validates the whole cart against current seat state and opens
// a payment session for it.
func (c *Checkout) BeginCheckout(ctx context.Context, sessionID string, movieID int) (*domain.PaymentSession, error) {
	movie, err := c.movies.GetById(ctx, movieID)
	if err != nil {
		return nil, err
	}

	seatIDs, err := c.cart.Members(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(seatIDs) == 0 {
		return nil, domain.ErrEmptyCart
	}

	now := c.clock.Now()

	for _, seatID := range seatIDs {
		seat, err := c.seats.GetSeat(ctx, seatID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return nil, domain.ErrHoldExpired
			}
			return nil, err
		}

		if seat.MovieID != movieID {
			return nil, domain.ErrCartMovieMismatch
		}

		if !seat.HeldBy(sessionID, now) {
			return nil, domain.ErrHoldExpired
		}
	}

	quote := domain.NewQuote(len(seatIDs), c.cfg.UnitPrice)

	checkout := &domain.Checkout{
		Token:     uuid.NewString(),
		SessionID: sessionID,
		MovieID:   movieID,
		SeatIDs:   seatIDs,
		UnitPrice: quote.UnitPrice,
		Amount:    quote.TotalPrice,
		Currency:  c.cfg.Currency,
		Status:    domain.CheckoutPending,
		CreatedAt: now,
	}

	err = c.checkouts.Create(ctx, checkout)
	if err != nil {
		return nil, fmt.Errorf("record checkout: %w", err)
	}

	session, err := c.gateway.CreatePaymentSession(ctx, domain.PaymentRequest{
		Amount:      quote.TotalPrice,
		UnitAmount:  quote.UnitPrice,
		Quantity:    quote.SeatCount,
		Currency:    c.cfg.Currency,
		Description: movie.Title,
		Metadata: map[string]string{
			"checkout_token": checkout.Token,
			"movie_id":       strconv.Itoa(movieID),
		},
	})
	if err != nil {
		c.logger.Error("payment session creation failed", "checkout_token", checkout.Token, "error", err)

		_, markErr := c.checkouts.UpdateStatus(ctx, checkout.Token, domain.CheckoutFailed, domain.CheckoutPending)
		if markErr != nil {
			c.logger.Error("failed to mark checkout as failed", "checkout_token", checkout.Token, "error", markErr)
		}

		return nil, fmt.Errorf("%w: %w", domain.ErrGateway, err)
	}

	// The customer can pay from here on. Callbacks carry the checkout token,
	// so a record without a handle is still found and repaired later.
	err = c.checkouts.AttachHandle(ctx, checkout.Token, session.Handle)
	if err != nil {
		c.logger.Error("failed to record payment handle",
			"checkout_token", checkout.Token,
			"handle", session.Handle,
			"error", err,
		)
	}

	session.Token = checkout.Token

	return session, nil
}

// Finalize runs on a payment-confirmed callback. The checkout record is
// claimed before any seat is touched so repeated callbacks book nothing twice.
func (c *Checkout) Finalize(ctx context.Context, confirmation domain.PaymentConfirmation) (*FinalizeResult, error) {
	ctx, span := tracer.Start(ctx, "checkout.finalize")
	defer span.End()

	span.SetAttributes(attribute.String("payment.handle", confirmation.Handle))

	result, err := c.finalize(ctx, confirmation)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}

func (c *Checkout) finalize(ctx context.Context, confirmation domain.PaymentConfirmation) (*FinalizeResult, error) {
	checkout, err := c.findCheckout(ctx, confirmation.Handle, confirmation.Token)
	if err != nil {
		return nil, err
	}

	if result, done, err := c.settledOutcome(ctx, checkout); done {
		return result, err
	}

	now := c.clock.Now()

	won, err := c.checkouts.Claim(ctx, checkout.Token, now, now.Add(-c.cfg.ClaimLease))
	if err != nil {
		return nil, fmt.Errorf("claim checkout: %w", err)
	}

	if !won {
		checkout, err = c.checkouts.GetByToken(ctx, checkout.Token)
		if err != nil {
			return nil, err
		}

		if result, done, err := c.settledOutcome(ctx, checkout); done {
			return result, err
		}

		metrics.TrackFinalize("in_progress", 0)
		return nil, domain.ErrCheckoutInProgress
	}

	booked, dropped, err := c.bookSeats(ctx, checkout, now)
	if err != nil {
		metrics.TrackFinalize("error", 0)
		return nil, err
	}

	result := &FinalizeResult{
		PaymentToken: checkout.Token,
		Dropped:      dropped,
	}

	if len(booked) > 0 {
		err = c.recordBooking(ctx, checkout, booked, confirmation, now, result)
		if err != nil {
			metrics.TrackFinalize("error", 0)
			return nil, err
		}
	}

	status := domain.CheckoutCompleted
	if len(dropped) > 0 {
		status = domain.CheckoutPartial
	}

	_, err = c.checkouts.UpdateStatus(ctx, checkout.Token, status, domain.CheckoutProcessing)
	if err != nil {
		return nil, fmt.Errorf("settle checkout: %w", err)
	}

	err = c.cart.Clear(ctx, checkout.SessionID)
	if err != nil {
		c.logger.Error("failed to clear cart after booking", "checkout_token", checkout.Token, "error", err)
	}

	if len(dropped) > 0 {
		metrics.TrackFinalize("partial", len(dropped))
		c.logger.Error("payment captured for seats that could not be booked",
			"checkout_token", checkout.Token,
			"finalized", result.Finalized,
			"dropped", dropped,
			"amount_charged", checkout.Amount,
		)

		return result, &domain.PartialFulfillmentError{
			PaymentToken: checkout.Token,
			Finalized:    result.Finalized,
			Dropped:      dropped,
		}
	}

	metrics.TrackFinalize("completed", 0)
	return result, nil
}

// findCheckout resolves a gateway callback to its checkout. The handle is
// tried first; the token covers records whose handle was never stored.
func (c *Checkout) findCheckout(ctx context.Context, handle, token string) (*domain.Checkout, error) {
	if handle != "" {
		checkout, err := c.checkouts.GetByHandle(ctx, handle)
		if err == nil || token == "" || !errors.Is(err, domain.ErrRecordNotFound) {
			return checkout, err
		}
	}

	if token == "" {
		return nil, domain.ErrRecordNotFound
	}

	checkout, err := c.checkouts.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	// A token never moves to a second gateway session.
	if checkout.Handle != "" && handle != "" && checkout.Handle != handle {
		return nil, domain.ErrRecordNotFound
	}

	if checkout.Handle == "" && handle != "" {
		err = c.checkouts.AttachHandle(ctx, checkout.Token, handle)
		if err != nil {
			c.logger.Warn("failed to repair payment handle", "checkout_token", checkout.Token, "error", err)
		} else {
			checkout.Handle = handle
		}
	}

	return checkout, nil
}

// settledOutcome short-circuits checkouts that finalize must not claim.
func (c *Checkout) settledOutcome(ctx context.Context, checkout *domain.Checkout) (*FinalizeResult, bool, error) {
	switch {
	case checkout.Settled():
		booking, err := c.ledger.GetByPaymentToken(ctx, checkout.Token)
		if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			return nil, true, err
		}

		metrics.TrackFinalize("replayed", 0)
		c.logger.Info("duplicate payment confirmation ignored", "checkout_token", checkout.Token)

		return &FinalizeResult{PaymentToken: checkout.Token, Booking: booking, Replayed: true}, true, nil
	case checkout.Status == domain.CheckoutCancelled || checkout.Status == domain.CheckoutFailed:
		metrics.TrackFinalize("closed", 0)
		c.logger.Error("payment confirmed for a closed checkout",
			"checkout_token", checkout.Token,
			"status", checkout.Status,
			"amount_charged", checkout.Amount,
		)

		return nil, true, domain.ErrCheckoutClosed
	default:
		return nil, false, nil
	}
}

func (c *Checkout) bookSeats(ctx context.Context, checkout *domain.Checkout, now time.Time) ([]domain.Seat, []int, error) {
	var booked []domain.Seat
	var dropped []int

	for _, seatID := range checkout.SeatIDs {
		seat, err := c.bookSeat(ctx, seatID, checkout, now)
		if err != nil {
			return nil, nil, err
		}

		if seat == nil {
			dropped = append(dropped, seatID)
			continue
		}

		booked = append(booked, *seat)
	}

	return booked, dropped, nil
}

// bookSeat converts one hold into a booking. A nil seat means the hold is gone.
func (c *Checkout) bookSeat(ctx context.Context, seatID int, checkout *domain.Checkout, now time.Time) (*domain.Seat, error) {
	next := domain.BookedState(checkout.Token)

	for attempt := 0; attempt < c.holds.maxAttempts; attempt++ {
		seat, err := c.seats.GetSeat(ctx, seatID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}

		// An earlier claim of this checkout died after booking the seat.
		if seat.Status == domain.SeatBooked && seat.BookingToken == checkout.Token {
			return seat, nil
		}

		if !seat.HeldBy(checkout.SessionID, now) {
			return nil, nil
		}

		ok, err := c.seats.CompareAndSet(ctx, *seat, next)
		if err != nil {
			return nil, fmt.Errorf("book seat %d: %w", seatID, err)
		}

		if ok {
			bookedSeat := seat.Apply(next)
			return &bookedSeat, nil
		}

		metrics.TrackConflict("finalize")
	}

	return nil, nil
}

func (c *Checkout) recordBooking(
	ctx context.Context,
	checkout *domain.Checkout,
	booked []domain.Seat,
	confirmation domain.PaymentConfirmation,
	now time.Time,
	result *FinalizeResult) error {

	booking := &domain.Booking{
		MovieID:      checkout.MovieID,
		SeatsCount:   len(booked),
		TotalPrice:   int64(len(booked)) * checkout.UnitPrice,
		Currency:     checkout.Currency,
		BookedAt:     now,
		PaymentToken: checkout.Token,
	}

	err := c.ledger.Append(ctx, booking)
	if errors.Is(err, domain.ErrDuplicateBooking) {
		booking, err = c.ledger.GetByPaymentToken(ctx, checkout.Token)
	}
	if err != nil {
		return fmt.Errorf("append booking: %w", err)
	}

	seatNumbers := make([]string, len(booked))
	result.Finalized = make([]int, len(booked))

	for i, seat := range booked {
		seatNumbers[i] = seat.SeatNumber
		result.Finalized[i] = seat.ID
	}

	movieTitle := ""

	movie, err := c.movies.GetById(ctx, checkout.MovieID)
	if err != nil {
		c.logger.Warn("movie lookup failed while building confirmation", "movie_id", checkout.MovieID, "error", err)
	} else {
		movieTitle = movie.Title
	}

	result.Booking = booking
	result.Confirmation = &domain.BookingConfirmed{
		MovieTitle:  movieTitle,
		SeatNumbers: seatNumbers,
		TotalPrice:  booking.TotalPrice,
		Currency:    booking.Currency,
		BookedAt:    booking.BookedAt,
		Recipient:   confirmation.CustomerEmail,
	}

	return nil
}

// CancelCheckout releases every seat in the session's cart and empties it.
func (c *Checkout) CancelCheckout(ctx context.Context, sessionID string) error {
	seatIDs, err := c.cart.Members(ctx, sessionID)
	if err != nil {
		return err
	}

	err = c.releaseAll(ctx, sessionID, seatIDs)
	if err != nil {
		return err
	}

	err = c.cart.Clear(ctx, sessionID)
	if err != nil {
		return err
	}

	return c.checkouts.CancelPendingForSession(ctx, sessionID)
}

// CancelPayment handles the gateway's cancellation callback. Only a pending
// checkout is affected; repeated callbacks are no-ops. Seats another open
// checkout of the session still covers stay held.
func (c *Checkout) CancelPayment(ctx context.Context, handle, token string) error {
	checkout, err := c.findCheckout(ctx, handle, token)
	if err != nil {
		return err
	}

	cancelled, err := c.checkouts.UpdateStatus(ctx, checkout.Token, domain.CheckoutCancelled, domain.CheckoutPending)
	if err != nil {
		return err
	}

	if !cancelled {
		return nil
	}

	open, err := c.checkouts.ListOpenForSession(ctx, checkout.SessionID)
	if err != nil {
		return fmt.Errorf("list open checkouts: %w", err)
	}

	covered := make(map[int]bool)
	for _, other := range open {
		if other.Token == checkout.Token {
			continue
		}
		for _, seatID := range other.SeatIDs {
			covered[seatID] = true
		}
	}

	seatIDs := make([]int, 0, len(checkout.SeatIDs))
	for _, seatID := range checkout.SeatIDs {
		if !covered[seatID] {
			seatIDs = append(seatIDs, seatID)
		}
	}

	if len(seatIDs) == 0 {
		return nil
	}

	err = c.releaseAll(ctx, checkout.SessionID, seatIDs)
	if err != nil {
		return err
	}

	return c.cart.Remove(ctx, checkout.SessionID, seatIDs...)
}

func (c *Checkout) releaseAll(ctx context.Context, sessionID string, seatIDs []int) error {
	for _, seatID := range seatIDs {
		err := c.holds.Release(ctx, seatID, sessionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotHolder) || errors.Is(err, domain.ErrRecordNotFound) {
				continue
			}
			return fmt.Errorf("release seat %d: %w", seatID, err)
		}
	}

	return nil
}
