package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
	"github.com/shopspring/decimal"
)

func (app *Application) GetSeatMapHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	movieID, err := readIDParam(r, "movieId", "movie")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	movie, err := app.movieRepo.GetById(r.Context(), movieID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Warn("seat map requested for unknown movie", "movie_id", movieID)
		}
		app.bookingErrorResponse(w, r, err)
		return
	}

	// Expired holds go back to the pool before availability is shown.
	seats, err := app.holds.Sweep(r.Context(), movieID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	sessionID := app.sessionID(r)

	quote, err := app.checkout.Quote(r.Context(), sessionID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := SeatMapResponse{
		MovieId: movie.ID,
		Title:   movie.Title,
		Seats:   app.toSeats(seats, sessionID),
		Quote:   app.toQuote(quote),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) HoldSeatHandler(w http.ResponseWriter, r *http.Request) {
	seatID, err := readIDParam(r, "seatId", "seat")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sessionID := app.sessionID(r)

	seat, err := app.holdSeat(r.Context(), seatID, sessionID)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	app.writeHoldResponse(w, r, []domain.Seat{*seat})
}

// HoldSeatsHandler holds several seats of one movie. Either every seat is
// held or the request changes nothing: holds it created are released again,
// holds the session already had are kept.
func (app *Application) HoldSeatsHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	movieID, err := readIDParam(r, "movieId", "movie")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input HoldSeatsRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	sessionID := app.sessionID(r)

	// Every seat is checked before the first hold is taken.
	alreadyHeld := make(map[int]bool, len(input.SeatIdList))

	for _, seatID := range input.SeatIdList {
		seat, mine, err := app.holds.HeldBy(r.Context(), seatID, sessionID)
		if err != nil {
			app.bookingErrorResponse(w, r, err)
			return
		}

		if seat.MovieID != movieID {
			logger.Warn("hold rejected: seat belongs to another movie", "seat_id", seatID, "movie_id", movieID)
			app.notFoundResponseWithErr(w, r, fmt.Errorf("seat %d does not belong to movie %d", seatID, movieID))
			return
		}

		alreadyHeld[seatID] = mine
	}

	held := make([]domain.Seat, 0, len(input.SeatIdList))
	acquired := make([]int, 0, len(input.SeatIdList))

	for _, seatID := range input.SeatIdList {
		seat, err := app.holdSeat(r.Context(), seatID, sessionID)
		if err != nil {
			app.rollbackHolds(r.Context(), sessionID, acquired)
			logger.Warn("hold rejected, released seats acquired so far", "seat_id", seatID, "error", err)
			app.bookingErrorResponse(w, r, err)
			return
		}

		held = append(held, *seat)

		if !alreadyHeld[seatID] {
			acquired = append(acquired, seatID)
			alreadyHeld[seatID] = true
		}
	}

	app.writeHoldResponse(w, r, held)
}

func (app *Application) ReleaseSeatHandler(w http.ResponseWriter, r *http.Request) {
	seatID, err := readIDParam(r, "seatId", "seat")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sessionID := app.sessionID(r)

	releaseErr := app.holds.Release(r.Context(), seatID, sessionID)

	// A stale cart entry is dropped even when the hold is already gone.
	err = app.cart.Remove(r.Context(), sessionID, seatID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if releaseErr != nil {
		app.bookingErrorResponse(w, r, releaseErr)
		return
	}

	app.writeCartResponse(w, r, sessionID)
}

// ToggleSeatHandler releases the seat when the session holds it and tries to
// hold it otherwise.
func (app *Application) ToggleSeatHandler(w http.ResponseWriter, r *http.Request) {
	seatID, err := readIDParam(r, "seatId", "seat")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sessionID := app.sessionID(r)

	seat, heldByMe, err := app.holds.HeldBy(r.Context(), seatID, sessionID)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if heldByMe {
		err = app.holds.Release(r.Context(), seatID, sessionID)
		if err != nil {
			app.bookingErrorResponse(w, r, err)
			return
		}

		err = app.cart.Remove(r.Context(), sessionID, seatID)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		released := seat.Apply(domain.FreeState())
		seat = &released
	} else {
		seat, err = app.holdSeat(r.Context(), seatID, sessionID)
		if err != nil {
			app.bookingErrorResponse(w, r, err)
			return
		}
	}

	quote, err := app.checkout.Quote(r.Context(), sessionID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := ToggleResponse{
		Seat:  app.toSeat(*seat, sessionID, app.clock.Now()),
		Held:  !heldByMe,
		Quote: app.toQuote(quote),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// holdSeat reserves the seat and records it in the session cart. The hold is
// released again if the cart cannot be updated.
func (app *Application) holdSeat(ctx context.Context, seatID int, sessionID string) (*domain.Seat, error) {
	seat, err := app.holds.Reserve(ctx, seatID, sessionID)
	if err != nil {
		return nil, err
	}

	err = app.cart.Add(ctx, sessionID, seatID)
	if err != nil {
		releaseErr := app.holds.Release(ctx, seatID, sessionID)
		if releaseErr != nil {
			app.logger.Error("failed to release hold after cart update failure", "seat_id", seatID, "error", releaseErr)
		}

		return nil, fmt.Errorf("add seat %d to cart: %w", seatID, err)
	}

	return seat, nil
}

func (app *Application) rollbackHolds(ctx context.Context, sessionID string, seatIDs []int) {
	if len(seatIDs) == 0 {
		return
	}

	for _, seatID := range seatIDs {
		err := app.holds.Release(ctx, seatID, sessionID)
		if err != nil {
			app.logger.Error("failed to rollback seat hold", "seat_id", seatID, "error", err)
		}
	}

	err := app.cart.Remove(ctx, sessionID, seatIDs...)
	if err != nil {
		app.logger.Error("failed to rollback cart entries", "seat_ids", seatIDs, "error", err)
	}
}

func (app *Application) writeHoldResponse(w http.ResponseWriter, r *http.Request, seats []domain.Seat) {
	sessionID := app.sessionID(r)

	quote, err := app.checkout.Quote(r.Context(), sessionID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := HoldResponse{
		Seats: app.toSeats(seats, sessionID),
		Quote: app.toQuote(quote),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) toSeats(seats []domain.Seat, sessionID string) []Seat {
	now := app.clock.Now()

	result := make([]Seat, len(seats))
	for i, seat := range seats {
		result[i] = app.toSeat(seat, sessionID, now)
	}

	return result
}

func (app *Application) toSeat(seat domain.Seat, sessionID string, now time.Time) Seat {
	s := Seat{
		Id:         seat.ID,
		SeatNumber: seat.SeatNumber,
		Status:     string(seat.Status),
	}

	if seat.HoldExpired(now) {
		s.Status = string(domain.SeatFree)
	}

	if seat.HeldBy(sessionID, now) {
		s.HeldByYou = true
		s.HoldExpiresAt = seat.HoldExpiresAt
	}

	return s
}

func (app *Application) toQuote(quote domain.Quote) Quote {
	return Quote{
		SeatCount:  quote.SeatCount,
		UnitPrice:  decimal.NewFromInt(quote.UnitPrice).StringFixed(2),
		TotalPrice: decimal.NewFromInt(quote.TotalPrice).StringFixed(2),
		Currency:   app.checkout.Currency(),
	}
}
