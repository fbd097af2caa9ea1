package app

import (
	"net/http"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

func (app *Application) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	app.writeCartResponse(w, r, app.sessionID(r))
}

// DeleteCartHandler abandons the checkout: every held seat is released and
// the cart emptied.
func (app *Application) DeleteCartHandler(w http.ResponseWriter, r *http.Request) {
	err := app.checkout.CancelCheckout(r.Context(), app.sessionID(r))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) writeCartResponse(w http.ResponseWriter, r *http.Request, sessionID string) {
	seats, err := app.cart.List(r.Context(), sessionID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := CartResponse{
		Seats: app.toSeats(seats, sessionID),
		Quote: app.toQuote(domain.NewQuote(len(seats), app.checkout.UnitPrice())),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
