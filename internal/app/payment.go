package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

const (
	maxWebhookBytes     = 65536
	notificationTimeout = 30 * time.Second
)

func (app *Application) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	movieID, err := readIDParam(r, "movieId", "movie")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	session, err := app.checkout.BeginCheckout(r.Context(), app.sessionID(r), movieID)
	if err != nil {
		logger.Warn("checkout could not be started", "movie_id", movieID, "error", err)
		app.bookingErrorResponse(w, r, err)
		return
	}

	logger.Info("checkout started", "movie_id", movieID, "checkout_token", session.Token, "handle", session.Handle)

	resp := CheckoutSessionResponse{
		RedirectUrl: session.RedirectURL,
		Handle:      session.Handle,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// PaymentWebhookHandler receives payment provider callbacks. Callbacks can
// arrive any number of times; a 2xx tells the provider to stop retrying.
func (app *Application) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	event, err := app.paymentProvider.ParseEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		logger.Warn("rejected payment webhook", "error", err)
		app.badRequestResponse(w, r, err)
		return
	}

	switch event.Kind {
	case domain.PaymentConfirmed:
		if !app.handlePaymentConfirmed(w, r, event) {
			return
		}
	case domain.PaymentCancelled:
		err = app.checkout.CancelPayment(r.Context(), event.Handle, event.Token)
		if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			app.serverErrorResponse(w, r, err)
			return
		}

		logger.Info("payment cancelled", "handle", event.Handle)
	default:
		logger.Debug("ignored payment webhook event")
	}

	err = app.writeJSON(w, http.StatusOK, WebhookResponse{Received: true}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// handlePaymentConfirmed finalizes the booking and reports whether the
// webhook should be acknowledged.
func (app *Application) handlePaymentConfirmed(w http.ResponseWriter, r *http.Request, event domain.PaymentEvent) bool {
	logger := app.contextGetLogger(r).With("handle", event.Handle)

	result, err := app.checkout.Finalize(r.Context(), domain.PaymentConfirmation{
		Handle:        event.Handle,
		Token:         event.Token,
		CustomerEmail: event.CustomerEmail,
	})

	var partial *domain.PartialFulfillmentError

	switch {
	case err == nil:
	case errors.As(err, &partial):
		// Payment is captured; retrying cannot recover the dropped seats.
		logger.Error("booking partially fulfilled, manual reconciliation required",
			"checkout_token", partial.PaymentToken,
			"finalized", partial.Finalized,
			"dropped", partial.Dropped,
		)
	case errors.Is(err, domain.ErrCheckoutClosed):
		logger.Error("payment confirmed for a closed checkout, manual refund required", "error", err)
		return true
	default:
		logger.Warn("payment confirmation not processed", "error", err)
		app.bookingErrorResponse(w, r, err)
		return false
	}

	if result.Replayed {
		logger.Info("duplicate payment confirmation acknowledged", "checkout_token", result.PaymentToken)
		return true
	}

	if result.Booking != nil {
		logger.Info("booking confirmed",
			"booking_id", result.Booking.ID,
			"checkout_token", result.PaymentToken,
			"seats", result.Finalized,
		)
	}

	if result.Confirmation != nil {
		app.sendBookingConfirmed(*result.Confirmation)
	}

	return true
}

func (app *Application) sendBookingConfirmed(event domain.BookingConfirmed) {
	app.runInBackground(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()

		err := app.notifier.BookingConfirmed(ctx, event)
		if err != nil {
			app.logger.Error("failed to deliver booking confirmation", "movie", event.MovieTitle, "error", err)
		}
	})
}

// PaymentCancelHandler is where the payment page sends the customer after an
// abandoned payment. The session's seats go back to the pool.
func (app *Application) PaymentCancelHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := app.sessionID(r)

	err := app.checkout.CancelCheckout(r.Context(), sessionID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.contextGetLogger(r).Info("checkout cancelled by customer")

	app.writeCartResponse(w, r, sessionID)
}
