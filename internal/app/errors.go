package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/seat-booking-engine/internal/domain"
	appvalidator "github.com/metinatakli/seat-booking-engine/internal/validator"
)

const (
	ErrInternalServer   = "The server encountered a problem and could not process your request"
	ErrNotFound         = "The requested resource not found"
	ErrMethodNotAllowed = "The %s method is not supported for this resource"
	ErrPaymentProvider  = "The payment provider is unavailable, please try again"
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.contextGetLogger(r).Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *Application) notFoundResponseWithErr(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusNotFound, err.Error())
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, fmt.Sprintf(ErrMethodNotAllowed, r.Method))
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) editConflictResponseWithErr(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusConflict, err.Error())
}

func (app *Application) unprocessableEntityResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

func (app *Application) badGatewayResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusBadGateway, ErrPaymentProvider)
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		app.badRequestResponse(w, r, err)
		return
	}

	resp := ValidationErrorResponse{
		Message:   "One or more fields are invalid",
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	for _, fe := range validationErrors {
		resp.ValidationErrors = append(resp.ValidationErrors, ValidationError{
			Field: fe.Field(),
			Issue: appvalidator.ValidationMessage(fe),
		})
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// bookingErrorResponse maps reservation errors onto HTTP statuses. Anything
// unknown is a server error.
func (app *Application) bookingErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrAlreadyHeld),
		errors.Is(err, domain.ErrHoldExpired),
		errors.Is(err, domain.ErrSeatUnavailable),
		errors.Is(err, domain.ErrNotHolder),
		errors.Is(err, domain.ErrCartMovieMismatch),
		errors.Is(err, domain.ErrCheckoutInProgress),
		errors.Is(err, domain.ErrCheckoutClosed):
		app.contextGetLogger(r).Warn("request refused", "uri", r.URL.RequestURI(), "error", err)
		app.editConflictResponseWithErr(w, r, err)
	case errors.Is(err, domain.ErrEmptyCart):
		app.unprocessableEntityResponse(w, r, err)
	case errors.Is(err, domain.ErrGateway):
		app.badGatewayResponse(w, r, err)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
