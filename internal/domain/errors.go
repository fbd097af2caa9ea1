package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrInvalidTransition  = errors.New("invalid seat state transition")
	ErrAlreadyHeld        = errors.New("seat is already held by another customer")
	ErrNotHolder          = errors.New("seat is not held by the current session")
	ErrHoldExpired        = errors.New("your selections have expired, please select your seats again")
	ErrSeatUnavailable    = errors.New("seat is no longer available, please reselect")
	ErrEmptyCart          = errors.New("no seats selected")
	ErrCartMovieMismatch  = errors.New("cart contains seats of another movie")
	ErrGateway            = errors.New("payment provider failure")
	ErrPartialFulfillment = errors.New("payment captured but not every seat could be booked")
	ErrDuplicateBooking   = errors.New("booking already recorded for payment")
	ErrCheckoutInProgress = errors.New("checkout is being finalized")
	ErrCheckoutClosed     = errors.New("checkout is no longer open")
)

// PartialFulfillmentError reports seats that could not be booked after the
// gateway already captured payment for them. It needs manual reconciliation.
type PartialFulfillmentError struct {
	PaymentToken string
	Finalized    []int
	Dropped      []int
}

func (e *PartialFulfillmentError) Error() string {
	return fmt.Sprintf("%s: payment %s finalized=%v dropped=%v",
		ErrPartialFulfillment, e.PaymentToken, e.Finalized, e.Dropped)
}

func (e *PartialFulfillmentError) Unwrap() error {
	return ErrPartialFulfillment
}
