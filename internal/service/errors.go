package service

import "errors"

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and the per-booking limit")
	ErrSoldOut           = errors.New("not enough tickets available")
	ErrInvalidTransition = errors.New("booking is not in a state that allows this transition")

	ErrPaymentNotFound     = errors.New("payment not found")
	ErrBookingNotPayable   = errors.New("booking cannot accept a payment")
	ErrPaymentInFlight     = errors.New("a payment attempt is already in progress")
	ErrProviderUnavailable = errors.New("payment provider refused the request")

	ErrEventNotFound = errors.New("event not found")
	ErrInvalidToken  = errors.New("hold token is unknown or already settled the other way")
)
