package service

import "errors"

var (
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrPaymentNotSuccessful = errors.New("payment not successful")
	ErrMissingPrincipal     = errors.New("user id not found in payment data")
	ErrMissingOrder         = errors.New("order id not found in payment data")
	ErrSubscriptionNotFound = errors.New("no active subscription found")
)
