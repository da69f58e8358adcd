package services

import "errors"

// Sentinel errors for the domain taxonomy. Controllers map these onto HTTP
// status codes with errors.Is; workers decide retry behaviour from them.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found for user")
	ErrUsageLimitExceeded   = errors.New("usage limit exceeded")
	ErrUnknownFeature       = errors.New("unknown feature")
)
