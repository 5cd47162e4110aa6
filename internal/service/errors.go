package service

import "errors"

// Sentinel errors for service layer
var (
	ErrVerificationFailed = errors.New("human verification failed")
	ErrMissingCredentials = errors.New("missing mail service credentials")
	ErrMissingMailbox     = errors.New("missing sender and/or recipient email address")
	ErrRelay              = errors.New("mail relay failed")
)
