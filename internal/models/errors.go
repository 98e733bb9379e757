package models

import "errors"

var (
	ErrUnauthenticated    = errors.New("no authenticated user")
	ErrNotFound           = errors.New("not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrForbidden          = errors.New("operation not permitted for this user")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrReceiverUnresolved = errors.New("receiver is not resolved")
	ErrBlocked            = errors.New("conversation is blocked")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUploadFailed       = errors.New("upload failed")
	ErrUpstream           = errors.New("upstream service failed")
	ErrUnavailable        = errors.New("service not configured")
)
