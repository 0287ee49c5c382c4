package domain

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrBusClosed    = errors.New("bus is closed")
	ErrHubStopped   = errors.New("hub stopped")
)
