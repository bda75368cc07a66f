package service

import "errors"

// Sentinel kinds returned by the service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("assessment queue is full")
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid request")
	ErrUnavailable  = errors.New("assessment log unavailable")
)
