// Package apperr classifies failures so callers can decide whether to retry,
// report or abort a single call.
package apperr

import "errors"

var (
	// ErrConfiguration marks invalid capacity, band ranges or devices. It is
	// reported before any capture or filtering starts.
	ErrConfiguration = errors.New("configuration error")

	// ErrDevice marks a driver failure to open or start a stream. Callers may retry.
	ErrDevice = errors.New("device error")

	// ErrIO marks encode or write failures. Capture keeps running.
	ErrIO = errors.New("io error")
)
