//go:build !nogpu

package native

import "errors"

// Package errors for the native backend.
var (
	// ErrHALUnavailable is returned when the HAL backend is not compiled in.
	ErrHALUnavailable = errors.New("native: HAL backend not available")

	// ErrNoAdapters is reported when the HAL enumerates no adapter.
	ErrNoAdapters = errors.New("native: no GPU adapters found")

	// ErrUnsupportedSource is returned for a surface source the HAL cannot use.
	ErrUnsupportedSource = errors.New("native: unsupported surface source")

	// ErrForeignDevice is returned when a surface is configured against a
	// device from another backend.
	ErrForeignDevice = errors.New("native: device does not belong to this backend")
)
