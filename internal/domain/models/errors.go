package models

import "errors"

var (
	// ErrInsufficientData means a price window is too short to evaluate a
	// strategy. The cycle skips, it never trades on partial data.
	ErrInsufficientData = errors.New("insufficient candle data")

	// ErrUnsupportedStrategy means the configured strategy name does not
	// map to a known implementation.
	ErrUnsupportedStrategy = errors.New("unsupported strategy")

	// ErrInvalidConfiguration means an account has no trading settings;
	// callers must create settings before starting the loop.
	ErrInvalidConfiguration = errors.New("invalid account configuration")

	// ErrGatewayUnavailable wraps transient exchange failures.
	ErrGatewayUnavailable = errors.New("exchange gateway unavailable")
)
