package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrCookieFileNotFound  = errors.New("cookie file not found")
	ErrUnsupportedSource   = errors.New("unsupported URL or source")
	ErrStrategiesExhausted = errors.New("all download strategies failed")
	ErrToolNotFound        = errors.New("tool not found")
	ErrMissingFields       = errors.New("Missing required fields")
)

// StrategyExhaustedError carries the last attempt's error after the ladder ran out
type StrategyExhaustedError struct {
	Attempts []DownloadAttemptResult
	Last     error
}

func (e *StrategyExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrStrategiesExhausted, len(e.Attempts), e.Last)
}

func (e *StrategyExhaustedError) Unwrap() []error {
	return []error{ErrStrategiesExhausted, e.Last}
}

// HostError is a media host failure with an optional HTTP status
type HostError struct {
	StatusCode int
	Message    string
}

func (e *HostError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("media host error (status %d): %s", e.StatusCode, e.Message)
	}
	return "media host error: " + e.Message
}
