package aqua

import "errors"

var (
	ErrStoreUnavailable     = errors.New("usage store unavailable")
	ErrMalformedRecord      = errors.New("malformed usage record")
	ErrNotificationDispatch = errors.New("notification dispatch failed")
	ErrHistoryWrite         = errors.New("alert history write failed")
	ErrInvalidDelta         = errors.New("liters must be a finite non-negative number")
	ErrMissingUser          = errors.New("user id is required")
	ErrUnknownWindow        = errors.New("unknown window kind")
)
