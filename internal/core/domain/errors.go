package domain

import "errors"

var (
	// ErrNotFound indicates the referenced appointment or notification does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrPersistence indicates the record store rejected a read or write. Fatal
	// to the enclosing operation.
	ErrPersistence = errors.New("record store operation failed")
	// ErrCacheWrite indicates the fallback cache rejected a write. Logged only.
	ErrCacheWrite = errors.New("fallback cache write failed")
	// ErrCalendarSync indicates a calendar adapter call failed.
	ErrCalendarSync = errors.New("calendar sync failed")
	// ErrMessagingDispatch indicates the messaging adapter accepted the send and failed.
	ErrMessagingDispatch = errors.New("message dispatch failed")
	// ErrMessagingUnavailable indicates no send was attempted because the
	// messaging adapter is disabled or unauthenticated.
	ErrMessagingUnavailable = errors.New("messaging service unavailable")
	// ErrAlreadySent indicates a resend was requested for a notification that
	// already reached the sent state, which is terminal.
	ErrAlreadySent = errors.New("notification already sent")
)
