package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Callers classify with errors.Is.
var (
	// ErrInvalidArgument marks a caller-supplied parameter that is out of range.
	// It is always raised before any network call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstream marks a failed, rejected or undecodable YouTube API call.
	ErrUpstream = errors.New("upstream error")

	// ErrQuotaExceeded is the upstream failure caused by an exhausted API quota.
	ErrQuotaExceeded = fmt.Errorf("%w: quota exceeded", ErrUpstream)

	// ErrMalformedInput marks a raw item that lacks a required field.
	ErrMalformedInput = errors.New("malformed input")

	// ErrStorage marks a failed persistence operation.
	ErrStorage = errors.New("storage error")

	// ErrStoreUnavailable is returned for writes while the store handle is not connected.
	ErrStoreUnavailable = fmt.Errorf("%w: store unavailable", ErrStorage)

	// ErrSessionNotFound is returned when no state exists for a session id.
	ErrSessionNotFound = errors.New("session not found")
)

// InvalidArgumentf builds an ErrInvalidArgument with a formatted reason.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// MalformedItemError describes a raw item skipped by the normalizer.
type MalformedItemError struct {
	Index  int
	ID     string
	Reason string
}

func (e *MalformedItemError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("malformed input: item %d (%s): %s", e.Index, e.ID, e.Reason)
	}
	return fmt.Sprintf("malformed input: item %d: %s", e.Index, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedInput.
func (e *MalformedItemError) Unwrap() error {
	return ErrMalformedInput
}
