// Package common provides shared constants, types, and utilities
// used across the QuickLinks dashboard.
package common

import "errors"

// Sentinel errors.
// These can be checked with errors.Is() for proper error handling.
var (
	// VPN errors.
	ErrAlreadyConnected = errors.New("vpn already connected")
	ErrNotConnected     = errors.New("vpn not connected")
	ErrVPNClientMissing = errors.New("vpn client is not installed")
	ErrConnectionFailed = errors.New("vpn connection failed")
	ErrTimeout          = errors.New("operation timed out")

	// Device errors.
	ErrUnsupportedPlatform = errors.New("device enumeration not supported on this platform")
	ErrEnumeration         = errors.New("device enumeration failed")

	// Credential errors.
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrCredentialStorage   = errors.New("failed to store credentials")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")

	// Link errors.
	ErrLinkNotFound = errors.New("link not found")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
