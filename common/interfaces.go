// Package common provides shared constants, types, and utilities
// used across the QuickLinks dashboard.
package common

// Notifier delivers a user-facing message to the operating system's
// notification surface.
type Notifier interface {
	// Notify sends a notification with the given title and message.
	Notify(title, message string) error
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(title, message string) error

// Notify calls f(title, message).
func (f NotifierFunc) Notify(title, message string) error {
	return f(title, message)
}

// CredentialStore defines the interface for credential storage.
// Implementations may use system keyring, encrypted files, etc.
type CredentialStore interface {
	// Set saves a secret for an account.
	Set(account, secret string) error
	// Get retrieves the secret for an account.
	Get(account string) (string, error)
	// Delete removes the secret for an account.
	Delete(account string) error
}

// Dispatcher schedules fn to run on the UI goroutine.
// Implementations must preserve submission order.
type Dispatcher func(fn func())

// Inline is a Dispatcher that runs fn on the calling goroutine.
// It is used when there is no UI loop (headless mode, CLI, tests).
func Inline(fn func()) { fn() }

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...interface{})
	// Info logs an informational message.
	Info(msg string, args ...interface{})
	// Warn logs a warning message.
	Warn(msg string, args ...interface{})
	// Error logs an error message.
	Error(msg string, args ...interface{})
}
