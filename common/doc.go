// Package common provides shared constants, types, utilities, and interfaces
// used throughout the QuickLinks dashboard.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: Application-wide intervals, timeouts, and file names
//   - Errors: Sentinel errors for consistent error handling across packages
//   - Interfaces: Abstractions for notifications, credential storage, UI dispatch, and logging
//   - Logger: Leveled logging with console and rotating file output
//   - Utils: Config directory lookup and atomic file writes
//
// # Usage
//
//	common.LogInfo("Security key connected: %s", name)
//
//	if errors.Is(err, common.ErrVPNClientMissing) {
//	    // VPN features unavailable
//	}
package common
