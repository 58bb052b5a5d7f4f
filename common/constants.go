// Package common provides shared constants, types, and utilities
// used across the QuickLinks dashboard.
package common

import "time"

// Application metadata.
const (
	// AppName is the display name of the application.
	AppName = "QuickLinks"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "quicklinks"
)

// File names used by the application.
const (
	ConfigFileName        = "config.yaml"
	NotificationsFileName = "notifications.json"
	CredentialsFileName   = ".credentials"
	LogFileName           = "quicklinks.log"
)

// Default timeouts and intervals.
const (
	// KeyPollInterval is how often the presence monitor enumerates devices.
	KeyPollInterval = 1 * time.Second
	// KeyErrorBackoff is the wait after a failed enumeration.
	KeyErrorBackoff = 5 * time.Second
	// JoinTimeout bounds how long shutdown waits for a background loop.
	JoinTimeout = 1 * time.Second
	// VPNStatusInterval is how often the VPN watcher queries the vendor CLI.
	VPNStatusInterval = 2 * time.Second
	// VPNCommandTimeout is the timeout for a single vendor CLI invocation.
	VPNCommandTimeout = 5 * time.Second
)

// Notification defaults.
const (
	// DisplayLimit is the number of notifications shown by default.
	DisplayLimit = 10
	// KeyEventTitle is the desktop notification title for key events.
	KeyEventTitle = "Security Key Event"
)
