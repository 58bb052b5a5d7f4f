// Package ui provides the terminal dashboard of QuickLinks.
//
// The dashboard is a Bubble Tea program. Its event loop is the UI
// thread: background monitors hand their callbacks to it through
// Dispatcher, so every state change is applied inside Update.
//
// Keys:
//
//   - r: mark all notifications as read
//   - c: clear the notification history
//   - v: refresh the VPN status
//   - q, ctrl+c: quit
package ui
