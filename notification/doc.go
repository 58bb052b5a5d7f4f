// Package notification keeps the dashboard's notification history and
// delivers desktop notifications.
//
// The Log is a JSON array on disk, rewritten atomically after every
// change. A missing or corrupt file starts an empty history.
package notification
