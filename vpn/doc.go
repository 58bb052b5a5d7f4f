// Package vpn drives the Cisco AnyConnect command line client.
//
// The package is organized around two types:
//
//   - Client: runs "vpncli state", "connect" and "disconnect" with a
//     per-command timeout and parses the reported state
//   - Watcher: polls a Client on an interval and reports changes of the
//     connected flag
//
// # Connection Flow
//
// A typical connection flow:
//
//  1. The user asks to connect from the CLI or the dashboard
//  2. Client.Connect checks the current state and returns ErrAlreadyConnected
//     if the tunnel is already up
//  3. With stored credentials the CLI is scripted through "vpncli -s";
//     otherwise "vpncli connect <server>" is started and left to prompt
//  4. The Watcher notices the state change and the dashboard records it
//
// # Thread Safety
//
// Client and Watcher are safe for concurrent use.
package vpn
